package ingest

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// loadJSONL reads a JSON Lines file (one object per line). Files that hold a
// single top-level JSON array of objects are accepted as a fallback.
func loadJSONL(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot open file")
	}
	defer f.Close()

	var records []map[string]interface{}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			// Fallback for plain JSON files that are arrays of objects.
			if line == 1 && strings.HasPrefix(text, "[") {
				return loadJSONArray(path)
			}
			return nil, errors.Wrap(err, errors.CodeParseFailed, "invalid JSON line").WithContext("line", line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read file")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeEmptyDataset, "file holds no records")
	}

	return datasetFromRecords(records)
}

func loadJSONArray(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot read file")
	}
	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "invalid JSON array")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeEmptyDataset, "file holds no records")
	}
	return datasetFromRecords(records)
}

// datasetFromRecords aligns heterogeneous objects on the union of their keys,
// in first-seen order. Numbers arrive as float64 from encoding/json; columns
// whose values are all integral floats are narrowed to int64.
func datasetFromRecords(records []map[string]interface{}) (*dataset.Dataset, error) {
	var names []string
	index := make(map[string]int)
	for _, rec := range records {
		for k := range rec {
			if _, ok := index[k]; !ok {
				index[k] = len(names)
				names = append(names, k)
			}
		}
	}

	rows := make([][]interface{}, len(records))
	for ri, rec := range records {
		row := make([]interface{}, len(names))
		for k, v := range rec {
			row[index[k]] = v
		}
		rows[ri] = row
	}

	cols := columnsFromValues(names, rows)
	for i, c := range cols {
		cols[i] = narrowIntegralFloats(c)
	}
	return dataset.New(cols)
}

// narrowIntegralFloats converts a float column to int64 when every non-missing
// value is integral, matching how delimited inputs are typed.
func narrowIntegralFloats(c *dataset.Column) *dataset.Column {
	if c.Type != dataset.TypeFloat {
		return c
	}
	for i, v := range c.Floats {
		if c.Missing[i] {
			continue
		}
		if v != float64(int64(v)) {
			return c
		}
	}
	ints := make([]int64, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			ints[i] = int64(v)
		}
	}
	return &dataset.Column{Name: c.Name, Type: dataset.TypeInt, Ints: ints, Missing: c.Missing}
}
