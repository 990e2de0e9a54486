package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// loadCSV reads a delimited file. The first record is the header; short rows
// are padded with missing cells, long rows are truncated to the header width.
func loadCSV(path string, delimiter rune) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot open file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New(errors.CodeEmptyDataset, "file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read header")
	}

	names := normalizeHeader(header)
	cells := make([][]string, len(names))

	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read row").WithContext("row", row)
		}
		for i := range names {
			if i < len(rec) {
				cells[i] = append(cells[i], rec[i])
			} else {
				cells[i] = append(cells[i], "")
			}
		}
		row++
	}

	cols := make([]*dataset.Column, len(names))
	for i, name := range names {
		cols[i] = buildColumn(name, cells[i])
	}
	return dataset.New(cols)
}

// normalizeHeader coerces header cells to non-empty, unique strings.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := h
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		base := name
		for n := 2; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names
}
