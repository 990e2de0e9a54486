package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datascope/datascope/pkg/dataset"
)

// Cell markers treated as missing in textual inputs.
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

func isMissingCell(s string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// buildColumn infers the narrowest type that fits every non-missing cell:
// int64, then float64, then bool, falling back to string. Cells keep their
// raw text when the column stays textual.
func buildColumn(name string, cells []string) *dataset.Column {
	n := len(cells)
	missing := make([]bool, n)
	nonMissing := 0
	for i, s := range cells {
		if isMissingCell(s) {
			missing[i] = true
		} else {
			nonMissing++
		}
	}

	if nonMissing == 0 {
		return &dataset.Column{Name: name, Type: dataset.TypeString, Strings: make([]string, n), Missing: missing}
	}

	allInt, allFloat, allBool := true, true, true
	for i, s := range cells {
		if missing[i] {
			continue
		}
		v := strings.TrimSpace(s)
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	switch {
	case allInt:
		vals := make([]int64, n)
		for i, s := range cells {
			if !missing[i] {
				vals[i], _ = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			}
		}
		return &dataset.Column{Name: name, Type: dataset.TypeInt, Ints: vals, Missing: missing}
	case allFloat:
		vals := make([]float64, n)
		for i, s := range cells {
			if !missing[i] {
				vals[i], _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
			}
		}
		return &dataset.Column{Name: name, Type: dataset.TypeFloat, Floats: vals, Missing: missing}
	case allBool:
		vals := make([]bool, n)
		for i, s := range cells {
			if !missing[i] {
				vals[i] = strings.EqualFold(strings.TrimSpace(s), "true")
			}
		}
		return &dataset.Column{Name: name, Type: dataset.TypeBool, Bools: vals, Missing: missing}
	default:
		vals := make([]string, n)
		for i, s := range cells {
			if !missing[i] {
				vals[i] = s
			}
		}
		return &dataset.Column{Name: name, Type: dataset.TypeString, Strings: vals, Missing: missing}
	}
}

// columnsFromValues builds typed columns from generic row values, as produced
// by the DuckDB and JSONL readers. The column type is chosen from the first
// non-nil value; cells that don't match are treated as missing for numerics
// and rendered for strings.
func columnsFromValues(names []string, rows [][]interface{}) []*dataset.Column {
	n := len(rows)
	cols := make([]*dataset.Column, len(names))

	for ci, name := range names {
		var sample interface{}
		for ri := 0; ri < n && sample == nil; ri++ {
			sample = rows[ri][ci]
		}

		missing := make([]bool, n)
		switch sample.(type) {
		case float64, float32:
			vals := make([]float64, n)
			for ri := 0; ri < n; ri++ {
				switch v := rows[ri][ci].(type) {
				case float64:
					vals[ri] = v
				case float32:
					vals[ri] = float64(v)
				case int64:
					vals[ri] = float64(v)
				default:
					missing[ri] = true
				}
			}
			cols[ci] = &dataset.Column{Name: name, Type: dataset.TypeFloat, Floats: vals, Missing: missing}
		case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
			vals := make([]int64, n)
			floats := false
			for ri := 0; ri < n; ri++ {
				iv, ok := asInt64(rows[ri][ci])
				if !ok {
					if _, isFloat := rows[ri][ci].(float64); isFloat {
						floats = true
					}
					missing[ri] = true
					continue
				}
				vals[ri] = iv
			}
			if floats {
				// Mixed int/float column: widen to float64.
				fvals := make([]float64, n)
				for ri := 0; ri < n; ri++ {
					missing[ri] = false
					switch v := rows[ri][ci].(type) {
					case float64:
						fvals[ri] = v
					default:
						if iv, ok := asInt64(v); ok {
							fvals[ri] = float64(iv)
						} else {
							missing[ri] = true
						}
					}
				}
				cols[ci] = &dataset.Column{Name: name, Type: dataset.TypeFloat, Floats: fvals, Missing: missing}
				continue
			}
			cols[ci] = &dataset.Column{Name: name, Type: dataset.TypeInt, Ints: vals, Missing: missing}
		case bool:
			vals := make([]bool, n)
			for ri := 0; ri < n; ri++ {
				if v, ok := rows[ri][ci].(bool); ok {
					vals[ri] = v
				} else {
					missing[ri] = true
				}
			}
			cols[ci] = &dataset.Column{Name: name, Type: dataset.TypeBool, Bools: vals, Missing: missing}
		case time.Time:
			vals := make([]time.Time, n)
			for ri := 0; ri < n; ri++ {
				if v, ok := rows[ri][ci].(time.Time); ok {
					vals[ri] = v
				} else {
					missing[ri] = true
				}
			}
			cols[ci] = &dataset.Column{Name: name, Type: dataset.TypeTime, Times: vals, Missing: missing}
		default:
			// Strings and anything unexpected; nil cells stay missing.
			raw := make([]string, n)
			for ri := 0; ri < n; ri++ {
				switch v := rows[ri][ci].(type) {
				case nil:
					raw[ri] = ""
				case string:
					raw[ri] = v
				case []byte:
					raw[ri] = string(v)
				default:
					raw[ri] = stringify(v)
				}
			}
			cols[ci] = buildColumn(name, raw)
		}
	}
	return cols
}

func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
