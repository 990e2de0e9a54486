// Package dataset provides the in-memory columnar dataset model and the
// process-wide dataset registry used by the analysis pipeline.
package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Type identifies the storage type of a column.
type Type int

const (
	TypeFloat Type = iota
	TypeInt
	TypeBool
	TypeString
	TypeTime
)

// String returns the dtype name reported in schemas.
func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float64"
	case TypeInt:
		return "int64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeTime:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column holds one named column. Exactly one of the value slices is populated,
// matching Type; Missing marks null cells and always has the column length.
type Column struct {
	Name string
	Type Type

	Floats  []float64
	Ints    []int64
	Bools   []bool
	Strings []string
	Times   []time.Time

	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Missing)
}

// IsNumeric reports whether the column stores int64 or float64 values.
func (c *Column) IsNumeric() bool {
	return c.Type == TypeFloat || c.Type == TypeInt
}

// IsMissing reports whether the cell at row i is null.
func (c *Column) IsMissing(i int) bool {
	return c.Missing[i]
}

// MissingCount returns the number of null cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Float64 returns the numeric value at row i. ok is false for null cells and
// for non-numeric columns.
func (c *Column) Float64(i int) (float64, bool) {
	if c.Missing[i] {
		return 0, false
	}
	switch c.Type {
	case TypeFloat:
		return c.Floats[i], true
	case TypeInt:
		return float64(c.Ints[i]), true
	default:
		return 0, false
	}
}

// Time returns the timestamp at row i for TypeTime columns.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Type != TypeTime || c.Missing[i] {
		return time.Time{}, false
	}
	return c.Times[i], true
}

// Value returns the cell at row i as a generic value, or nil for null cells.
func (c *Column) Value(i int) interface{} {
	if c.Missing[i] {
		return nil
	}
	switch c.Type {
	case TypeFloat:
		return c.Floats[i]
	case TypeInt:
		return c.Ints[i]
	case TypeBool:
		return c.Bools[i]
	case TypeString:
		return c.Strings[i]
	case TypeTime:
		return c.Times[i]
	default:
		return nil
	}
}

// Render returns the cell at row i formatted as a string, with ok=false for
// null cells. Used for distinct counting and categorical frequencies.
func (c *Column) Render(i int) (string, bool) {
	if c.Missing[i] {
		return "", false
	}
	switch c.Type {
	case TypeFloat:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", c.Floats[i]), "0"), "."), true
	case TypeInt:
		return fmt.Sprintf("%d", c.Ints[i]), true
	case TypeBool:
		return fmt.Sprintf("%t", c.Bools[i]), true
	case TypeString:
		return c.Strings[i], true
	case TypeTime:
		return c.Times[i].Format(time.RFC3339), true
	default:
		return "", false
	}
}

// DistinctCount returns the number of distinct non-null values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Render(i); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the frequency table of non-null values, ordered by
// count descending with ties broken by first occurrence.
func (c *Column) ValueCounts() []ValueCount {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Render(i)
		if !ok {
			continue
		}
		if _, seen := counts[v]; !seen {
			order[v] = next
			next++
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return order[out[i].Value] < order[out[j].Value]
	})
	return out
}

// Dataset is an immutable set of equally sized named columns.
type Dataset struct {
	cols   []*Column
	byName map[string]*Column
	rows   int
}

// New builds a Dataset, validating that column names are unique and all
// columns have the same length.
func New(cols []*Column) (*Dataset, error) {
	d := &Dataset{byName: make(map[string]*Column, len(cols))}
	for _, c := range cols {
		if _, dup := d.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if len(d.cols) > 0 && c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), d.rows)
		}
		d.rows = c.Len()
		d.cols = append(d.cols, c)
		d.byName[c.Name] = c
	}
	return d, nil
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	return d.rows
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.cols)
}

// Columns returns the columns in their original order.
func (d *Dataset) Columns() []*Column {
	return d.cols
}

// Column looks a column up by name, returning nil when absent.
func (d *Dataset) Column(name string) *Column {
	return d.byName[name]
}

// ColumnNames returns column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// DuplicateRowCount counts rows that are exact duplicates of an earlier row.
func (d *Dataset) DuplicateRowCount() int {
	if len(d.cols) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, d.rows)
	dups := 0
	var sb strings.Builder
	for i := 0; i < d.rows; i++ {
		sb.Reset()
		for _, c := range d.cols {
			if v, ok := c.Render(i); ok {
				sb.WriteString(v)
			} else {
				sb.WriteString("\x00null")
			}
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			dups++
		} else {
			seen[key] = struct{}{}
		}
	}
	return dups
}

// SampleRows returns up to n leading rows as generic records.
func (d *Dataset) SampleRows(n int) []map[string]interface{} {
	if n > d.rows {
		n = d.rows
	}
	out := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		row := make(map[string]interface{}, len(d.cols))
		for _, c := range d.cols {
			row[c.Name] = c.Value(i)
		}
		out = append(out, row)
	}
	return out
}
