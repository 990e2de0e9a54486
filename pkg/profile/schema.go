// Package profile derives schemas, column roles, and dataset profiles from
// in-memory datasets. All derivations are pure functions of the dataset.
package profile

import (
	"github.com/datascope/datascope/pkg/dataset"
)

// ColumnSchema describes one column.
type ColumnSchema struct {
	Name          string `json:"name"`
	Dtype         string `json:"dtype"`
	MissingCount  int    `json:"missing_count"`
	DistinctCount int    `json:"distinct_count"`
}

// Schema is the structural description of a dataset.
type Schema struct {
	RowCount int            `json:"row_count"`
	ColCount int            `json:"col_count"`
	Columns  []ColumnSchema `json:"columns"`
}

// InferSchema derives the schema. It is total: it never fails for a
// structurally valid dataset and calling it twice yields the same result.
func InferSchema(ds *dataset.Dataset) *Schema {
	s := &Schema{
		RowCount: ds.RowCount(),
		ColCount: ds.ColumnCount(),
		Columns:  make([]ColumnSchema, 0, ds.ColumnCount()),
	}
	for _, c := range ds.Columns() {
		s.Columns = append(s.Columns, ColumnSchema{
			Name:          c.Name,
			Dtype:         c.Type.String(),
			MissingCount:  c.MissingCount(),
			DistinctCount: c.DistinctCount(),
		})
	}
	return s
}
