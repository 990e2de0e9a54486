// Package ingest loads uploaded tabular files into in-memory datasets.
// Supported formats: CSV/TSV, XLSX, Parquet, and JSON Lines.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// Engine selects the ingestion implementation.
const (
	EngineNative = "native"
	EngineDuckDB = "duckdb"
)

// Loader reads files into datasets. The zero value uses the native engine.
type Loader struct {
	Engine string
}

// NewLoader creates a loader for the given engine ("native" or "duckdb").
func NewLoader(engine string) *Loader {
	if engine == "" {
		engine = EngineNative
	}
	return &Loader{Engine: engine}
}

// Load reads a file into a dataset, dispatching on the file extension.
// Column names are normalized and auto-generated index columns are dropped.
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path)
		}
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot stat input file")
	}

	ext := strings.ToLower(filepath.Ext(path))

	if l.Engine == EngineDuckDB {
		switch ext {
		case ".csv", ".tsv", ".parquet", ".jsonl", ".ndjson":
			ds, err := loadDuckDB(ctx, path, ext)
			if err != nil {
				return nil, err
			}
			return postprocess(ds)
		}
		// XLSX has no DuckDB reader; fall through to native.
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	switch ext {
	case ".csv":
		ds, err = loadCSV(path, ',')
	case ".tsv":
		ds, err = loadCSV(path, '\t')
	case ".xlsx", ".xls":
		ds, err = loadXLSX(path)
	case ".parquet":
		ds, err = loadParquet(ctx, path)
	case ".jsonl", ".ndjson":
		ds, err = loadJSONL(path)
	default:
		return nil, errors.UnsupportedType(ext)
	}
	if err != nil {
		return nil, err
	}
	return postprocess(ds)
}

// SupportedExt reports whether the loader accepts the file extension.
func SupportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".tsv", ".xlsx", ".xls", ".parquet", ".jsonl", ".ndjson":
		return true
	}
	return false
}

// postprocess normalizes common upload issues: drops auto-generated index
// columns ("unnamed:" prefix, case-insensitive) before handing the dataset on.
func postprocess(ds *dataset.Dataset) (*dataset.Dataset, error) {
	kept := make([]*dataset.Column, 0, ds.ColumnCount())
	for _, c := range ds.Columns() {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if strings.HasPrefix(name, "unnamed:") {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == ds.ColumnCount() {
		return ds, nil
	}
	return dataset.New(kept)
}
