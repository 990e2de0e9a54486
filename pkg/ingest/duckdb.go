package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// loadDuckDB reads a file through an in-memory DuckDB instance. This is the
// optional heavy-weight engine for large inputs; column types come straight
// from DuckDB's own inference.
func loadDuckDB(ctx context.Context, path, ext string) (*dataset.Dataset, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot initialize duckdb engine")
	}
	defer db.Close()

	var source string
	switch ext {
	case ".csv", ".tsv":
		source = fmt.Sprintf("read_csv_auto('%s')", escapeSQL(path))
	case ".parquet":
		source = fmt.Sprintf("read_parquet('%s')", escapeSQL(path))
	case ".jsonl", ".ndjson":
		source = fmt.Sprintf("read_json_auto('%s')", escapeSQL(path))
	default:
		return nil, errors.UnsupportedType(ext)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+source)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "duckdb query failed")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read column names")
	}

	var data [][]interface{}
	for rows.Next() {
		ptrs := make([]interface{}, len(names))
		vals := make([]interface{}, len(names))
		for i := range ptrs {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot scan row")
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "duckdb read failed")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.CodeEmptyDataset, "file holds no records")
	}

	return dataset.New(columnsFromValues(names, data))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
