package ingest

import (
	"context"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// loadParquet reads a Parquet file through the Arrow reader and converts the
// resulting table column-by-column into a Dataset.
func loadParquet(ctx context.Context, path string) (*dataset.Dataset, error) {
	pqReader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot open parquet file")
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 64 * 1024,
	}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot create arrow reader")
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read parquet table")
	}
	defer table.Release()

	n := int(table.NumRows())
	cols := make([]*dataset.Column, 0, table.NumCols())
	for ci := 0; ci < int(table.NumCols()); ci++ {
		name := table.Schema().Field(ci).Name
		col, err := columnFromChunked(name, n, table.Column(ci).Data())
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return dataset.New(cols)
}

// columnFromChunked flattens a chunked Arrow column into one typed column.
// Unhandled Arrow types are rendered as strings.
func columnFromChunked(name string, rows int, chunked *arrow.Chunked) (*dataset.Column, error) {
	values := make([]interface{}, 0, rows)

	for _, chunk := range chunked.Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				values = append(values, nil)
				continue
			}
			switch arr := chunk.(type) {
			case *array.Int8:
				values = append(values, int64(arr.Value(i)))
			case *array.Int16:
				values = append(values, int64(arr.Value(i)))
			case *array.Int32:
				values = append(values, int64(arr.Value(i)))
			case *array.Int64:
				values = append(values, arr.Value(i))
			case *array.Uint8:
				values = append(values, int64(arr.Value(i)))
			case *array.Uint16:
				values = append(values, int64(arr.Value(i)))
			case *array.Uint32:
				values = append(values, int64(arr.Value(i)))
			case *array.Uint64:
				values = append(values, int64(arr.Value(i)))
			case *array.Float32:
				values = append(values, float64(arr.Value(i)))
			case *array.Float64:
				values = append(values, arr.Value(i))
			case *array.Boolean:
				values = append(values, arr.Value(i))
			case *array.String:
				values = append(values, arr.Value(i))
			case *array.LargeString:
				values = append(values, arr.Value(i))
			case *array.Timestamp:
				unit := arr.DataType().(*arrow.TimestampType).Unit
				values = append(values, arr.Value(i).ToTime(unit))
			case *array.Date32:
				values = append(values, arr.Value(i).ToTime())
			case *array.Date64:
				values = append(values, arr.Value(i).ToTime())
			default:
				values = append(values, chunk.ValueStr(i))
			}
		}
	}

	rowsOut := make([][]interface{}, len(values))
	for i, v := range values {
		rowsOut[i] = []interface{}{v}
	}
	cols := columnsFromValues([]string{name}, rowsOut)
	return cols[0], nil
}
