package ingest

import (
	"github.com/xuri/excelize/v2"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// loadXLSX reads the first sheet of an Excel workbook. The first row is the
// header; cell values arrive as strings from the streaming reader and run
// through the same type inference as delimited inputs.
func loadXLSX(path string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot open xlsx")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New(errors.CodeEmptyDataset, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read rows")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New(errors.CodeEmptyDataset, "sheet is empty")
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read header")
	}
	names := normalizeHeader(header)
	cells := make([][]string, len(names))

	for rows.Next() {
		rec, err := rows.Columns()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "cannot read row")
		}
		for i := range names {
			if i < len(rec) {
				cells[i] = append(cells[i], rec[i])
			} else {
				cells[i] = append(cells[i], "")
			}
		}
	}

	cols := make([]*dataset.Column, len(names))
	for i, name := range names {
		cols[i] = buildColumn(name, cells[i])
	}
	return dataset.New(cols)
}
