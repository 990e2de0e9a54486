package packs

import (
	"sort"

	"github.com/datascope/datascope/pkg/dataset"
)

const missingTopN = 20

// RunSnapshot builds the data quality overview: shape, duplicate rows, a small
// row sample, and the top missing-value columns. It charts missingness only
// when missing values actually exist.
func RunSnapshot(ds *dataset.Dataset) *Result {
	rows := ds.RowCount()
	summary := map[string]interface{}{
		"shape":          map[string]interface{}{"rows": rows, "cols": ds.ColumnCount()},
		"duplicate_rows": ds.DuplicateRowCount(),
		"sample_rows":    ds.SampleRows(5),
	}

	type missingEntry struct {
		column  string
		missing int
	}
	entries := make([]missingEntry, 0, ds.ColumnCount())
	for _, c := range ds.Columns() {
		entries = append(entries, missingEntry{c.Name, c.MissingCount()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].missing > entries[j].missing
	})
	if len(entries) > missingTopN {
		entries = entries[:missingTopN]
	}

	byCol := make(map[string]int, len(entries))
	totalMissing := 0
	values := make([]interface{}, 0, len(entries))
	denom := rows
	if denom < 1 {
		denom = 1
	}
	for _, e := range entries {
		byCol[e.column] = e.missing
		totalMissing += e.missing
		values = append(values, map[string]interface{}{
			"column":  e.column,
			"missing": e.missing,
			"percent": float64(e.missing) / float64(denom) * 100.0,
		})
	}
	summary["missing_by_col_top20"] = byCol

	if totalMissing == 0 {
		return &Result{Summary: summary, Charts: []Chart{}, Skipped: "No missing values."}
	}

	countSpec := map[string]interface{}{
		"$schema":     vegaSchema,
		"description": "Top missing values by column (count)",
		"data":        map[string]interface{}{"values": values},
		"mark":        map[string]interface{}{"type": "bar"},
		"encoding": map[string]interface{}{
			"y": map[string]interface{}{"field": "column", "type": "nominal", "sort": "-x", "title": "Column"},
			"x": map[string]interface{}{"field": "missing", "type": "quantitative", "title": "Missing count"},
			"tooltip": []interface{}{
				map[string]interface{}{"field": "column", "type": "nominal"},
				map[string]interface{}{"field": "missing", "type": "quantitative"},
				map[string]interface{}{"field": "percent", "type": "quantitative", "format": ".2f", "title": "Missing %"},
			},
		},
	}
	percentSpec := map[string]interface{}{
		"$schema":     vegaSchema,
		"description": "Top missing values by column (percent)",
		"data":        map[string]interface{}{"values": values},
		"mark":        map[string]interface{}{"type": "bar"},
		"encoding": map[string]interface{}{
			"y": map[string]interface{}{"field": "column", "type": "nominal", "sort": "-x", "title": "Column"},
			"x": map[string]interface{}{"field": "percent", "type": "quantitative", "title": "Missing %"},
			"tooltip": []interface{}{
				map[string]interface{}{"field": "column", "type": "nominal"},
				map[string]interface{}{"field": "missing", "type": "quantitative", "title": "Missing count"},
				map[string]interface{}{"field": "percent", "type": "quantitative", "format": ".2f", "title": "Missing %"},
			},
		},
	}

	charts := []Chart{
		{ID: "missing_count", Title: "Missing values (Top 20) - Count", Spec: countSpec, Priority: 95, Tags: []string{"quality", "snapshot"}},
		{ID: "missing_percent", Title: "Missing values (Top 20) - Percent", Spec: percentSpec, Priority: 95, Tags: []string{"quality", "snapshot"}},
	}
	return &Result{Summary: summary, Charts: charts}
}
