package packs

import (
	"fmt"

	"github.com/datascope/datascope/pkg/dataset"
)

const (
	categoricalMaxCols   = 8
	categoricalTopValues = 10
	categoricalMaxCharts = 2
)

// isIDLikeForCharts is the charting heuristic: a column whose distinct ratio
// reaches 0.9 is treated as an identifier and kept out of bar charts. Looser
// than the profiler's id_like rule on purpose, it has no minimum cardinality.
func isIDLikeForCharts(c *dataset.Column, rows int) bool {
	if rows <= 0 {
		return false
	}
	return float64(c.DistinctCount())/float64(rows) >= 0.90
}

// RunCategorical reports top-value frequencies for up to 8 categorical
// columns and charts the two best non-identifier columns.
func RunCategorical(ds *dataset.Dataset, categoricalCols []string) *Result {
	if len(categoricalCols) == 0 {
		return skipResult("No categorical columns.")
	}
	rows := ds.RowCount()

	perCol := make(map[string]interface{})
	insights := []interface{}{}
	var usedCols []string
	for _, name := range categoricalCols {
		if len(usedCols) >= categoricalMaxCols {
			break
		}
		col := ds.Column(name)
		if col == nil {
			continue
		}
		counts := col.ValueCounts()
		top := make(map[string]int)
		for i, vc := range counts {
			if i >= categoricalTopValues {
				break
			}
			top[vc.Value] = vc.Count
		}
		nUnique := col.DistinctCount()
		perCol[name] = map[string]interface{}{
			"top_values": top,
			"n_unique":   nUnique,
		}
		usedCols = append(usedCols, name)

		if isIDLikeForCharts(col, rows) {
			insights = append(insights, map[string]interface{}{
				"severity":       "info",
				"title":          fmt.Sprintf("Column '%s' looks like an identifier", name),
				"evidence":       fmt.Sprintf("Unique ratio ~ %d/%d", nUnique, rows),
				"recommendation": "Exclude from categorical distribution charts and most modeling features.",
			})
		}
	}

	var chartCols []string
	for _, name := range usedCols {
		if !isIDLikeForCharts(ds.Column(name), rows) {
			chartCols = append(chartCols, name)
		}
		if len(chartCols) >= categoricalMaxCharts {
			break
		}
	}

	charts := []Chart{}
	for idx, name := range chartCols {
		counts := ds.Column(name).ValueCounts()
		if len(counts) > categoricalTopValues {
			counts = counts[:categoricalTopValues]
		}
		total := 0
		for _, vc := range counts {
			total += vc.Count
		}
		values := make([]interface{}, 0, len(counts))
		for _, vc := range counts {
			pct := 0.0
			if total > 0 {
				pct = float64(vc.Count) / float64(total) * 100.0
			}
			values = append(values, map[string]interface{}{
				"value": vc.Value,
				"count": vc.Count,
				"pct":   pct,
			})
		}
		spec := map[string]interface{}{
			"$schema":     vegaSchema,
			"description": fmt.Sprintf("Top values for %s", name),
			"data":        map[string]interface{}{"values": values},
			"mark":        map[string]interface{}{"type": "bar", "color": "#4f46e5"},
			"encoding": map[string]interface{}{
				"x": map[string]interface{}{"field": "value", "type": "nominal", "sort": "-y", "title": name},
				"y": map[string]interface{}{"field": "count", "type": "quantitative", "title": "Count"},
				"tooltip": []interface{}{
					map[string]interface{}{"field": "value", "type": "nominal"},
					map[string]interface{}{"field": "count", "type": "quantitative"},
					map[string]interface{}{"field": "pct", "type": "quantitative", "format": ".2f", "title": "Percent (%)"},
				},
			},
		}
		charts = append(charts, Chart{
			ID:       fmt.Sprintf("cat_top_%d", idx+1),
			Title:    fmt.Sprintf("Top categories: %s", name),
			Spec:     spec,
			Priority: 70 - idx*5,
			Tags:     []string{"categorical", "distribution"},
		})
	}

	if len(charts) == 0 {
		insights = append(insights, map[string]interface{}{
			"severity":       "info",
			"title":          "No categorical charts rendered",
			"evidence":       "All candidate columns look like identifiers or have no values.",
			"recommendation": "Check categorical role detection or allow 'top N + Other' for high-cardinality columns.",
		})
	}

	summary := map[string]interface{}{
		"n_cols":       len(usedCols),
		"cols_used":    usedCols,
		"categoricals": perCol,
		"insights":     insights,
	}
	return &Result{Summary: summary, Charts: charts}
}
