package report

import (
	"sort"
)

// MetricDelta compares one metric across two reports.
type MetricDelta struct {
	A    interface{} `json:"a"`
	B    interface{} `json:"b"`
	Diff int         `json:"diff"`
}

// MissingEntry is one column's missing count, ordered for stable output.
type MissingEntry struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// ComparisonSummary holds the metric deltas between two reports.
type ComparisonSummary struct {
	DatasetA    string                 `json:"dataset_a"`
	DatasetB    string                 `json:"dataset_b"`
	Metrics     map[string]MetricDelta `json:"metrics"`
	TopMissingA []MissingEntry         `json:"top_missing_a"`
	TopMissingB []MissingEntry         `json:"top_missing_b"`
}

// Comparison is the full comparison artifact; both source reports are kept so
// callers can render them side by side.
type Comparison struct {
	Mode       string             `json:"mode"`
	Comparison *ComparisonSummary `json:"comparison"`
	ReportA    *Report            `json:"report_a"`
	ReportB    *Report            `json:"report_b"`
	Errors     []string           `json:"errors"`
}

// Compare diffs two completed reports on their snapshot metrics and insight
// counts.
func Compare(a, b *Report, nameA, nameB string) *Comparison {
	snapA := snapshotSummary(a)
	snapB := snapshotSummary(b)

	rowsA, colsA := shapeOf(snapA)
	rowsB, colsB := shapeOf(snapB)

	metrics := map[string]MetricDelta{
		"rows":           {A: rowsA, B: rowsB, Diff: rowsB - rowsA},
		"cols":           {A: colsA, B: colsB, Diff: colsB - colsA},
		"duplicate_rows": {A: snapA["duplicate_rows"], B: snapB["duplicate_rows"]},
		"insights_count": {A: len(a.Insights), B: len(b.Insights), Diff: len(b.Insights) - len(a.Insights)},
	}

	errs := append([]string{}, a.Errors...)
	errs = append(errs, b.Errors...)

	return &Comparison{
		Mode: "compare",
		Comparison: &ComparisonSummary{
			DatasetA:    nameA,
			DatasetB:    nameB,
			Metrics:     metrics,
			TopMissingA: topMissing(snapA, 10),
			TopMissingB: topMissing(snapB, 10),
		},
		ReportA: a,
		ReportB: b,
		Errors:  errs,
	}
}

func snapshotSummary(r *Report) map[string]interface{} {
	if r == nil || r.PackResults == nil {
		return map[string]interface{}{}
	}
	snap, ok := r.PackResults["snapshot"]
	if !ok || snap == nil || snap.Summary == nil {
		return map[string]interface{}{}
	}
	return snap.Summary
}

func shapeOf(snap map[string]interface{}) (rows, cols int) {
	shape, ok := snap["shape"].(map[string]interface{})
	if !ok {
		return 0, 0
	}
	return asInt(shape["rows"]), asInt(shape["cols"])
}

func topMissing(snap map[string]interface{}, k int) []MissingEntry {
	var entries []MissingEntry
	switch m := snap["missing_by_col_top20"].(type) {
	case map[string]int:
		for col, v := range m {
			entries = append(entries, MissingEntry{col, v})
		}
	case map[string]interface{}:
		for col, v := range m {
			entries = append(entries, MissingEntry{col, asInt(v)})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Missing != entries[j].Missing {
			return entries[i].Missing > entries[j].Missing
		}
		return entries[i].Column < entries[j].Column
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}
