package report

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/datascope/datascope/pkg/packs"
)

func TestSanitizeRemovesNaN(t *testing.T) {
	r := &Report{
		PackResults: map[string]*packs.Result{
			"numeric": {
				Summary: map[string]interface{}{
					"basic_stats": map[string]interface{}{
						"value": map[string]interface{}{"mean": 1.5, "std": math.NaN()},
					},
					"spread": math.Inf(1),
				},
				Charts: []packs.Chart{{
					ID: "numeric_corr",
					Spec: map[string]interface{}{
						"data": map[string]interface{}{
							"values": []interface{}{
								map[string]interface{}{"corr": math.NaN()},
							},
						},
					},
				}},
			},
		},
		Insights: []Insight{{
			Confidence: math.NaN(),
			Evidence:   map[string]interface{}{"delta": math.Inf(-1)},
		}},
	}
	r.Normalize()
	r.Sanitize()

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("sanitized report does not marshal: %v", err)
	}
	s := string(raw)
	if strings.Contains(s, "NaN") || strings.Contains(s, "Inf") {
		t.Errorf("marshaled report still contains non-finite floats: %s", s)
	}

	stats := r.PackResults["numeric"].Summary["basic_stats"].(map[string]interface{})
	value := stats["value"].(map[string]interface{})
	if value["std"] != nil {
		t.Errorf("std = %v, want nil", value["std"])
	}
	if value["mean"] != 1.5 {
		t.Errorf("mean = %v, finite values must survive", value["mean"])
	}
	if r.Insights[0].Confidence != 0 {
		t.Errorf("confidence = %v, want 0", r.Insights[0].Confidence)
	}
}

func TestNormalize(t *testing.T) {
	r := &Report{}
	r.Normalize()
	if r.Charts == nil || r.Errors == nil || r.Insights == nil ||
		r.NextSteps == nil || r.DataQualityNotes == nil ||
		r.Summary.KeyRisks == nil || r.Summary.KeyOpportunities == nil {
		t.Error("Normalize left a nil collection")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"charts":[]`) {
		t.Errorf("charts must serialize as an empty array: %s", raw)
	}
}

func TestToMarkdown(t *testing.T) {
	r := &Report{
		Summary: Summary{
			DatasetOverview: "A small sales dataset.",
			KeyRisks:        []string{"10% missing values in value"},
		},
		Insights: []Insight{{
			ID:                "I1",
			Title:             "Sales are concentrated",
			Description:       "One category holds most rows.",
			Severity:          "info",
			Confidence:        0.8,
			RecommendedAction: "Segment by category.",
		}},
		DataQualityNotes: []DataQualityNote{{
			Issue: "Missing values detected", Columns: []string{"value"},
			Impact: "medium", Suggestion: "Consider imputation.",
		}},
		NextSteps: []string{"Collect more data"},
		Charts:    []packs.Chart{{ID: "cat_top_1", Title: "Top categories: category", Pack: "categorical", Priority: 70}},
		Errors:    []string{},
	}
	md := ToMarkdown(r, "sales.csv")

	for _, want := range []string{
		"# sales.csv",
		"A small sales dataset.",
		"## Key Risks",
		"### Sales are concentrated",
		"**Recommended action:** Segment by category.",
		"## Data Quality",
		"- Collect more data",
		"Top categories: category",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Errors") {
		t.Error("empty error list must not render a section")
	}
}

func TestCompare(t *testing.T) {
	a := &Report{
		PackResults: map[string]*packs.Result{
			"snapshot": {Summary: map[string]interface{}{
				"shape":                map[string]interface{}{"rows": 100, "cols": 3},
				"duplicate_rows":       0,
				"missing_by_col_top20": map[string]int{"value": 10, "category": 0},
			}},
		},
		Insights: []Insight{{ID: "I1"}},
		Errors:   []string{"ingest warning"},
	}
	b := &Report{
		PackResults: map[string]*packs.Result{
			"snapshot": {Summary: map[string]interface{}{
				"shape":                map[string]interface{}{"rows": 150, "cols": 4},
				"duplicate_rows":       2,
				"missing_by_col_top20": map[string]int{"value": 5},
			}},
		},
		Insights: []Insight{{ID: "I1"}, {ID: "I2"}},
	}

	c := Compare(a, b, "jan.csv", "feb.csv")
	if c.Mode != "compare" {
		t.Errorf("mode = %q", c.Mode)
	}
	m := c.Comparison.Metrics
	if m["rows"].Diff != 50 || m["cols"].Diff != 1 || m["insights_count"].Diff != 1 {
		t.Errorf("diffs = %+v", m)
	}
	if len(c.Comparison.TopMissingA) != 2 || c.Comparison.TopMissingA[0].Column != "value" {
		t.Errorf("top_missing_a = %+v", c.Comparison.TopMissingA)
	}
	if len(c.Errors) != 1 || c.Errors[0] != "ingest warning" {
		t.Errorf("errors = %v", c.Errors)
	}
	if c.ReportA != a || c.ReportB != b {
		t.Error("source reports must be kept")
	}
}

func TestCompareEmptyReports(t *testing.T) {
	c := Compare(&Report{}, &Report{}, "a", "b")
	if c.Comparison.Metrics["rows"].Diff != 0 {
		t.Errorf("rows diff = %d", c.Comparison.Metrics["rows"].Diff)
	}
	if len(c.Comparison.TopMissingA) != 0 {
		t.Errorf("top_missing_a = %+v", c.Comparison.TopMissingA)
	}
}
