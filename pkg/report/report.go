// Package report defines the externally delivered analysis report, its JSON
// sanitization, the Markdown export, and report comparison.
package report

import (
	"math"

	"github.com/datascope/datascope/pkg/packs"
)

// Summary is the narrative overview of a report.
type Summary struct {
	DatasetOverview  string   `json:"dataset_overview"`
	KeyRisks         []string `json:"key_risks"`
	KeyOpportunities []string `json:"key_opportunities"`
}

// Insight is one evidence-backed finding.
type Insight struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	Severity          string                 `json:"severity"`
	Confidence        float64                `json:"confidence"`
	Evidence          map[string]interface{} `json:"evidence"`
	RecommendedAction string                 `json:"recommended_action"`
}

// DataQualityNote flags a data problem and a remedy.
type DataQualityNote struct {
	Issue      string   `json:"issue"`
	Columns    []string `json:"columns"`
	Impact     string   `json:"impact"`
	Suggestion string   `json:"suggestion"`
}

// Report is the terminal artifact of a pipeline run. Charts is always present,
// possibly empty, so renderers never special-case its absence.
type Report struct {
	Summary            Summary                  `json:"summary"`
	Insights           []Insight                `json:"insights"`
	DataQualityNotes   []DataQualityNote        `json:"data_quality_notes"`
	NextSteps          []string                 `json:"next_steps"`
	PackResults        map[string]*packs.Result `json:"pack_results"`
	Charts             []packs.Chart            `json:"charts"`
	ProfilingReportURL string                   `json:"profiling_report_url,omitempty"`
	Errors             []string                 `json:"errors"`
}

// Normalize fills the fields downstream consumers rely on being non-nil.
func (r *Report) Normalize() {
	if r.Insights == nil {
		r.Insights = []Insight{}
	}
	if r.DataQualityNotes == nil {
		r.DataQualityNotes = []DataQualityNote{}
	}
	if r.NextSteps == nil {
		r.NextSteps = []string{}
	}
	if r.Charts == nil {
		r.Charts = []packs.Chart{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Summary.KeyRisks == nil {
		r.Summary.KeyRisks = []string{}
	}
	if r.Summary.KeyOpportunities == nil {
		r.Summary.KeyOpportunities = []string{}
	}
}

// Sanitize rewrites NaN and infinite floats to nil everywhere in the report's
// loose data so encoding/json can marshal it.
func (r *Report) Sanitize() {
	for _, res := range r.PackResults {
		if res == nil {
			continue
		}
		res.Summary = sanitizeMap(res.Summary)
		for i := range res.Charts {
			res.Charts[i].Spec = sanitizeMap(res.Charts[i].Spec)
		}
	}
	for i := range r.Charts {
		r.Charts[i].Spec = sanitizeMap(r.Charts[i].Spec)
	}
	for i := range r.Insights {
		r.Insights[i].Evidence = sanitizeMap(r.Insights[i].Evidence)
		if badFloat(r.Insights[i].Confidence) {
			r.Insights[i].Confidence = 0
		}
	}
}

// SanitizeValue returns v with every NaN or infinite float replaced by nil,
// recursing through the container types the packs emit.
func SanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if badFloat(t) {
			return nil
		}
		return t
	case float32:
		if badFloat(float64(t)) {
			return nil
		}
		return t
	case map[string]interface{}:
		return sanitizeMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = SanitizeValue(e)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sanitizeMap(e)
		}
		return out
	case map[string]float64:
		out := make(map[string]interface{}, len(t))
		for k, f := range t {
			if badFloat(f) {
				out[k] = nil
			} else {
				out[k] = f
			}
		}
		return out
	case map[string]map[string]float64:
		out := make(map[string]interface{}, len(t))
		for k, m := range t {
			out[k] = SanitizeValue(m)
		}
		return out
	default:
		return v
	}
}

func sanitizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = SanitizeValue(v)
	}
	return out
}

func badFloat(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
