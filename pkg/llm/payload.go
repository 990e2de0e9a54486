package llm

import (
	"github.com/datascope/datascope/pkg/packs"
	"github.com/datascope/datascope/pkg/profile"
	"github.com/datascope/datascope/pkg/report"
)

// profilePayload rebuilds the profile with non-finite floats removed so it
// survives JSON marshaling.
func profilePayload(prof *profile.Profile) map[string]interface{} {
	if prof == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"roles":            prof.Roles,
		"missing_total":    prof.MissingTotal,
		"duplicates":       prof.Duplicates,
		"top_categoricals": prof.TopCategoricals,
		"numeric_summary":  report.SanitizeValue(prof.NumericSummary),
	}
}

// packResultsPayload keeps each pack's summary and skip reason. Chart specs
// stay out of prompts: they carry raw data values and add nothing the
// summaries do not already state.
func packResultsPayload(results map[string]*packs.Result) map[string]interface{} {
	out := make(map[string]interface{}, len(results))
	for name, res := range results {
		if res == nil {
			continue
		}
		entry := map[string]interface{}{
			"summary":  report.SanitizeValue(res.Summary),
			"n_charts": len(res.Charts),
		}
		if res.Skipped != "" {
			entry["skipped"] = res.Skipped
		}
		out[name] = entry
	}
	return out
}
