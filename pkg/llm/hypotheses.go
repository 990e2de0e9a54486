package llm

import (
	"context"
	"encoding/json"

	"github.com/datascope/datascope/pkg/hypothesis"
	"github.com/datascope/datascope/pkg/packs"
	"github.com/datascope/datascope/pkg/profile"
)

const maxHypotheses = 8

// ProposeHypotheses asks the reasoning service for candidate hypotheses about
// the dataset. Fail-silent: any request or parse failure yields an empty list,
// never an error, since later stages tolerate zero hypotheses.
func ProposeHypotheses(ctx context.Context, client Client, schema *profile.Schema, prof *profile.Profile, packResults map[string]*packs.Result) []hypothesis.Hypothesis {
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]interface{}{
		"schema":       schema,
		"profile":      profilePayload(prof),
		"pack_results": packResultsPayload(packResults),
	})
	if err != nil {
		return nil
	}
	raw, err := client.Complete(ctx, hypothesisSystem, string(payload))
	if err != nil {
		return nil
	}
	var out []hypothesis.Hypothesis
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil
	}
	if len(out) > maxHypotheses {
		out = out[:maxHypotheses]
	}
	return out
}
