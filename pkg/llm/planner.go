package llm

import (
	"context"
	"encoding/json"

	"github.com/datascope/datascope/pkg/plan"
	"github.com/datascope/datascope/pkg/profile"
)

// BuildPlan asks the planning service for an analysis plan and validates its
// output. Any request, parse, or validation failure falls back to the
// deterministic plan. Either way the numeric step is guaranteed afterward.
func BuildPlan(ctx context.Context, client Client, schema *profile.Schema, prof *profile.Profile) *plan.Plan {
	p := requestPlan(ctx, client, schema, prof)
	if p == nil {
		p = plan.Fallback(prof.Roles)
	}
	return plan.EnsureNumeric(p, prof.Roles)
}

func requestPlan(ctx context.Context, client Client, schema *profile.Schema, prof *profile.Profile) *plan.Plan {
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]interface{}{
		"schema":  schema,
		"profile": profilePayload(prof),
	})
	if err != nil {
		return nil
	}
	raw, err := client.Complete(ctx, plannerSystem, string(payload))
	if err != nil {
		return nil
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &p); err != nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return nil
	}
	return &p
}
