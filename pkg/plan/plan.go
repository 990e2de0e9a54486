// Package plan defines the analysis plan model, its validation rules, and the
// deterministic fallback used when the planning service cannot be trusted.
package plan

import (
	"fmt"

	"github.com/datascope/datascope/pkg/profile"
)

// MaxSteps bounds the number of steps a planner may request. The numeric
// injection in EnsureNumeric deliberately ignores this bound.
const MaxSteps = 3

// KnownPacks lists the packs a plan step may reference.
var KnownPacks = map[string]bool{
	"snapshot":    true,
	"categorical": true,
	"numeric":     true,
	"timeseries":  true,
}

var validDatasetTypes = map[string]bool{
	"tabular":    true,
	"timeseries": true,
	"unknown":    true,
}

// Step is one pack invocation in a plan.
type Step struct {
	Pack   string                 `json:"pack"`
	Why    string                 `json:"why"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Plan is the ordered set of packs selected for a run. Immutable once built.
type Plan struct {
	DatasetType string `json:"dataset_type"`
	Steps       []Step `json:"steps"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks a plan against the planner contract: a known dataset type,
// between 1 and MaxSteps steps, every step naming a known pack, and snapshot
// present.
func (p *Plan) Validate() error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}
	if !validDatasetTypes[p.DatasetType] {
		return fmt.Errorf("invalid dataset_type %q", p.DatasetType)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	if len(p.Steps) > MaxSteps {
		return fmt.Errorf("plan has %d steps, max %d", len(p.Steps), MaxSteps)
	}
	hasSnapshot := false
	for i, s := range p.Steps {
		if !KnownPacks[s.Pack] {
			return fmt.Errorf("step %d references unknown pack %q", i, s.Pack)
		}
		if s.Pack == "snapshot" {
			hasSnapshot = true
		}
	}
	if !hasSnapshot {
		return fmt.Errorf("plan is missing the snapshot step")
	}
	return nil
}

// HasPack reports whether any step requests the named pack.
func (p *Plan) HasPack(name string) bool {
	for _, s := range p.Steps {
		if s.Pack == name {
			return true
		}
	}
	return false
}

// Fallback builds the deterministic plan used when the planning service
// produced no usable output.
func Fallback(roles *profile.Roles) *Plan {
	steps := []Step{{Pack: "snapshot", Why: "Baseline dataset overview."}}
	if len(roles.Categorical) > 0 {
		steps = append(steps, Step{Pack: "categorical", Why: "Categorical distribution overview."})
	}
	if len(roles.Datetime) > 0 {
		steps = append(steps, Step{Pack: "timeseries", Why: "Datetime + numeric indicates time trend analysis."})
	}
	if len(steps) > MaxSteps {
		steps = steps[:MaxSteps]
	}
	dtype := "tabular"
	if len(roles.Datetime) > 0 {
		dtype = "timeseries"
	}
	return &Plan{DatasetType: dtype, Steps: steps, Notes: "Fallback plan."}
}

// EnsureNumeric appends a numeric step when numeric columns exist and no step
// already requests one. Runs after planning regardless of which path produced
// the plan, so numeric analysis never depends on the external service.
func EnsureNumeric(p *Plan, roles *profile.Roles) *Plan {
	if len(roles.Numeric) == 0 || p.HasPack("numeric") {
		return p
	}
	out := *p
	out.Steps = append(append([]Step{}, p.Steps...), Step{
		Pack: "numeric",
		Why:  "Numeric columns detected; show distributions and correlations.",
	})
	return &out
}
