package pipeline

import (
	"github.com/datascope/datascope/pkg/hypothesis"
	"github.com/datascope/datascope/pkg/packs"
	"github.com/datascope/datascope/pkg/plan"
	"github.com/datascope/datascope/pkg/profile"
	"github.com/datascope/datascope/pkg/report"
)

// RunState is the single mutable record threaded through the pipeline. Each
// stage populates its own fields and never rewrites earlier ones; Errors only
// grows.
type RunState struct {
	FilePath string
	FileName string

	DatasetID string
	Schema    *profile.Schema

	Profile     *profile.Profile
	DatasetType string

	ProfilingReportPath string
	ProfilingReportURL  string

	Plan *plan.Plan

	PackResults map[string]*packs.Result
	PackOrder   []string
	Charts      []packs.Chart

	Hypotheses []hypothesis.Hypothesis
	Verified   []hypothesis.Verified

	Report *report.Report

	Errors []string
}

func (s *RunState) addError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// roles returns the classified roles, or an empty set when profiling failed,
// so later stages degrade instead of dereferencing nil.
func (s *RunState) roles() *profile.Roles {
	if s.Profile != nil && s.Profile.Roles != nil {
		return s.Profile.Roles
	}
	return &profile.Roles{}
}
