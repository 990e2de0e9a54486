package llm

import (
	"context"
	"encoding/json"

	"github.com/datascope/datascope/pkg/hypothesis"
	"github.com/datascope/datascope/pkg/packs"
	"github.com/datascope/datascope/pkg/profile"
	"github.com/datascope/datascope/pkg/report"
)

// NarrateInput carries everything the narrator may cite.
type NarrateInput struct {
	FileName           string
	Schema             *profile.Schema
	Profile            *profile.Profile
	ProfilingReportURL string
	Plan               interface{}
	PackResults        map[string]*packs.Result
	Verified           []hypothesis.Verified
	Errors             []string
}

// Narrate asks the reasoning service for the narrative report sections.
// Malformed output degrades to a report whose overview is the raw text;
// a failed request degrades to an empty narrative. Deterministic artifacts
// are attached by the caller, not here.
func Narrate(ctx context.Context, client Client, in NarrateInput) *report.Report {
	r := &report.Report{}
	raw := requestNarration(ctx, client, in)
	if raw == "" {
		r.Normalize()
		return r
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), r); err != nil {
		r = &report.Report{}
		r.Summary.DatasetOverview = raw
	}
	r.Normalize()
	return r
}

func requestNarration(ctx context.Context, client Client, in NarrateInput) string {
	if client == nil {
		return ""
	}
	payload, err := json.Marshal(map[string]interface{}{
		"file_name":            in.FileName,
		"schema":               in.Schema,
		"profile":              profilePayload(in.Profile),
		"profiling_report_url": in.ProfilingReportURL,
		"plan":                 in.Plan,
		"pack_results":         packResultsPayload(in.PackResults),
		"verified_hypotheses":  in.Verified,
		"errors":               in.Errors,
	})
	if err != nil {
		return ""
	}
	raw, err := client.Complete(ctx, narratorSystem, string(payload))
	if err != nil {
		return ""
	}
	return raw
}
