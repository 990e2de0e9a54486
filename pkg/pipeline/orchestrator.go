// Package pipeline runs the analysis pipeline: a strict linear state machine
// from file ingestion to the final report. Runs never hard-abort; every stage
// records its failures in the run state and the pipeline always reaches a
// terminal report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/hypothesis"
	"github.com/datascope/datascope/pkg/ingest"
	"github.com/datascope/datascope/pkg/llm"
	"github.com/datascope/datascope/pkg/packs"
	"github.com/datascope/datascope/pkg/profile"
	"github.com/datascope/datascope/pkg/report"
)

// Pipeline wires the collaborators a run needs. LLM and Tracer may be nil:
// a nil LLM means every reasoning stage uses its deterministic fallback.
type Pipeline struct {
	Store      *dataset.Store
	Loader     *ingest.Loader
	LLM        llm.Client
	ReportsDir string
	Logger     *zap.Logger
	Tracer     trace.Tracer
}

type stage struct {
	name     string
	startMsg string
	doneMsg  string
	run      func(ctx context.Context, s *RunState, emit EmitFunc)
}

// Run executes all stages in order and returns the terminal report. The
// returned report is always non-nil, possibly minimal when ingestion failed.
func (p *Pipeline) Run(ctx context.Context, filePath, fileName string, emitFn EmitFunc) *report.Report {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	state := &RunState{FilePath: filePath, FileName: fileName}

	stages := []stage{
		{"ingest", "Loading file + schema", "Ingested", p.stageIngest},
		{"profile", "Profiling columns + roles", "Profiled", p.stageProfile},
		{"profile_report", "Generating profiling report", "Profiling report saved", p.stageProfileReport},
		{"plan", "Planning analysis packs", "Plan created", p.stagePlan},
		{"run_packs", "Running analysis packs", "Packs complete", p.stageRunPacks},
		{"hypotheses", "Generating testable hypotheses", "Hypotheses created", p.stageHypotheses},
		{"verify", "Verifying hypotheses against data", "Verification complete", p.stageVerify},
		{"narrate", "Writing final report", "Report generated", p.stageNarrate},
	}
	total := len(stages)

	emit(emitFn, Event{
		Type: EventMeta, Status: "started",
		Detail:      fmt.Sprintf("Job started for %s", fileName),
		ProgressPct: pctPtr(0),
	})

	for i, st := range stages {
		start := time.Now()
		emit(emitFn, Event{
			Type: EventStep, Step: st.name, Status: "running",
			Detail:      st.startMsg,
			ProgressPct: pctPtr(i * 100 / total),
		})
		logger.Info("stage running", zap.String("stage", st.name), zap.String("file", fileName))

		stageCtx := ctx
		var span trace.Span
		if p.Tracer != nil {
			stageCtx, span = p.Tracer.Start(ctx, "pipeline."+st.name,
				trace.WithAttributes(attribute.String("file_name", fileName)))
		}
		st.run(stageCtx, state, emitFn)
		if span != nil {
			span.End()
		}

		emit(emitFn, Event{
			Type: EventStep, Step: st.name, Status: "done",
			Detail:      st.doneMsg,
			ProgressPct: pctPtr((i + 1) * 100 / total),
			DurationMs:  durPtr(time.Since(start)),
		})
		logger.Info("stage done",
			zap.String("stage", st.name),
			zap.Duration("took", time.Since(start)),
			zap.Int("errors", len(state.Errors)))
	}

	emit(emitFn, Event{
		Type: EventMeta, Status: "finished",
		Detail:      "Job finished",
		ProgressPct: pctPtr(100),
	})

	if state.DatasetID != "" {
		p.Store.Release(state.DatasetID)
	}

	r := state.Report
	if r == nil {
		r = &report.Report{}
		r.Summary.DatasetOverview = "No report generated."
	}
	r.Errors = append([]string{}, state.Errors...)
	r.Normalize()
	r.Sanitize()
	return r
}

func (p *Pipeline) stageIngest(ctx context.Context, s *RunState, _ EmitFunc) {
	ds, err := p.Loader.Load(ctx, s.FilePath)
	if err != nil {
		s.addError(fmt.Sprintf("ingest_error: %v", err))
		return
	}
	s.DatasetID = p.Store.Put(ds)
	s.Schema = profile.InferSchema(ds)
}

func (p *Pipeline) stageProfile(_ context.Context, s *RunState, _ EmitFunc) {
	ds, ok := p.Store.Get(s.DatasetID)
	if !ok {
		s.addError("profile_error: missing dataset")
		return
	}
	s.Profile = profile.BasicProfile(ds)
	s.DatasetType = profile.InferDatasetType(s.Profile.Roles)
}

func (p *Pipeline) stageProfileReport(_ context.Context, s *RunState, _ EmitFunc) {
	ds, ok := p.Store.Get(s.DatasetID)
	if !ok || s.Profile == nil {
		s.addError("profiling_error: missing dataset or profile")
		return
	}
	res, err := profile.WriteHTMLReport(ds, s.Profile, s.FileName, p.ReportsDir)
	if err != nil {
		s.addError(fmt.Sprintf("profiling_error: %v", err))
		return
	}
	s.ProfilingReportPath = res.Path
	s.ProfilingReportURL = res.URL
}

func (p *Pipeline) stagePlan(ctx context.Context, s *RunState, _ EmitFunc) {
	prof := s.Profile
	if prof == nil {
		prof = &profile.Profile{Roles: &profile.Roles{}}
	}
	s.Plan = llm.BuildPlan(ctx, p.LLM, s.Schema, prof)
}

func (p *Pipeline) stageRunPacks(_ context.Context, s *RunState, emitFn EmitFunc) {
	ds, ok := p.Store.Get(s.DatasetID)
	if !ok {
		s.addError("pack_error: missing dataset")
		return
	}
	if s.Plan == nil {
		s.addError("pack_error: missing plan")
		return
	}
	ex := packs.Execute(ds, s.roles(), s.Plan.Steps, func(pack, status, detail string) {
		emit(emitFn, Event{
			Type: EventSubstep, Step: "run_packs",
			Name: pack, Status: status, Detail: detail,
		})
	})
	s.PackResults = ex.Results
	s.PackOrder = ex.PackOrder
	s.Charts = ex.Charts
	s.Errors = append(s.Errors, ex.Errors...)
}

func (p *Pipeline) stageHypotheses(ctx context.Context, s *RunState, _ EmitFunc) {
	s.Hypotheses = llm.ProposeHypotheses(ctx, p.LLM, s.Schema, s.Profile, s.PackResults)
}

func (p *Pipeline) stageVerify(_ context.Context, s *RunState, _ EmitFunc) {
	ds, ok := p.Store.Get(s.DatasetID)
	if !ok {
		s.addError("verify_error: missing dataset")
		return
	}
	s.Verified = hypothesis.Verify(ds, s.Hypotheses)
}

func (p *Pipeline) stageNarrate(ctx context.Context, s *RunState, _ EmitFunc) {
	r := llm.Narrate(ctx, p.LLM, llm.NarrateInput{
		FileName:           s.FileName,
		Schema:             s.Schema,
		Profile:            s.Profile,
		ProfilingReportURL: s.ProfilingReportURL,
		Plan:               s.Plan,
		PackResults:        s.PackResults,
		Verified:           s.Verified,
		Errors:             s.Errors,
	})

	// Deterministic artifacts are reattached regardless of what the
	// narrator produced.
	r.PackResults = s.PackResults
	r.ProfilingReportURL = s.ProfilingReportURL
	if s.Charts != nil {
		r.Charts = s.Charts
	}
	r.Normalize()
	s.Report = r
}
