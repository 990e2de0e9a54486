package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/datascope/datascope/pkg/archive"
	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/ingest"
	"github.com/datascope/datascope/pkg/pipeline"
)

func writeScenarioCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	fmt.Fprintln(f, "id,category,value")
	for i := 0; i < 100; i++ {
		val := fmt.Sprintf("%d.5", i)
		if i%10 == 0 {
			val = ""
		}
		fmt.Fprintf(f, "row_%d,group_%d,%s\n", i, i%5, val)
	}
	return path
}

func newTestManager(t *testing.T, backend archive.Backend) *Manager {
	t.Helper()
	pipe := &pipeline.Pipeline{
		Store:      dataset.NewStore(),
		Loader:     ingest.NewLoader(""),
		ReportsDir: t.TempDir(),
	}
	return NewManager(pipe, backend, nil, 2)
}

func drain(t *testing.T, job *Job) []pipeline.Event {
	t.Helper()
	var events []pipeline.Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case e, ok := <-job.Events:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatalf("timed out draining events; got %d so far", len(events))
		}
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, archive.NewLocal(dir))

	csv := writeScenarioCSV(t)
	job := mgr.Submit(context.Background(), csv, "scenario.csv")

	if _, ok := mgr.Get(job.ID); !ok {
		t.Fatal("submitted job not found in manager")
	}

	events := drain(t, job)
	if len(events) == 0 {
		t.Fatal("no events received")
	}
	last := events[len(events)-1]
	if last.Type != pipeline.EventDone {
		t.Errorf("last event type = %q, want done", last.Type)
	}
	if last.TS == 0 {
		t.Error("done event missing timestamp")
	}

	if !job.Done() {
		t.Error("job not marked done")
	}
	if job.Err() != "" {
		t.Errorf("unexpected job error: %s", job.Err())
	}
	rep := job.Result()
	if rep == nil {
		t.Fatal("missing result")
	}
	if len(rep.Errors) != 0 {
		t.Errorf("pipeline errors: %v", rep.Errors)
	}

	archived, err := archive.NewLocal(dir).Load(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("report not archived: %v", err)
	}
	if len(archived.PackResults) == 0 {
		t.Error("archived report has no pack results")
	}
}

func TestSubmitCancelledContext(t *testing.T) {
	mgr := newTestManager(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := mgr.Submit(ctx, "ignored.csv", "ignored.csv")
	events := drain(t, job)

	if len(events) != 2 {
		t.Fatalf("events = %d, want error + done", len(events))
	}
	if events[0].Type != pipeline.EventError || events[1].Type != pipeline.EventDone {
		t.Errorf("event types = %q, %q", events[0].Type, events[1].Type)
	}
	if job.Err() == "" {
		t.Error("expected job error")
	}
	if job.Result() != nil {
		t.Error("cancelled job should have no result")
	}
}

func TestGetUnknownJob(t *testing.T) {
	mgr := newTestManager(t, nil)
	if _, ok := mgr.Get("nope"); ok {
		t.Error("expected miss for unknown job id")
	}
}
