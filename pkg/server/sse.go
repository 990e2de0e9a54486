// Package server - Server-Sent Events for real-time progress streaming.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/datascope/datascope/pkg/pipeline"
)

const keepaliveInterval = time.Second

// handleProgress streams a job's progress events over SSE. The stream opens
// with a hello event, sends a ping whenever the job is idle, and terminates
// after the terminal done event.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/progress/")
	if jobID == "" {
		jsonError(w, "Job ID required", http.StatusBadRequest)
		return
	}

	job, ok := s.jobs.Get(jobID)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, "event: hello\ndata: {}\n\n")
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepalive.C:
			fmt.Fprint(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
			if job.Done() && len(job.Events) == 0 {
				return
			}

		case evt, open := <-job.Events:
			if !open {
				return
			}
			writeSSEEvent(w, evt)
			flusher.Flush()
			if evt.Type == pipeline.EventDone {
				return
			}
		}
	}
}

// writeSSEEvent writes one event per SSE message.
func writeSSEEvent(w http.ResponseWriter, evt pipeline.Event) {
	etype := evt.Type
	if etype == "" {
		etype = "message"
	}
	data, _ := json.Marshal(evt)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", etype, data)
}
