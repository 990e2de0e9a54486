// Package server provides the HTTP API for uploads, progress streaming,
// and report retrieval.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/datascope/datascope/pkg/archive"
	"github.com/datascope/datascope/pkg/ingest"
	"github.com/datascope/datascope/pkg/jobs"
	"github.com/datascope/datascope/pkg/report"
)

// Options configures the HTTP server.
type Options struct {
	UploadDir      string
	ReportsDir     string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Server handles HTTP requests for the analysis API.
type Server struct {
	jobs    *jobs.Manager
	archive archive.Backend
	opts    Options
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewServer creates a new HTTP server. The archive backend may be nil.
func NewServer(mgr *jobs.Manager, backend archive.Backend, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		jobs:    mgr,
		archive: backend,
		opts:    opts,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures HTTP handlers.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/upload_async", s.handleUpload)
	s.mux.HandleFunc("/progress/", s.handleProgress)
	s.mux.HandleFunc("/result/", s.handleResult)
	s.mux.HandleFunc("/export/", s.handleExport)
	s.mux.HandleFunc("/api/compare", s.handleCompare)

	// Generated profiling reports
	s.mux.Handle("/reports/", http.StripPrefix("/reports/",
		http.FileServer(http.Dir(s.opts.ReportsDir))))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

// handleUpload receives a dataset upload and starts an analysis job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		jsonError(w, "Failed to parse upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(fileName))
	if !ingest.SupportedExt(ext) {
		jsonError(w, fmt.Sprintf("Unsupported file type: %s", ext), http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		jsonError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	savePath := filepath.Join(s.opts.UploadDir, fileName)
	out, err := os.Create(savePath)
	if err != nil {
		jsonError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		jsonError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	// The job outlives this request: the run must not die when the
	// upload response is written and r.Context() is cancelled.
	job := s.jobs.Submit(context.Background(), savePath, fileName)
	s.logger.Info("upload accepted",
		zap.String("job_id", job.ID),
		zap.String("file", fileName),
		zap.Int64("bytes", size))

	jsonResponse(w, map[string]string{"job_id": job.ID})
}

// handleResult returns the final report for a job.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/result/")
	if jobID == "" {
		jsonError(w, "Job ID required", http.StatusBadRequest)
		return
	}

	job, ok := s.jobs.Get(jobID)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if !job.Done() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		return
	}
	if errMsg := job.Err(); errMsg != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": errMsg})
		return
	}

	jsonResponse(w, map[string]interface{}{
		"status": "done",
		"report": job.Result(),
	})
}

// handleExport serves a finished report as a markdown attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/export/")
	jobID := strings.TrimSuffix(name, ".md")
	if jobID == "" || jobID == name {
		jsonError(w, "unsupported export format", http.StatusNotFound)
		return
	}

	rep, ok := s.finishedReport(r, jobID)
	if !ok {
		jsonError(w, "job not ready", http.StatusNotFound)
		return
	}

	md := report.ToMarkdown(rep, jobID)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".md"))
	w.Write([]byte(md))
}

type compareRequest struct {
	JobA  string `json:"job_a"`
	JobB  string `json:"job_b"`
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
}

// handleCompare compares the reports of two finished jobs.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.JobA == "" || req.JobB == "" {
		jsonError(w, "job_a and job_b required", http.StatusBadRequest)
		return
	}

	repA, okA := s.finishedReport(r, req.JobA)
	repB, okB := s.finishedReport(r, req.JobB)
	if !okA || !okB {
		jsonError(w, "both jobs must be finished", http.StatusNotFound)
		return
	}

	nameA := req.NameA
	if nameA == "" {
		nameA = req.JobA
	}
	nameB := req.NameB
	if nameB == "" {
		nameB = req.JobB
	}

	jsonResponse(w, report.Compare(repA, repB, nameA, nameB))
}

// finishedReport resolves a job's report from memory, falling back to the
// archive for jobs that outlived the process.
func (s *Server) finishedReport(r *http.Request, jobID string) (*report.Report, bool) {
	if job, ok := s.jobs.Get(jobID); ok {
		if !job.Done() || job.Err() != "" {
			return nil, false
		}
		return job.Result(), true
	}
	if s.archive != nil {
		if rep, err := s.archive.Load(r.Context(), jobID); err == nil {
			return rep, true
		}
	}
	return nil, false
}

// Helper functions

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
