// Package jobs runs analysis pipelines asynchronously and tracks their
// lifecycle. Each job owns a buffered event channel that a progress stream
// drains; the channel is closed after the terminal done event.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/datascope/datascope/pkg/archive"
	"github.com/datascope/datascope/pkg/pipeline"
	"github.com/datascope/datascope/pkg/report"
)

const (
	// DefaultMaxConcurrent bounds how many pipelines run at once.
	DefaultMaxConcurrent = 2

	eventBufferSize = 256
)

// Job tracks one pipeline run.
type Job struct {
	ID        string
	CreatedAt time.Time

	// Events delivers progress events to at most one consumer. It is
	// closed after the terminal done event.
	Events chan pipeline.Event

	mu     sync.Mutex
	done   bool
	errMsg string
	result *report.Report
}

// Done reports whether the job has finished, successfully or not.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// Err returns the failure message, or "" if the job succeeded or is running.
func (j *Job) Err() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

// Result returns the final report, or nil until the job completes.
func (j *Job) Result() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Manager creates jobs and executes their pipelines under a concurrency cap.
type Manager struct {
	pipe    *pipeline.Pipeline
	archive archive.Backend
	logger  *zap.Logger
	sem     *semaphore.Weighted

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewManager builds a Manager. The archive backend may be nil, in which case
// reports are kept in memory only. maxConcurrent <= 0 selects the default.
func NewManager(pipe *pipeline.Pipeline, backend archive.Backend, logger *zap.Logger, maxConcurrent int) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pipe:    pipe,
		archive: backend,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		jobs:    make(map[string]*Job),
	}
}

// Get returns the job with the given ID.
func (m *Manager) Get(jobID string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	return j, ok
}

// Submit registers a new job and runs the pipeline in the background. It
// returns immediately; progress arrives on the job's event channel. ctx
// bounds the whole run, so a request-scoped context will cancel the job.
func (m *Manager) Submit(ctx context.Context, filePath, fileName string) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Events:    make(chan pipeline.Event, eventBufferSize),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(ctx, job, filePath, fileName)
	return job
}

func (m *Manager) run(ctx context.Context, job *Job, filePath, fileName string) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.fail(job, fmt.Sprintf("job cancelled before start: %v", err))
		return
	}
	defer m.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job panicked",
				zap.String("job_id", job.ID),
				zap.Any("panic", r))
			m.fail(job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	rep := m.pipe.Run(ctx, filePath, fileName, func(e pipeline.Event) {
		job.push(e)
	})

	if m.archive != nil {
		if err := m.archive.Save(ctx, job.ID, rep); err != nil {
			m.logger.Warn("report archive failed",
				zap.String("job_id", job.ID),
				zap.Error(err))
		}
	}
	m.complete(job, rep)
}

// push delivers an event without ever blocking the pipeline. A consumer that
// falls more than the buffer behind loses intermediate events; terminal
// events are sent separately by complete and fail.
func (j *Job) push(e pipeline.Event) {
	if e.TS == 0 {
		e.TS = nowTS()
	}
	select {
	case j.Events <- e:
	default:
	}
}

func (m *Manager) complete(job *Job, rep *report.Report) {
	job.mu.Lock()
	job.result = rep
	job.done = true
	job.mu.Unlock()

	job.push(pipeline.Event{Type: pipeline.EventDone})
	close(job.Events)
	m.logger.Info("job done", zap.String("job_id", job.ID))
}

func (m *Manager) fail(job *Job, message string) {
	job.mu.Lock()
	job.errMsg = message
	job.done = true
	job.mu.Unlock()

	job.push(pipeline.Event{Type: pipeline.EventError, Message: message})
	job.push(pipeline.Event{Type: pipeline.EventDone})
	close(job.Events)
	m.logger.Warn("job failed", zap.String("job_id", job.ID), zap.String("error", message))
}

func nowTS() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
