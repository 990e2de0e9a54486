// Package archive persists completed reports. Backends share one contract:
// store a report under its job id and load it back. The local backend writes
// JSON files; Redis and S3 backends target shared infrastructure.
package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/datascope/datascope/pkg/errors"
	"github.com/datascope/datascope/pkg/report"
)

// Backend stores and retrieves completed reports by job id.
type Backend interface {
	Save(ctx context.Context, jobID string, r *report.Report) error
	Load(ctx context.Context, jobID string) (*report.Report, error)
}

// Local writes each report as a JSON file under Dir.
type Local struct {
	Dir string
}

// NewLocal builds a file backend rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

func (l *Local) path(jobID string) string {
	return filepath.Join(l.Dir, jobID+".report.json")
}

func (l *Local) Save(ctx context.Context, jobID string, r *report.Report) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "creating archive directory")
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "marshaling report")
	}
	if err := os.WriteFile(l.path(jobID), raw, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "writing report file").
			WithContext("job_id", jobID)
	}
	return nil
}

func (l *Local) Load(ctx context.Context, jobID string) (*report.Report, error) {
	raw, err := os.ReadFile(l.path(jobID))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "reading report file").
			WithContext("job_id", jobID)
	}
	var r report.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "parsing report file")
	}
	return &r, nil
}
