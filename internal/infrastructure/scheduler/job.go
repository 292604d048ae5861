package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// RunStatus represents the outcome of one job run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusSkipped RunStatus = "SKIPPED"
)

// Job is a task run on a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart triggers a first run right after Start instead of waiting one interval
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Run records one execution of a job
type Run struct {
	JobName     string
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or zero while running
func (r Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// CompanyTask is a unit of work for one company
type CompanyTask func(ctx context.Context, companyID uuid.UUID) error

// ForEachCompany runs task for every company in order. A failing company
// does not stop the others; the errors are combined.
func ForEachCompany(companies []uuid.UUID, task CompanyTask) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs error
		for _, id := range companies {
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			if err := task(ctx, id); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		return errs
	}
}

// ParseCompanies parses configured company IDs
func ParseCompanies(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, multierr.Append(ErrInvalidConfig, err)
		}
		out = append(out, id)
	}
	return out, nil
}
