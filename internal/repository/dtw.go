package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
)

// ListDTWInput filters the project-scoped DTW listing. Insecure bypasses
// project scoping entirely — reserved for system loops running under the
// admin identity (the periodic runner), never for API-facing calls.
type ListDTWInput struct {
	ProjectID  string
	Insecure   bool
	CursorTime *time.Time
	CursorID   string
	Limit      int
}

// DTWRepository persists delay-tolerant workloads. Queries are
// project-scoped by default (rows where project_id = caller, or
// scope = public); Insecure bypasses that for system loops. Uniqueness
// is enforced on name within a project.
type DTWRepository interface {
	Create(ctx context.Context, d *domain.DTW) (*domain.DTW, error)
	Get(ctx context.Context, name, projectID string, insecure bool) (*domain.DTW, error)
	List(ctx context.Context, input ListDTWInput) ([]*domain.DTW, error)
	Delete(ctx context.Context, name, projectID string) error

	// GetUnscheduled returns every DTW with executed = false, regardless
	// of scheduled. No project scoping is applied: insecure is accepted
	// but not read. The periodic runner calls this with insecure = true
	// under the admin identity.
	GetUnscheduled(ctx context.Context, insecure bool) ([]*domain.DTW, error)

	// CASSetExecuted flips executed from !want to want only if the row's
	// current value is still !want. Reports whether this call won the
	// race (ok=true) so callers with a false result treat it as "another
	// process already handled it" rather than an error.
	CASSetExecuted(ctx context.Context, name string, want bool) (ok bool, err error)

	// CASSetScheduled is the symmetric guard for the scheduled flag.
	CASSetScheduled(ctx context.Context, name string, want bool) (ok bool, err error)
}
