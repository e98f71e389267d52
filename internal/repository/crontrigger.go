package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
)

// CronTriggerRepository persists cron triggers and implements the
// CAS-based advance that guards against double-firing across replicas.
type CronTriggerRepository interface {
	Create(ctx context.Context, t *domain.CronTrigger) (*domain.CronTrigger, error)
	Get(ctx context.Context, name string) (*domain.CronTrigger, error)
	Delete(ctx context.Context, name string) error

	// ListDue returns triggers with next_execution_time < now, ordered
	// ascending by next_execution_time.
	ListDue(ctx context.Context, now time.Time) ([]*domain.CronTrigger, error)

	// Advance implements the CAS-protected state transition:
	//   1. decrement remaining_executions if it is set and > 0
	//   2. if it reached 0, delete the row; advanced = rowsDeleted == 1
	//   3. otherwise compute the next fire time and conditionally update
	//      {next_execution_time, remaining_executions} WHERE id = t.ID
	//      AND next_execution_time = t.NextExecutionTime;
	//      advanced = rowsAffected == 1
	//
	// A trigger deleted by a competing advancer between ListDue and
	// Advance is not an error: Advance returns (false, nil).
	Advance(ctx context.Context, t *domain.CronTrigger, nextFireTime func(pattern string, after time.Time) (time.Time, error)) (advanced bool, err error)
}
