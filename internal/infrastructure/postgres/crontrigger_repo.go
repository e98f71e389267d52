package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CronTriggerRepository struct {
	pool *pgxpool.Pool
}

func NewCronTriggerRepository(pool *pgxpool.Pool) *CronTriggerRepository {
	return &CronTriggerRepository{pool: pool}
}

func (r *CronTriggerRepository) Create(ctx context.Context, t *domain.CronTrigger) (*domain.CronTrigger, error) {
	query := `
		INSERT INTO cron_triggers (
			name, pattern, next_execution_time, remaining_executions,
			workflow_id, workflow_name, workflow_input, workflow_params,
			trust_id, project_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, name, pattern, next_execution_time, remaining_executions,
		          workflow_id, workflow_name, workflow_input, workflow_params,
		          trust_id, project_id`

	row := r.pool.QueryRow(ctx, query,
		t.Name, t.Pattern, t.NextExecutionTime, t.RemainingExecutions,
		t.WorkflowID, t.WorkflowName, t.WorkflowInput, t.WorkflowParams,
		t.TrustID, t.ProjectID,
	)

	created, err := scanCronTrigger(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrCronTriggerNameTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *CronTriggerRepository) Get(ctx context.Context, name string) (*domain.CronTrigger, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, pattern, next_execution_time, remaining_executions,
		       workflow_id, workflow_name, workflow_input, workflow_params,
		       trust_id, project_id
		FROM cron_triggers
		WHERE name = $1`, name)
	return scanCronTrigger(row)
}

func (r *CronTriggerRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cron_triggers WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete cron trigger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCronTriggerNotFound
	}
	return nil
}

func (r *CronTriggerRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.CronTrigger, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, pattern, next_execution_time, remaining_executions,
		       workflow_id, workflow_name, workflow_input, workflow_params,
		       trust_id, project_id
		FROM cron_triggers
		WHERE next_execution_time < $1
		ORDER BY next_execution_time ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("list due cron triggers: %w", err)
	}
	defer rows.Close()

	var out []*domain.CronTrigger
	for rows.Next() {
		t, err := scanCronTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Advance implements the three-step procedure: decrement remaining count,
// delete on exhaustion, or CAS-advance next_execution_time. A trigger
// already removed by a competing advancer is reported as advanced=false,
// not an error.
func (r *CronTriggerRepository) Advance(ctx context.Context, t *domain.CronTrigger, nextFireTime func(pattern string, after time.Time) (time.Time, error)) (bool, error) {
	remaining := t.RemainingExecutions
	if remaining != nil && *remaining > 0 {
		n := *remaining - 1
		remaining = &n
	}

	if remaining != nil && *remaining == 0 {
		tag, err := r.pool.Exec(ctx, `DELETE FROM cron_triggers WHERE id = $1`, t.ID)
		if err != nil {
			return false, fmt.Errorf("delete exhausted cron trigger: %w", err)
		}
		return tag.RowsAffected() == 1, nil
	}

	pattern := ""
	if t.Pattern != nil {
		pattern = *t.Pattern
	}
	next, err := nextFireTime(pattern, t.NextExecutionTime)
	if err != nil {
		return false, fmt.Errorf("compute next fire time: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE cron_triggers
		SET next_execution_time = $1, remaining_executions = $2
		WHERE id = $3 AND next_execution_time = $4`,
		next, remaining, t.ID, t.NextExecutionTime)
	if err != nil {
		return false, fmt.Errorf("cas advance cron trigger: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanCronTrigger(row rowScanner) (*domain.CronTrigger, error) {
	var t domain.CronTrigger
	err := row.Scan(
		&t.ID, &t.Name, &t.Pattern, &t.NextExecutionTime, &t.RemainingExecutions,
		&t.WorkflowID, &t.WorkflowName, &t.WorkflowInput, &t.WorkflowParams,
		&t.TrustID, &t.ProjectID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCronTriggerNotFound
		}
		return nil, fmt.Errorf("scan cron trigger: %w", err)
	}
	return &t, nil
}
