package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DTWRepository struct {
	pool *pgxpool.Pool
}

func NewDTWRepository(pool *pgxpool.Pool) *DTWRepository {
	return &DTWRepository{pool: pool}
}

func (r *DTWRepository) Create(ctx context.Context, d *domain.DTW) (*domain.DTW, error) {
	query := `
		INSERT INTO delay_tolerant_workloads (
			name, workflow_id, workflow_name, workflow_input, workflow_params,
			deadline, job_duration, scope, trust_id, executed, scheduled, project_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, name, workflow_id, workflow_name, workflow_input, workflow_params,
		          deadline, job_duration, scope, trust_id, executed, scheduled,
		          project_id, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		d.Name, d.WorkflowID, d.WorkflowName, d.WorkflowInput, d.WorkflowParams,
		d.Deadline, d.JobDurationMin, d.Scope, d.TrustID, d.Executed, d.Scheduled, d.ProjectID,
	)

	created, err := scanDTW(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateDTW
		}
		return nil, err
	}
	return created, nil
}

func (r *DTWRepository) Get(ctx context.Context, name, projectID string, insecure bool) (*domain.DTW, error) {
	query := `
		SELECT id, name, workflow_id, workflow_name, workflow_input, workflow_params,
		       deadline, job_duration, scope, trust_id, executed, scheduled,
		       project_id, created_at, updated_at
		FROM delay_tolerant_workloads
		WHERE name = $1`
	args := []any{name}

	if !insecure {
		query += " AND (project_id = $2 OR scope = 'public')"
		args = append(args, projectID)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	return scanDTW(row)
}

func (r *DTWRepository) List(ctx context.Context, input repository.ListDTWInput) ([]*domain.DTW, error) {
	var (
		args  []any
		where []string
	)

	if !input.Insecure {
		args = append(args, input.ProjectID)
		where = append(where, fmt.Sprintf("(project_id = $%d OR scope = 'public')", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	whereClause := "TRUE"
	if len(where) > 0 {
		whereClause = strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, name, workflow_id, workflow_name, workflow_input, workflow_params,
		       deadline, job_duration, scope, trust_id, executed, scheduled,
		       project_id, created_at, updated_at
		FROM delay_tolerant_workloads
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, whereClause, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dtws: %w", err)
	}
	defer rows.Close()

	var out []*domain.DTW
	for rows.Next() {
		d, err := scanDTW(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DTWRepository) Delete(ctx context.Context, name, projectID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM delay_tolerant_workloads WHERE name = $1 AND project_id = $2`,
		name, projectID)
	if err != nil {
		return fmt.Errorf("delete dtw: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDTWNotFound
	}
	return nil
}

// GetUnscheduled mirrors Mistral's get_delay_tolerant_workloads_with_execution(False):
// every row with executed = false, irrespective of scheduled.
func (r *DTWRepository) GetUnscheduled(ctx context.Context, insecure bool) ([]*domain.DTW, error) {
	query := `
		SELECT id, name, workflow_id, workflow_name, workflow_input, workflow_params,
		       deadline, job_duration, scope, trust_id, executed, scheduled,
		       project_id, created_at, updated_at
		FROM delay_tolerant_workloads
		WHERE executed = FALSE
		ORDER BY deadline ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unscheduled dtws: %w", err)
	}
	defer rows.Close()

	var out []*domain.DTW
	for rows.Next() {
		d, err := scanDTW(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CASSetExecuted guards the executed flag flip that the §9 open question
// flags as an unconditional update in the source; here it is conditional
// on the row's current value so at most one concurrent caller wins.
func (r *DTWRepository) CASSetExecuted(ctx context.Context, name string, want bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE delay_tolerant_workloads SET executed = $2, updated_at = NOW()
		 WHERE name = $1 AND executed = $3`,
		name, want, !want)
	if err != nil {
		return false, fmt.Errorf("cas set executed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DTWRepository) CASSetScheduled(ctx context.Context, name string, want bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE delay_tolerant_workloads SET scheduled = $2, updated_at = NOW()
		 WHERE name = $1 AND scheduled = $3`,
		name, want, !want)
	if err != nil {
		return false, fmt.Errorf("cas set scheduled: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDTW(row rowScanner) (*domain.DTW, error) {
	var d domain.DTW
	err := row.Scan(
		&d.ID, &d.Name, &d.WorkflowID, &d.WorkflowName, &d.WorkflowInput, &d.WorkflowParams,
		&d.Deadline, &d.JobDurationMin, &d.Scope, &d.TrustID, &d.Executed, &d.Scheduled,
		&d.ProjectID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDTWNotFound
		}
		return nil, fmt.Errorf("scan dtw: %w", err)
	}
	return &d, nil
}
