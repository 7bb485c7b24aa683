package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

const runColumns = `id, status, requested_by, created_at, started_at, finished_at, stats, output_file, summary_file, error_message`

// RunRepository persists run history.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs the repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts the run or overwrites its mutable fields.
func (r *RunRepository) Save(ctx context.Context, run *models.RunSummary) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timeline_runs (` + runColumns + `)
VALUES (:id, :status, :requested_by, :created_at, :started_at, :finished_at, :stats, :output_file, :summary_file, :error_message)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at,
stats = EXCLUDED.stats, output_file = EXCLUDED.output_file, summary_file = EXCLUDED.summary_file, error_message = EXCLUDED.error_message`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("save timeline run: %w", err)
	}
	return nil
}

// GetByID returns a run by its identifier.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RunSummary, error) {
	const query = `SELECT ` + runColumns + ` FROM timeline_runs WHERE id = $1`
	var run models.RunSummary
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, fmt.Errorf("get timeline run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the newest runs first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + runColumns + ` FROM timeline_runs ORDER BY created_at DESC LIMIT $1`
	var runs []models.RunSummary
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list timeline runs: %w", err)
	}
	return runs, nil
}

// FailInterrupted marks runs left queued or running by a previous process as
// failed and returns how many rows changed.
func (r *RunRepository) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	const query = `UPDATE timeline_runs SET status = 'FAILED', error_message = $1, finished_at = $2
WHERE status IN ('QUEUED', 'RUNNING')`
	res, err := r.db.ExecContext(ctx, query, reason, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	return n, nil
}
