package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

// ActivityRepository reads course-level attempted-hours rows.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns all activity rows. Text columns are trimmed and null numeric
// columns read as zero.
func (r *ActivityRepository) List(ctx context.Context) ([]models.ActivityRecord, error) {
	const query = `SELECT TRIM(entity_id) AS entity_id,
	TRIM(calendar_key) AS calendar_key,
	COALESCE(TRIM(transaction_status), '') AS transaction_status,
	COALESCE(TRIM(grade_code), '') AS grade_code,
	COALESCE(credit_hours, 0) AS credit_hours,
	COALESCE(TRIM(credit_type), '') AS credit_type,
	COALESCE(transfer_term, FALSE) AS transfer_term,
	COALESCE(transfer_year, FALSE) AS transfer_year
FROM course_activity
ORDER BY entity_id, calendar_key`
	var rows []models.ActivityRecord
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return rows, nil
}
