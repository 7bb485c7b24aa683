package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/term-timeline/internal/models"
)

// CalendarRepository reads academic period definitions.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// ListDefinitions returns every period definition with a start date, skipping
// keys that begin with one of the excluded prefixes.
func (r *CalendarRepository) ListDefinitions(ctx context.Context, excludedPrefixes []string) ([]models.PeriodDefinition, error) {
	query := `SELECT TRIM(calendar_key) AS calendar_key, start_date, end_date
FROM academic_periods
WHERE start_date IS NOT NULL`
	args := []interface{}{}
	if len(excludedPrefixes) > 0 {
		query += " AND NOT (LEFT(TRIM(calendar_key), 4) = ANY($1))"
		args = append(args, pq.Array(excludedPrefixes))
	}
	query += " ORDER BY start_date, calendar_key"

	var defs []models.PeriodDefinition
	if err := r.db.SelectContext(ctx, &defs, query, args...); err != nil {
		return nil, fmt.Errorf("list period definitions: %w", err)
	}
	return defs, nil
}
