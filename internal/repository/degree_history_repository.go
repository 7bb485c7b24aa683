package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

// DegreeHistoryRepository reads program-of-study rows and their milestone dates.
type DegreeHistoryRepository struct {
	db *sqlx.DB
}

// NewDegreeHistoryRepository constructs the repository.
func NewDegreeHistoryRepository(db *sqlx.DB) *DegreeHistoryRepository {
	return &DegreeHistoryRepository{db: db}
}

// List returns every degree history row.
func (r *DegreeHistoryRepository) List(ctx context.Context) ([]models.DegreeHistory, error) {
	const query = `SELECT TRIM(entity_id) AS entity_id,
	entry_date, exit_date, conferred_date, withdrawal_date,
	COALESCE(TRIM(exit_reason), '') AS exit_reason,
	COALESCE(TRIM(withdrawal_reason), '') AS withdrawal_reason,
	COALESCE(TRIM(major_1), '') AS major_1,
	COALESCE(TRIM(major_2), '') AS major_2,
	COALESCE(TRIM(concentration_1), '') AS concentration_1,
	COALESCE(TRIM(degree_code), '') AS degree_code,
	COALESCE(TRIM(division_code), '') AS division_code
FROM degree_history
ORDER BY entity_id`
	var rows []models.DegreeHistory
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list degree history: %w", err)
	}
	return rows, nil
}
