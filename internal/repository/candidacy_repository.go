package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

// CandidacyRepository reads the per-term load flags.
type CandidacyRepository struct {
	db *sqlx.DB
}

// NewCandidacyRepository constructs the repository.
func NewCandidacyRepository(db *sqlx.DB) *CandidacyRepository {
	return &CandidacyRepository{db: db}
}

// List returns candidacy rows that carry a load flag.
func (r *CandidacyRepository) List(ctx context.Context) ([]models.Candidacy, error) {
	const query = `SELECT TRIM(entity_id) AS entity_id,
	TRIM(calendar_key) AS calendar_key,
	UPPER(TRIM(load_flag)) AS load_flag,
	COALESCE(TRIM(candidacy_type), '') AS candidacy_type
FROM candidacy
WHERE load_flag IS NOT NULL`
	var rows []models.Candidacy
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list candidacy: %w", err)
	}
	return rows, nil
}
