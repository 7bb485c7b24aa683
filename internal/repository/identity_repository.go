package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

// IdentityRepository reads the source to target identifier crosswalk.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository constructs the repository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// List returns every identity mapping.
func (r *IdentityRepository) List(ctx context.Context) ([]models.IdentityMapping, error) {
	const query = `SELECT TRIM(source_id) AS source_id, target_id
FROM identity_map
WHERE target_id IS NOT NULL`
	var rows []models.IdentityMapping
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list identity mappings: %w", err)
	}
	return rows, nil
}
