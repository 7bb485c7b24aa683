package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/term-timeline/internal/models"
)

// DictionaryRepository reads the major definitions and both program dictionaries.
type DictionaryRepository struct {
	db *sqlx.DB
}

// NewDictionaryRepository constructs the repository.
func NewDictionaryRepository(db *sqlx.DB) *DictionaryRepository {
	return &DictionaryRepository{db: db}
}

// ListMajors returns the major code to degree code mapping.
func (r *DictionaryRepository) ListMajors(ctx context.Context) ([]models.MajorDefinition, error) {
	const query = `SELECT TRIM(major_code) AS major_code, COALESCE(TRIM(degree_code), '') AS degree_code
FROM major_definitions
ORDER BY major_code`
	var rows []models.MajorDefinition
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list major definitions: %w", err)
	}
	return rows, nil
}

// ListPrograms returns the active and the historical program dictionaries.
func (r *DictionaryRepository) ListPrograms(ctx context.Context) ([]models.ProgramEntry, error) {
	const columns = `COALESCE(TRIM(degree_code), '') AS degree_code,
	COALESCE(TRIM(major_code), '') AS major_code,
	COALESCE(TRIM(concentration_code), '') AS concentration_code,
	COALESCE(TRIM(target_college), '') AS target_college,
	COALESCE(TRIM(target_degree), '') AS target_degree,
	COALESCE(TRIM(target_major), '') AS target_major,
	COALESCE(TRIM(target_concentration), '') AS target_concentration,
	COALESCE(TRIM(target_program), '') AS target_program`
	query := fmt.Sprintf(`SELECT %s, TRUE AS active FROM program_dictionary_active
UNION ALL
SELECT %s, FALSE AS active FROM program_dictionary_inactive`, columns, columns)
	var rows []models.ProgramEntry
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list program dictionaries: %w", err)
	}
	return rows, nil
}
