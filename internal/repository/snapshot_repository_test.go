package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
)

func newSnapshotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCalendarRepositoryListDefinitions(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2024, time.August, 26, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"calendar_key", "start_date", "end_date"}).
		AddRow("2024FA", start, nil).
		AddRow("2025SP", start.AddDate(0, 5, 0), start.AddDate(0, 9, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_periods WHERE start_date IS NOT NULL AND NOT (LEFT(TRIM(calendar_key), 4) = ANY($1)) ORDER BY start_date")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	defs, err := repo.ListDefinitions(context.Background(), []string{"9999"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "2024FA", defs[0].CalendarKey)
	assert.Nil(t, defs[0].EndDate)
	require.NotNil(t, defs[1].EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryWithoutExclusions(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_periods WHERE start_date IS NOT NULL ORDER BY start_date")).
		WillReturnRows(sqlmock.NewRows([]string{"calendar_key", "start_date", "end_date"}))

	defs, err := repo.ListDefinitions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, defs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryList(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	rows := sqlmock.NewRows([]string{"entity_id", "calendar_key", "transaction_status", "grade_code", "credit_hours", "credit_type", "transfer_term", "transfer_year"}).
		AddRow("S1", "2024FA", "", "A", "3.5", "CR", false, false).
		AddRow("S1", "2024FA", "D", "", "3", "CR", false, true)
	mock.ExpectQuery("FROM course_activity").WillReturnRows(rows)

	activity, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, "3.5", activity[0].CreditHours.String())
	assert.True(t, activity[0].Attempted())
	assert.False(t, activity[1].Attempted())
	assert.True(t, activity[1].TransferYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDegreeHistoryRepositoryList(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewDegreeHistoryRepository(db)

	entry := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"entity_id", "entry_date", "exit_date", "conferred_date", "withdrawal_date", "exit_reason", "withdrawal_reason", "major_1", "major_2", "concentration_1", "degree_code", "division_code"}).
		AddRow("S1", entry, nil, nil, nil, "", "", "M1", "", "", "BA", "U")
	mock.ExpectQuery("FROM degree_history").WillReturnRows(rows)

	history, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].EntryDate)
	assert.Nil(t, history[0].ExitDate)
	assert.Equal(t, "M1", history[0].Major1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidacyRepositoryList(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewCandidacyRepository(db)

	rows := sqlmock.NewRows([]string{"entity_id", "calendar_key", "load_flag", "candidacy_type"}).
		AddRow("S1", "2024FA", "P", "DEG")
	mock.ExpectQuery("FROM candidacy WHERE load_flag IS NOT NULL").WillReturnRows(rows)

	candidacy, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, candidacy, 1)
	assert.Equal(t, "P", candidacy[0].LoadFlag)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDictionaryRepositoryListPrograms(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewDictionaryRepository(db)

	cols := []string{"degree_code", "major_code", "concentration_code", "target_college", "target_degree", "target_major", "target_concentration", "target_program", "active"}
	mock.ExpectQuery("FROM program_dictionary_active UNION ALL SELECT .* FROM program_dictionary_inactive").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("BA", "M1", "", "10", "BA", "M1", "", "BA-M1", true).
			AddRow("BA", "M1", "", "11", "BA", "M1", "", "BA-M1-H", false))

	programs, err := repo.ListPrograms(context.Background())
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.True(t, programs[0].Active)
	assert.Equal(t, "BA-M1-H", programs[1].Assignment().Program)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDictionaryRepositoryListMajorsError(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewDictionaryRepository(db)

	mock.ExpectQuery("FROM major_definitions").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListMajors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list major definitions")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryList(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery("FROM identity_map").
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "target_id"}).AddRow("S1", int64(1001)))

	ids, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, int64(1001), ids[0].TargetID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]string

	err := repo.Get(context.Background(), "timeline:dictionaries", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "timeline:dictionaries", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "timeline:*"))
	assert.NoError(t, repo.Close())
}
