package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/term-timeline/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixtureCalendar() []models.PeriodDefinition {
	return []models.PeriodDefinition{
		{CalendarKey: "2024SP", StartDate: day(2024, time.January, 8)},
		{CalendarKey: "2024S1", StartDate: day(2024, time.May, 13)},
		{CalendarKey: "2024S2", StartDate: day(2024, time.June, 17)},
		{CalendarKey: "2024FA", StartDate: day(2024, time.August, 26)},
		{CalendarKey: "2025SP", StartDate: day(2025, time.January, 13)},
	}
}

type stubCalendarReader struct {
	defs     []models.PeriodDefinition
	excluded []string
	err      error
}

func (s *stubCalendarReader) ListDefinitions(_ context.Context, excluded []string) ([]models.PeriodDefinition, error) {
	s.excluded = excluded
	return s.defs, s.err
}

type stubListReader[T any] struct {
	rows []T
	err  error
}

func (s stubListReader[T]) List(context.Context) ([]T, error) {
	return s.rows, s.err
}

type stubDictionaryLoader struct {
	set *DictionarySet
	err error
}

func (s stubDictionaryLoader) Load(context.Context) (*DictionarySet, bool, error) {
	return s.set, false, s.err
}

func fixtureSources() SnapshotSources {
	return SnapshotSources{
		Calendar: &stubCalendarReader{defs: fixtureCalendar()},
		Activity: stubListReader[models.ActivityRecord]{rows: []models.ActivityRecord{{
			EntityID:    "S1",
			CalendarKey: "2024FA",
			CreditHours: decimal.NewFromInt(15),
			CreditType:  models.CreditTypeCredit,
		}}},
		History:    stubListReader[models.DegreeHistory]{},
		Candidacy:  stubListReader[models.Candidacy]{},
		Identities: stubListReader[models.IdentityMapping]{rows: []models.IdentityMapping{{SourceID: "S1", TargetID: 1001}}},
		Dictionaries: stubDictionaryLoader{set: &DictionarySet{
			Majors:   []models.MajorDefinition{{MajorCode: "M1", DegreeCode: "BA"}},
			Programs: []models.ProgramEntry{{DegreeCode: "BA", MajorCode: "M1", TargetProgram: "BA-M1", Active: true}},
		}},
	}
}
