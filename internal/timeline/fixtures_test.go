package timeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func intPtr(v int) *int {
	return &v
}

func hours(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func testCalendarDefs() []models.PeriodDefinition {
	return []models.PeriodDefinition{
		{CalendarKey: "2024FA", StartDate: day(2024, time.August, 26), EndDate: datePtr(2024, time.December, 13)},
		{CalendarKey: "2024SP", StartDate: day(2024, time.January, 8), EndDate: datePtr(2024, time.May, 3)},
		{CalendarKey: "2024S1", StartDate: day(2024, time.May, 13), EndDate: datePtr(2024, time.June, 14)},
		{CalendarKey: "2024S2", StartDate: day(2024, time.June, 17), EndDate: datePtr(2024, time.August, 2)},
		{CalendarKey: "2025SP", StartDate: day(2025, time.January, 13), EndDate: datePtr(2025, time.May, 9)},
		{CalendarKey: "9999FA", StartDate: day(2030, time.August, 26)},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.CurrentPeriod = 202409
	opts.UpcomingPeriods = []int{202501}
	return opts
}

func testCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := BuildCalendar(testCalendarDefs(), testOptions())
	require.NoError(t, err)
	return cal
}

func credit(entityID, key string, h int64) models.ActivityRecord {
	return models.ActivityRecord{
		EntityID:    entityID,
		CalendarKey: key,
		CreditHours: decimal.NewFromInt(h),
		CreditType:  models.CreditTypeCredit,
	}
}
