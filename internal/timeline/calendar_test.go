package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
)

func TestBuildCalendarOrdersAndClosesGaps(t *testing.T) {
	cal := testCalendar(t)

	periods := cal.Periods()
	require.Len(t, periods, 5)
	codes := make([]int, len(periods))
	for i, p := range periods {
		codes[i] = p.Code
	}
	assert.Equal(t, []int{202401, 202405, 202406, 202409, 202501}, codes)

	require.NotNil(t, periods[0].ExtendedEndDate)
	assert.Equal(t, day(2024, time.May, 12), *periods[0].ExtendedEndDate)
	assert.Equal(t, day(2024, time.May, 3), *periods[0].NominalEndDate)
	assert.Nil(t, periods[4].ExtendedEndDate)
}

func TestCalendarEveryDateInExactlyOnePeriod(t *testing.T) {
	cal := testCalendar(t)
	periods := cal.Periods()

	for d := day(2024, time.January, 8); d.Before(day(2025, time.June, 1)); d = d.AddDate(0, 0, 1) {
		matches := 0
		for _, p := range periods {
			if p.Contains(d) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "date %s", d.Format("2006-01-02"))

		p, ok := cal.Lookup(d)
		require.True(t, ok)
		require.True(t, p.Contains(d))
	}
}

func TestCalendarLookup(t *testing.T) {
	cal := testCalendar(t)

	p, ok := cal.Lookup(day(2024, time.May, 6))
	require.True(t, ok)
	assert.Equal(t, 202401, p.Code, "gap after nominal end belongs to the earlier period")

	p, ok = cal.Lookup(time.Date(2024, time.August, 26, 17, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 202409, p.Code)

	p, ok = cal.Lookup(day(2031, time.March, 1))
	require.True(t, ok)
	assert.Equal(t, 202501, p.Code, "last period is open-ended")

	_, ok = cal.Lookup(day(2023, time.December, 31))
	assert.False(t, ok)
}

func TestCalendarKeysAndNext(t *testing.T) {
	cal := testCalendar(t)

	p, ok := cal.ByKey("2024S2")
	require.True(t, ok)
	assert.Equal(t, 202406, p.Code)

	_, ok = cal.ByKey("9999FA")
	assert.False(t, ok, "placeholder calendar keys are excluded")

	assert.Equal(t, 202501, cal.Next(202409))
	assert.Equal(t, 202501, cal.Next(202501))
	assert.Equal(t, 201001, cal.Next(201001))
}

func TestPeriodCodeFallsBackToStartMonth(t *testing.T) {
	assert.Equal(t, 202312, PeriodCode("2023WI", day(2023, time.December, 1), DefaultOptions().TermSuffixes))
	assert.Equal(t, 202409, PeriodCode("2024-FA", day(2024, time.August, 26), DefaultOptions().TermSuffixes))
	assert.Equal(t, 202402, PeriodCode("TERM", day(2024, time.February, 2), nil))
}

func TestBuildCalendarRejectsCodesOutOfStartOrder(t *testing.T) {
	defs := []models.PeriodDefinition{
		{CalendarKey: "2024FA", StartDate: day(2024, time.January, 8)},
		{CalendarKey: "2024SP", StartDate: day(2024, time.March, 1)},
	}
	_, err := BuildCalendar(defs, testOptions())
	require.Error(t, err)
}

func TestBuildCalendarDuplicateKeepsEarliestStart(t *testing.T) {
	defs := []models.PeriodDefinition{
		{CalendarKey: "2024SP", StartDate: day(2024, time.January, 10)},
		{CalendarKey: "2024 SP", StartDate: day(2024, time.January, 8)},
		{CalendarKey: "2024FA", StartDate: day(2024, time.August, 26)},
	}
	cal, err := BuildCalendar(defs, testOptions())
	require.NoError(t, err)
	require.Equal(t, 2, cal.Len())

	p, ok := cal.ByKey("2024SP")
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 8), p.StartDate)
}
