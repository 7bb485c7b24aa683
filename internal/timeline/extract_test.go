package timeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
)

func TestExtractEventsFromDegreeHistory(t *testing.T) {
	cal := testCalendar(t)
	history := []models.DegreeHistory{{
		EntityID:       "S1",
		EntryDate:      datePtr(2024, time.January, 15),
		ExitDate:       datePtr(2024, time.May, 20),
		ExitReason:     "TX",
		Major1:         "M1",
		Concentration1: "C1",
		DegreeCode:     "BA",
		DivisionCode:   "U",
	}}

	events := ExtractEvents(cal, history, nil)
	require.Len(t, events, 2)

	assert.Equal(t, models.EventEntry, events[0].Kind)
	assert.Equal(t, 202401, events[0].PeriodCode)
	assert.Equal(t, "M1", events[0].Major1)
	assert.Equal(t, "C1", events[0].Concentration1)
	assert.Empty(t, events[0].Reason)

	assert.Equal(t, models.EventExit, events[1].Kind)
	assert.Equal(t, 202405, events[1].PeriodCode)
	assert.Equal(t, "TX", events[1].Reason)
	assert.Equal(t, "BA", events[1].DegreeCode)
}

func TestExtractEventsUnmatchedDateHasNoPeriod(t *testing.T) {
	cal := testCalendar(t)
	history := []models.DegreeHistory{{EntityID: "S1", EntryDate: datePtr(2019, time.September, 1)}}

	events := ExtractEvents(cal, history, nil)
	require.Len(t, events, 1)
	assert.False(t, events[0].Resolved())
}

func TestExtractEventsActiveSpanSkipsNonAttemptedRows(t *testing.T) {
	cal := testCalendar(t)
	dropped := credit("S1", "2024SP", 3)
	dropped.TransactionStatus = models.TransactionDropped
	transferGrade := credit("S1", "2024S1", 3)
	transferGrade.GradeCode = models.GradeTransfer
	transferTerm := credit("S1", "2025SP", 3)
	transferTerm.TransferTerm = true
	nonCredit := credit("S1", "2025SP", 3)
	nonCredit.CreditType = models.CreditTypeNonCredit
	zero := models.ActivityRecord{EntityID: "S1", CalendarKey: "2024SP", CreditHours: decimal.Zero}

	activity := []models.ActivityRecord{
		dropped, transferGrade, transferTerm, nonCredit, zero,
		credit("S1", "2024FA", 6),
		credit("S1", "2024S2", 3),
		credit("S1", "1999FA", 3),
	}

	events := ExtractEvents(cal, nil, activity)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventFirstActive, events[0].Kind)
	assert.Equal(t, 202406, events[0].PeriodCode)
	assert.Equal(t, day(2024, time.June, 17), events[0].Date)
	assert.Equal(t, models.EventLastActive, events[1].Kind)
	assert.Equal(t, 202409, events[1].PeriodCode)
}

func TestExtractEventsOrdering(t *testing.T) {
	cal := testCalendar(t)
	history := []models.DegreeHistory{
		{EntityID: "S2", EntryDate: datePtr(2024, time.August, 26)},
		{EntityID: "S1", ConferredDate: datePtr(2024, time.August, 26), WithdrawalDate: datePtr(2024, time.August, 26)},
	}
	activity := []models.ActivityRecord{credit("S1", "2024FA", 12)}

	events := ExtractEvents(cal, history, activity)
	require.Len(t, events, 5)
	kinds := make([]models.EventKind, 0, 4)
	for _, ev := range events[:4] {
		require.Equal(t, "S1", ev.EntityID)
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []models.EventKind{
		models.EventDegreeConferred,
		models.EventWithdrawal,
		models.EventFirstActive,
		models.EventLastActive,
	}, kinds)
	assert.Equal(t, "S2", events[4].EntityID)
}
