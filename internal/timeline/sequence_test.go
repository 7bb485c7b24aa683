package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
)

func TestRenormalize(t *testing.T) {
	assert.Equal(t, 202405, Renormalize(202406, 6))
	assert.Equal(t, 202409, Renormalize(202409, 6))
	assert.Equal(t, 202501, Renormalize(202501, 6))
	assert.Equal(t, 0, Renormalize(0, 6))
}

func TestSequenceSummerCollisionKeepsLaterPeriod(t *testing.T) {
	cal := testCalendar(t)
	a, b := rec(202405, models.EventEntry), rec(202406, models.EventExit)
	a.Status, b.Status = models.EnrollmentActive, models.EnrollmentInactive
	tl := &EntityTimeline{EntityID: "S1", Records: []*models.PeriodRecord{a, b}, EventPeriods: 2}

	out, stats := Sequence([]*EntityTimeline{tl}, cal, map[string]int64{"S1": 7}, testOptions())

	require.Len(t, out, 1)
	assert.Equal(t, 202405, out[0].PeriodCode)
	assert.Equal(t, 202406, out[0].OriginalPeriodCode)
	assert.Equal(t, models.EnrollmentInactive, out[0].Status)
	assert.Equal(t, "exit", out[0].EventKinds)
	assert.Equal(t, SequenceStats{Current: 1, Collisions: 1}, stats)
}

func TestSequenceForecastStatus(t *testing.T) {
	cal := testCalendar(t)
	future := &EntityTimeline{EntityID: "A", Records: []*models.PeriodRecord{rec(202409, models.EventFirstActive)}, EventPeriods: 1}
	past := &EntityTimeline{EntityID: "B", Records: []*models.PeriodRecord{rec(202401, models.EventEntry)}, EventPeriods: 1}
	multi := &EntityTimeline{EntityID: "C", Records: []*models.PeriodRecord{rec(202401, models.EventEntry), rec(202405, models.EventExit)}, EventPeriods: 2}
	ids := map[string]int64{"A": 1, "B": 2, "C": 3}

	out, stats := Sequence([]*EntityTimeline{future, past, multi}, cal, ids, testOptions())

	forecasts := map[string]models.OutputRecord{}
	for _, r := range out {
		if r.View == models.ViewForecast {
			forecasts[r.SourceID] = r
		}
	}
	require.Len(t, forecasts, 2)
	assert.Equal(t, 202501, forecasts["A"].PeriodCode)
	assert.Equal(t, models.EnrollmentActive, forecasts["A"].Status)
	assert.Equal(t, 202405, forecasts["B"].PeriodCode)
	assert.Equal(t, models.EnrollmentInactive, forecasts["B"].Status)
	assert.Equal(t, 2, stats.Forecast)
	assert.Equal(t, 4, stats.Current)
}

func TestSequenceOrdering(t *testing.T) {
	cal := testCalendar(t)
	mk := func(id string, periods ...int) *EntityTimeline {
		tl := &EntityTimeline{EntityID: id, EventPeriods: len(periods)}
		for _, p := range periods {
			tl.Records = append(tl.Records, rec(p, models.EventEntry))
		}
		return tl
	}
	timelines := []*EntityTimeline{mk("A", 202401, 202409), mk("Z", 202405, 202409), mk("B", 202409, 202501)}
	ids := map[string]int64{"A": 20, "B": 10}

	out, stats := Sequence(timelines, cal, ids, testOptions())

	got := make([]string, len(out))
	for i, r := range out {
		got[i] = r.SourceID
	}
	assert.Equal(t, []string{"B", "B", "A", "A", "Z", "Z"}, got)
	assert.Nil(t, out[4].TargetID)
	assert.False(t, out[4].Loadable())
	assert.True(t, out[0].Loadable())
	assert.Equal(t, 2, stats.MissingIdentities)
	for i := 1; i < len(out); i++ {
		if out[i].SourceID == out[i-1].SourceID {
			assert.Less(t, out[i-1].PeriodCode, out[i].PeriodCode)
		}
	}
}
