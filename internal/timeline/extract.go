package timeline

import (
	"sort"
	"time"

	"github.com/noah-isme/term-timeline/internal/models"
)

// ExtractEvents emits one event per populated milestone date on each degree
// history row, plus first_active and last_active events derived from the
// attempted-hours rows. Events carry the period whose interval contains their
// date, or zero when none does. Output is ordered by entity, date and kind.
func ExtractEvents(cal *Calendar, history []models.DegreeHistory, activity []models.ActivityRecord) []models.LifecycleEvent {
	events := make([]models.LifecycleEvent, 0, len(history)*2)

	for _, row := range history {
		milestones := []struct {
			date   *time.Time
			kind   models.EventKind
			reason string
		}{
			{row.EntryDate, models.EventEntry, ""},
			{row.ExitDate, models.EventExit, row.ExitReason},
			{row.ConferredDate, models.EventDegreeConferred, ""},
			{row.WithdrawalDate, models.EventWithdrawal, row.WithdrawalReason},
		}
		for _, m := range milestones {
			if m.date == nil || m.date.IsZero() {
				continue
			}
			ev := models.LifecycleEvent{
				EntityID:       row.EntityID,
				Date:           models.TruncateDay(*m.date),
				Kind:           m.kind,
				Reason:         m.reason,
				Major1:         row.Major1,
				Major2:         row.Major2,
				Concentration1: row.Concentration1,
				DegreeCode:     row.DegreeCode,
				DivisionCode:   row.DivisionCode,
			}
			if p, ok := cal.Lookup(ev.Date); ok {
				ev.PeriodCode = p.Code
			}
			events = append(events, ev)
		}
	}

	for entityID, span := range activeSpans(cal, activity) {
		events = append(events,
			models.LifecycleEvent{EntityID: entityID, Date: span.first.StartDate, Kind: models.EventFirstActive, PeriodCode: span.first.Code},
			models.LifecycleEvent{EntityID: entityID, Date: span.last.StartDate, Kind: models.EventLastActive, PeriodCode: span.last.Code},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Kind.Rank() < b.Kind.Rank()
	})
	return events
}

type activeSpan struct {
	first models.Period
	last  models.Period
}

// activeSpans finds, per entity, the earliest and latest period with attempted hours.
func activeSpans(cal *Calendar, activity []models.ActivityRecord) map[string]activeSpan {
	spans := make(map[string]activeSpan)
	for _, row := range activity {
		if !row.Attempted() {
			continue
		}
		p, ok := cal.ByKey(row.CalendarKey)
		if !ok {
			continue
		}
		span, seen := spans[row.EntityID]
		if !seen {
			spans[row.EntityID] = activeSpan{first: p, last: p}
			continue
		}
		if p.Code < span.first.Code {
			span.first = p
		}
		if p.Code > span.last.Code {
			span.last = p
		}
		spans[row.EntityID] = span
	}
	return spans
}
