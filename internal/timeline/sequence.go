package timeline

import (
	"sort"

	"github.com/noah-isme/term-timeline/internal/models"
)

// Renormalize collapses a summer-session code into the preceding code.
func Renormalize(code, summerMarker int) int {
	if code > 0 && code%100 == summerMarker {
		return code - 1
	}
	return code
}

// SequenceStats counts the sequencer's data-quality conditions.
type SequenceStats struct {
	Current           int
	Forecast          int
	Collisions        int
	MissingIdentities int
}

// Sequence emits the current and forecast views for every entity and sorts
// them by target id, renormalized period and view. Entities without an
// identity mapping are kept with a nil TargetID and sort last.
func Sequence(timelines []*EntityTimeline, cal *Calendar, ids map[string]int64, opts Options) ([]models.OutputRecord, SequenceStats) {
	var stats SequenceStats
	out := make([]models.OutputRecord, 0)
	for _, tl := range timelines {
		var target *int64
		if id, ok := ids[tl.EntityID]; ok {
			v := id
			target = &v
		}

		current, collisions := currentView(tl, target, opts)
		forecast := forecastView(tl, cal, target, opts)
		stats.Current += len(current)
		stats.Forecast += len(forecast)
		stats.Collisions += collisions
		if target == nil {
			stats.MissingIdentities += len(current) + len(forecast)
		}
		out = append(out, current...)
		out = append(out, forecast...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case (a.TargetID == nil) != (b.TargetID == nil):
			return a.TargetID != nil
		case a.TargetID != nil && *a.TargetID != *b.TargetID:
			return *a.TargetID < *b.TargetID
		case a.SourceID != b.SourceID:
			return a.SourceID < b.SourceID
		case a.PeriodCode != b.PeriodCode:
			return a.PeriodCode < b.PeriodCode
		}
		return a.View.Rank() < b.View.Rank()
	})
	return out, stats
}

// currentView emits one record per period. When renormalization maps two
// periods onto the same code the later original period replaces the earlier.
func currentView(tl *EntityTimeline, target *int64, opts Options) ([]models.OutputRecord, int) {
	out := make([]models.OutputRecord, 0, len(tl.Records))
	collisions := 0
	for _, rec := range tl.Records {
		row := outputRow(tl.EntityID, target, rec, opts)
		row.View = models.ViewCurrent
		if n := len(out); n > 0 && out[n-1].PeriodCode == row.PeriodCode {
			out[n-1] = row
			collisions++
			continue
		}
		out = append(out, row)
	}
	return out, collisions
}

// forecastView emits the placeholder for the period after an entity's only
// event period.
func forecastView(tl *EntityTimeline, cal *Calendar, target *int64, opts Options) []models.OutputRecord {
	if tl.EventPeriods != 1 || len(tl.Records) == 0 {
		return nil
	}
	rec := tl.Records[len(tl.Records)-1]
	next := cal.Next(rec.PeriodCode)

	row := outputRow(tl.EntityID, target, rec, opts)
	row.View = models.ViewForecast
	row.OriginalPeriodCode = next
	row.PeriodCode = Renormalize(next, opts.SummerMarker)
	row.Status = models.EnrollmentActive
	if next < opts.CurrentPeriod {
		row.Status = models.EnrollmentInactive
	}
	return []models.OutputRecord{row}
}

func outputRow(entityID string, target *int64, rec *models.PeriodRecord, opts Options) models.OutputRecord {
	return models.OutputRecord{
		SourceID:           entityID,
		TargetID:           target,
		PeriodCode:         Renormalize(rec.PeriodCode, opts.SummerMarker),
		OriginalPeriodCode: rec.PeriodCode,
		AdmitPeriod:        Renormalize(rec.AdmitPeriod, opts.SummerMarker),
		Status:             rec.Status,
		StudentType:        rec.StudentType,
		Load:               rec.Load,
		AdmitLoad:          rec.AdmitLoad,
		Level:              rec.Level,
		Slot1:              rec.Slot1,
		Slot2:              rec.Slot2,
		Certificate:        rec.Certificate,
		EventKinds:         rec.JoinedKinds(),
		ReasonCodes:        rec.JoinedReasons(),
	}
}
