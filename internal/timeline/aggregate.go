package timeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/term-timeline/internal/models"
)

// Degree-level ranks inferred from degree and division codes.
const (
	DegreeLevelAdultEducation = -1
	DegreeLevelNonDegree      = 0
	DegreeLevelCertificate    = 1
	DegreeLevelVocational     = 2
	DegreeLevelUndergraduate  = 3
)

var undergraduateDegrees = map[string]struct{}{
	"A": {}, "AGS": {}, "BA": {}, "BS": {}, "BSW": {}, "S": {},
}

// DegreeLevel ranks one degree/division pair; nil means no inferable level.
func DegreeLevel(degree, division string) *int {
	var level int
	switch {
	case division == "U":
		level = DegreeLevelUndergraduate
	case inSet(undergraduateDegrees, degree):
		level = DegreeLevelUndergraduate
	case degree == "V":
		level = DegreeLevelVocational
	case degree == "C":
		level = DegreeLevelCertificate
	case degree == "NDA":
		level = DegreeLevelNonDegree
	case division == "A":
		level = DegreeLevelAdultEducation
	default:
		return nil
	}
	return &level
}

// CreditRank ranks a credit-type code; nil for unranked types.
func CreditRank(creditType string) *int {
	var rank int
	switch creditType {
	case models.CreditTypeCredit:
		rank = 3
	case models.CreditTypeVocational:
		rank = 2
	case models.CreditTypeContinuing:
		rank = 1
	default:
		return nil
	}
	return &rank
}

// EntityTimeline is one entity's ordered period records plus the per-entity
// facts the classifier reads.
type EntityTimeline struct {
	EntityID string
	Records  []*models.PeriodRecord
	// EventPeriods is the number of distinct periods with any event.
	EventPeriods      int
	FirstActivePeriod int
	Transfer          bool
}

// Aggregation is the grouped output of the aggregator.
type Aggregation struct {
	Timelines         []*EntityTimeline
	Events            int
	DroppedEvents     int
	UnmatchedActivity int
}

// Records returns the number of period records across all entities.
func (a *Aggregation) Records() int {
	n := 0
	for _, tl := range a.Timelines {
		n += len(tl.Records)
	}
	return n
}

type periodKey struct {
	entityID string
	period   int
}

// Aggregate groups events and attempted hours by (entity, period). Events
// without a period are counted and dropped.
func Aggregate(cal *Calendar, events []models.LifecycleEvent, activity []models.ActivityRecord) *Aggregation {
	agg := &Aggregation{Events: len(events)}
	records := make(map[periodKey]*models.PeriodRecord)
	order := make([]periodKey, 0)
	transfer := make(map[string]bool)
	firstActive := make(map[string]int)

	record := func(key periodKey) *models.PeriodRecord {
		if rec, ok := records[key]; ok {
			return rec
		}
		rec := &models.PeriodRecord{EntityID: key.entityID, PeriodCode: key.period}
		records[key] = rec
		order = append(order, key)
		return rec
	}

	for _, ev := range events {
		if !ev.Resolved() {
			agg.DroppedEvents++
			continue
		}
		rec := record(periodKey{ev.EntityID, ev.PeriodCode})
		rec.EventKinds = append(rec.EventKinds, ev.Kind)
		if ev.Reason != "" {
			rec.ReasonCodes = append(rec.ReasonCodes, ev.Reason)
		}
		if ev.Major1 != "" {
			rec.Majors = append(rec.Majors, models.MajorSlot{Major: ev.Major1, Concentration: ev.Concentration1})
		}
		if ev.Major2 != "" {
			rec.Majors = append(rec.Majors, models.MajorSlot{Major: ev.Major2})
		}
		if ev.DegreeCode != "" {
			rec.Degrees = append(rec.Degrees, ev.DegreeCode)
		}
		rec.DegreeLevel = maxRank(rec.DegreeLevel, DegreeLevel(ev.DegreeCode, ev.DivisionCode))
		if ev.Kind == models.EventFirstActive {
			firstActive[ev.EntityID] = ev.PeriodCode
		}
	}

	ranks := make(map[periodKey]*int)
	for _, row := range activity {
		if row.TransferTerm || row.TransferYear {
			transfer[row.EntityID] = true
		}
		p, ok := cal.ByKey(row.CalendarKey)
		if !ok {
			agg.UnmatchedActivity++
			continue
		}
		key := periodKey{row.EntityID, p.Code}
		if row.CreditHours.IsPositive() && row.TransactionStatus != models.TransactionDropped {
			ranks[key] = maxRank(ranks[key], CreditRank(row.CreditType))
		}
		if !row.Attempted() {
			continue
		}
		rec := record(key)
		sum := row.CreditHours
		if rec.AttemptedHours.Valid {
			sum = rec.AttemptedHours.Decimal.Add(sum)
		}
		rec.AttemptedHours = decimal.NewNullDecimal(sum)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].entityID != order[j].entityID {
			return order[i].entityID < order[j].entityID
		}
		return order[i].period < order[j].period
	})

	var current *EntityTimeline
	for _, key := range order {
		rec := records[key]
		rec.CreditRank = ranks[key]
		if current == nil || current.EntityID != key.entityID {
			current = &EntityTimeline{
				EntityID:          key.entityID,
				FirstActivePeriod: firstActive[key.entityID],
				Transfer:          transfer[key.entityID],
			}
			agg.Timelines = append(agg.Timelines, current)
		}
		rec.IsFirstPeriod = current.FirstActivePeriod != 0 && rec.PeriodCode == current.FirstActivePeriod
		if rec.HasEvents() {
			current.EventPeriods++
		}
		current.Records = append(current.Records, rec)
	}
	for _, tl := range agg.Timelines {
		tl.Records[len(tl.Records)-1].IsLastPeriod = true
	}
	return agg
}

func maxRank(current, candidate *int) *int {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate > *current {
		v := *candidate
		return &v
	}
	return current
}

func inSet(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
