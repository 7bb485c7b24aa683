package timeline

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/term-timeline/internal/models"
)

// CandidacyLoads is the externally supplied load flag per (entity, period).
type CandidacyLoads map[periodKey]models.LoadIndicator

// NewCandidacyLoads indexes candidacy rows by period. Rows with an unknown
// calendar key or an unrecognized flag are ignored.
func NewCandidacyLoads(cal *Calendar, rows []models.Candidacy) CandidacyLoads {
	loads := make(CandidacyLoads, len(rows))
	for _, row := range rows {
		p, ok := cal.ByKey(row.CalendarKey)
		if !ok {
			continue
		}
		switch models.LoadIndicator(row.LoadFlag) {
		case models.LoadFullTime, models.LoadPartTime:
			loads[periodKey{row.EntityID, p.Code}] = models.LoadIndicator(row.LoadFlag)
		}
	}
	return loads
}

// Get returns the flag for the entity in the period.
func (c CandidacyLoads) Get(entityID string, period int) (models.LoadIndicator, bool) {
	v, ok := c[periodKey{entityID, period}]
	return v, ok
}

// LoadFromHours classifies summed attempted hours. It reports false when the
// period has no positive hours.
func LoadFromHours(hours decimal.NullDecimal, fullTime decimal.Decimal) (models.LoadIndicator, bool) {
	if !hours.Valid || !hours.Decimal.IsPositive() {
		return "", false
	}
	if hours.Decimal.GreaterThanOrEqual(fullTime) {
		return models.LoadFullTime, true
	}
	return models.LoadPartTime, true
}

// StatusFacts are the inputs of the enrollment-status decision table.
type StatusFacts struct {
	SinglePeriod    bool
	LastPeriod      bool
	BeforeCurrent   bool
	InWindow        bool
	ExitSignal      bool
	ActiveSignal    bool
	DegreeConferred bool
}

type statusRule struct {
	name   string
	match  func(StatusFacts) bool
	status models.EnrollmentStatus
}

// statusRules are evaluated in order; the first match wins.
var statusRules = []statusRule{
	{"single lifetime period", func(f StatusFacts) bool { return f.SinglePeriod }, models.EnrollmentActive},
	{"last period before current", func(f StatusFacts) bool { return f.LastPeriod && f.BeforeCurrent }, models.EnrollmentInactive},
	{"exit signal before current", func(f StatusFacts) bool { return f.ExitSignal && f.BeforeCurrent }, models.EnrollmentInactive},
	{"exit signal in operational window", func(f StatusFacts) bool { return f.ExitSignal && f.InWindow }, models.EnrollmentActive},
	{"enrollment signal", func(f StatusFacts) bool { return f.ActiveSignal }, models.EnrollmentActive},
	{"degree conferred", func(f StatusFacts) bool { return f.DegreeConferred }, models.EnrollmentGraduated},
}

// DeriveStatus runs the decision table. Periods that match no rule still
// carry activity and are reported active.
func DeriveStatus(f StatusFacts) models.EnrollmentStatus {
	for _, rule := range statusRules {
		if rule.match(f) {
			return rule.status
		}
	}
	return models.EnrollmentActive
}

// LevelFromDegreeLevel maps a degree-level rank to its level bucket.
func LevelFromDegreeLevel(level *int) models.LevelCode {
	if level == nil {
		return ""
	}
	switch *level {
	case DegreeLevelAdultEducation:
		return models.LevelAdultEducation
	case DegreeLevelUndergraduate:
		return models.LevelUndergraduate
	case DegreeLevelVocational:
		return models.LevelVocational
	case DegreeLevelCertificate:
		return models.LevelContinuingEd
	}
	return ""
}

// LevelFromCreditRank maps a credit-type rank to its level bucket.
func LevelFromCreditRank(rank *int) models.LevelCode {
	if rank == nil {
		return ""
	}
	switch *rank {
	case 3:
		return models.LevelUndergraduate
	case 2:
		return models.LevelVocational
	case 1:
		return models.LevelContinuingEd
	}
	return ""
}

// Classify derives load, student type, history groups, enrollment status and
// level for one entity. Records must be in ascending period order.
func Classify(tl *EntityTimeline, loads CandidacyLoads, opts Options) {
	recs := tl.Records
	for i, rec := range recs {
		rec.Load = resolveLoad(tl, i, loads, opts.FullTimeHours)
		rec.Seed = studentTypeSeed(rec, tl.Transfer, opts.DegreeSeedTokens)
	}

	group := 0
	for i, rec := range recs {
		rec.HistoryStart = rec.HasEvent(models.EventEntry, models.EventFirstActive)
		if rec.HistoryStart {
			group++
		}
		rec.HistoryGroup = group

		if i == 0 || recs[i-1].HistoryGroup != group {
			rec.StudentType = rec.Seed
			rec.AdmitPeriod = rec.PeriodCode
			rec.AdmitLoad = rec.Load
		} else {
			prev := recs[i-1]
			rec.AdmitPeriod = prev.AdmitPeriod
			rec.AdmitLoad = prev.AdmitLoad
			switch {
			case !rec.HistoryStart && prev.Seed == models.StudentTypeNonDegree:
				rec.StudentType = models.StudentTypeContinuingNonDegree
			case prev.Seed == models.StudentTypeNative || prev.Seed == models.StudentTypeTransfer:
				rec.StudentType = models.StudentTypeContinuing
			default:
				rec.StudentType = rec.Seed
			}
		}
	}

	window := opts.operationalWindow()
	for i, rec := range recs {
		_, inWindow := window[rec.PeriodCode]
		rec.Status = DeriveStatus(StatusFacts{
			SinglePeriod:    tl.EventPeriods == 1,
			LastPeriod:      rec.IsLastPeriod,
			BeforeCurrent:   rec.PeriodCode < opts.CurrentPeriod,
			InWindow:        inWindow,
			ExitSignal:      rec.HasEvent(models.EventLastActive, models.EventWithdrawal),
			ActiveSignal:    rec.HasEvent(models.EventFirstActive, models.EventEntry, models.EventExit),
			DegreeConferred: rec.HasEvent(models.EventDegreeConferred),
		})
		rec.Level = resolveLevel(recs, i)
	}
}

// resolveLoad applies the hours rule, then the neighbor's hours (following for
// the entity's first active period, preceding otherwise), then the candidacy
// flag, and finally defaults to full time.
func resolveLoad(tl *EntityTimeline, i int, loads CandidacyLoads, fullTime decimal.Decimal) models.LoadIndicator {
	recs := tl.Records
	if load, ok := LoadFromHours(recs[i].AttemptedHours, fullTime); ok {
		return load
	}
	neighbor := i - 1
	if recs[i].IsFirstPeriod {
		neighbor = i + 1
	}
	if neighbor >= 0 && neighbor < len(recs) {
		if load, ok := LoadFromHours(recs[neighbor].AttemptedHours, fullTime); ok {
			return load
		}
	}
	if load, ok := loads.Get(tl.EntityID, recs[i].PeriodCode); ok {
		return load
	}
	return models.LoadFullTime
}

func studentTypeSeed(rec *models.PeriodRecord, transfer bool, degreeTokens []string) models.StudentType {
	if rec.DegreeLevel != nil && *rec.DegreeLevel < DegreeLevelUndergraduate && !containsAny(rec.Degrees, degreeTokens) {
		return models.StudentTypeNonDegree
	}
	if transfer {
		return models.StudentTypeTransfer
	}
	return models.StudentTypeNative
}

func resolveLevel(recs []*models.PeriodRecord, i int) models.LevelCode {
	rec := recs[i]
	if rec.DegreeLevel != nil {
		return LevelFromDegreeLevel(rec.DegreeLevel)
	}

	lastActive := rec.HasEvent(models.EventLastActive)
	started := rec.HasEvent(models.EventFirstActive)
	switch {
	case lastActive && started:
		return LevelFromCreditRank(rec.CreditRank)
	case lastActive:
		if i > 0 {
			if level := LevelFromDegreeLevel(recs[i-1].DegreeLevel); level != "" {
				return level
			}
		}
		return LevelFromCreditRank(rec.CreditRank)
	case started:
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(recs) || !recs[j].HasEvent(models.EventEntry) {
				continue
			}
			if level := LevelFromDegreeLevel(recs[j].DegreeLevel); level != "" {
				return level
			}
			break
		}
		return LevelFromCreditRank(rec.CreditRank)
	}
	return ""
}

func containsAny(values, tokens []string) bool {
	for _, v := range values {
		for _, t := range tokens {
			if v == t {
				return true
			}
		}
	}
	return false
}
