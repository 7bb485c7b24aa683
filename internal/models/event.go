package models

import "time"

// EventKind enumerates lifecycle milestones.
type EventKind string

// Lifecycle event kinds. EventFirstActive marks the start of enrollment.
const (
	EventEntry           EventKind = "entry"
	EventExit            EventKind = "exit"
	EventDegreeConferred EventKind = "degree_conferred"
	EventWithdrawal      EventKind = "withdrawal"
	EventFirstActive     EventKind = "first_active"
	EventLastActive      EventKind = "last_active"
)

var eventKindRank = map[EventKind]int{
	EventEntry:           0,
	EventExit:            1,
	EventDegreeConferred: 2,
	EventWithdrawal:      3,
	EventFirstActive:     4,
	EventLastActive:      5,
}

// Rank orders kinds that share a date.
func (k EventKind) Rank() int {
	if r, ok := eventKindRank[k]; ok {
		return r
	}
	return len(eventKindRank)
}

// LifecycleEvent is a dated milestone for one entity. PeriodCode is zero when
// the date does not fall inside any calendar interval.
type LifecycleEvent struct {
	EntityID       string    `json:"entity_id"`
	Date           time.Time `json:"date"`
	Kind           EventKind `json:"kind"`
	Reason         string    `json:"reason,omitempty"`
	Major1         string    `json:"major_1,omitempty"`
	Major2         string    `json:"major_2,omitempty"`
	Concentration1 string    `json:"concentration_1,omitempty"`
	DegreeCode     string    `json:"degree_code,omitempty"`
	DivisionCode   string    `json:"division_code,omitempty"`
	PeriodCode     int       `json:"period_code,omitempty"`
}

// Resolved reports whether the event was matched to a period.
func (e LifecycleEvent) Resolved() bool {
	return e.PeriodCode != 0
}
