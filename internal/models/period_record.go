package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LoadIndicator is the full/part-time classification for a period.
type LoadIndicator string

const (
	LoadFullTime LoadIndicator = "F"
	LoadPartTime LoadIndicator = "P"
)

// EnrollmentStatus is the period-level enrollment status code.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "AS"
	EnrollmentInactive  EnrollmentStatus = "IS"
	EnrollmentGraduated EnrollmentStatus = "GR"
)

// StudentType is the student-type code.
type StudentType string

const (
	StudentTypeTransfer            StudentType = "2"
	StudentTypeNative              StudentType = "3"
	StudentTypeNonDegree           StudentType = "9"
	StudentTypeContinuing          StudentType = "A"
	StudentTypeContinuingNonDegree StudentType = "C"
)

// LevelCode is the academic level bucket. The empty value means unknown.
type LevelCode string

const (
	LevelAdultEducation LevelCode = "AE"
	LevelUndergraduate  LevelCode = "UG"
	LevelVocational     LevelCode = "VO"
	LevelContinuingEd   LevelCode = "CE"
)

// ProgramAssignment holds the resolved target codes for one program slot.
// Empty strings are null.
type ProgramAssignment struct {
	College       string `json:"college,omitempty"`
	Degree        string `json:"degree,omitempty"`
	Major         string `json:"major,omitempty"`
	Concentration string `json:"concentration,omitempty"`
	Program       string `json:"program,omitempty"`
}

// IsZero reports whether no field resolved.
func (p ProgramAssignment) IsZero() bool {
	return p == ProgramAssignment{}
}

// MajorSlot is a major candidate seen on an event in a period.
type MajorSlot struct {
	Major         string `json:"major"`
	Concentration string `json:"concentration,omitempty"`
}

// CarryMask flags the fields of a PeriodRecord that hold a carried-forward value.
type CarryMask uint16

// Has reports whether every bit in f is set.
func (m CarryMask) Has(f CarryMask) bool {
	return m&f == f
}

// PeriodRecord is the aggregated facts and derived codes for one entity in one period.
type PeriodRecord struct {
	EntityID       string              `json:"entity_id"`
	PeriodCode     int                 `json:"period_code"`
	AttemptedHours decimal.NullDecimal `json:"attempted_hours"`
	EventKinds     []EventKind         `json:"event_kinds,omitempty"`
	ReasonCodes    []string            `json:"reason_codes,omitempty"`
	Majors         []MajorSlot         `json:"majors,omitempty"`
	Degrees        []string            `json:"degrees,omitempty"`
	DegreeLevel    *int                `json:"degree_level,omitempty"`
	CreditRank     *int                `json:"credit_rank,omitempty"`
	IsFirstPeriod  bool                `json:"is_first_period"`
	IsLastPeriod   bool                `json:"is_last_period"`

	Load         LoadIndicator    `json:"load,omitempty"`
	Seed         StudentType      `json:"seed,omitempty"`
	StudentType  StudentType      `json:"student_type,omitempty"`
	HistoryStart bool             `json:"history_start"`
	HistoryGroup int              `json:"history_group"`
	AdmitPeriod  int              `json:"admit_period,omitempty"`
	AdmitLoad    LoadIndicator    `json:"admit_load,omitempty"`
	Status       EnrollmentStatus `json:"status,omitempty"`
	Level        LevelCode        `json:"level,omitempty"`

	Slot1       ProgramAssignment `json:"slot_1"`
	Slot2       ProgramAssignment `json:"slot_2"`
	Certificate ProgramAssignment `json:"certificate"`
	Carried     CarryMask         `json:"carried,omitempty"`
}

// HasEvent reports whether any of the kinds occurred in the period.
func (r *PeriodRecord) HasEvent(kinds ...EventKind) bool {
	for _, have := range r.EventKinds {
		for _, want := range kinds {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasEvents reports whether the period carries at least one lifecycle event.
func (r *PeriodRecord) HasEvents() bool {
	return len(r.EventKinds) > 0
}

// JoinedKinds renders the event kinds semicolon-delimited in arrival order.
func (r *PeriodRecord) JoinedKinds() string {
	parts := make([]string, len(r.EventKinds))
	for i, k := range r.EventKinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ";")
}

// JoinedReasons renders the reason codes semicolon-delimited in arrival order.
func (r *PeriodRecord) JoinedReasons() string {
	return strings.Join(r.ReasonCodes, ";")
}
