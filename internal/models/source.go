package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction, grade and credit-type codes found on raw activity rows.
const (
	TransactionDropped = "D"
	GradeTransfer      = "TR"

	CreditTypeCredit     = "CR"
	CreditTypeVocational = "VO"
	CreditTypeContinuing = "CE"
	CreditTypeNonCredit  = "NC"
)

// ActivityRecord is one course-level attempted-hours row.
type ActivityRecord struct {
	EntityID          string          `db:"entity_id" json:"entity_id"`
	CalendarKey       string          `db:"calendar_key" json:"calendar_key"`
	TransactionStatus string          `db:"transaction_status" json:"transaction_status"`
	GradeCode         string          `db:"grade_code" json:"grade_code"`
	CreditHours       decimal.Decimal `db:"credit_hours" json:"credit_hours"`
	CreditType        string          `db:"credit_type" json:"credit_type"`
	TransferTerm      bool            `db:"transfer_term" json:"transfer_term"`
	TransferYear      bool            `db:"transfer_year" json:"transfer_year"`
}

// Attempted reports whether the row counts toward attempted hours.
func (a ActivityRecord) Attempted() bool {
	if !a.CreditHours.IsPositive() {
		return false
	}
	switch {
	case a.TransactionStatus == TransactionDropped:
		return false
	case a.GradeCode == GradeTransfer:
		return false
	case a.TransferTerm:
		return false
	case a.CreditType == CreditTypeNonCredit:
		return false
	}
	return true
}

// DegreeHistory is one program-of-study row with its milestone dates.
type DegreeHistory struct {
	EntityID         string     `db:"entity_id" json:"entity_id"`
	EntryDate        *time.Time `db:"entry_date" json:"entry_date,omitempty"`
	ExitDate         *time.Time `db:"exit_date" json:"exit_date,omitempty"`
	ConferredDate    *time.Time `db:"conferred_date" json:"conferred_date,omitempty"`
	WithdrawalDate   *time.Time `db:"withdrawal_date" json:"withdrawal_date,omitempty"`
	ExitReason       string     `db:"exit_reason" json:"exit_reason"`
	WithdrawalReason string     `db:"withdrawal_reason" json:"withdrawal_reason"`
	Major1           string     `db:"major_1" json:"major_1"`
	Major2           string     `db:"major_2" json:"major_2"`
	Concentration1   string     `db:"concentration_1" json:"concentration_1"`
	DegreeCode       string     `db:"degree_code" json:"degree_code"`
	DivisionCode     string     `db:"division_code" json:"division_code"`
}

// Candidacy carries the externally supplied load flag for an entity in a term.
type Candidacy struct {
	EntityID      string `db:"entity_id" json:"entity_id"`
	CalendarKey   string `db:"calendar_key" json:"calendar_key"`
	LoadFlag      string `db:"load_flag" json:"load_flag"`
	CandidacyType string `db:"candidacy_type" json:"candidacy_type"`
}

// MajorDefinition maps a major code to its degree code.
type MajorDefinition struct {
	MajorCode  string `db:"major_code" json:"major_code"`
	DegreeCode string `db:"degree_code" json:"degree_code"`
}

// ProgramEntry is one row of the program dictionary. Active distinguishes the
// dictionary of currently offered programs from the historical one.
type ProgramEntry struct {
	DegreeCode        string `db:"degree_code" json:"degree_code"`
	MajorCode         string `db:"major_code" json:"major_code"`
	ConcentrationCode string `db:"concentration_code" json:"concentration_code"`
	TargetCollege     string `db:"target_college" json:"target_college"`
	TargetDegree      string `db:"target_degree" json:"target_degree"`
	TargetMajor       string `db:"target_major" json:"target_major"`
	TargetConc        string `db:"target_concentration" json:"target_concentration"`
	TargetProgram     string `db:"target_program" json:"target_program"`
	Active            bool   `db:"active" json:"active"`
}

// Assignment converts the dictionary row into the resolved program codes.
func (p ProgramEntry) Assignment() ProgramAssignment {
	return ProgramAssignment{
		College:       p.TargetCollege,
		Degree:        p.TargetDegree,
		Major:         p.TargetMajor,
		Concentration: p.TargetConc,
		Program:       p.TargetProgram,
	}
}

// IdentityMapping links a source-system entity id to the target numeric id.
type IdentityMapping struct {
	SourceID string `db:"source_id" json:"source_id"`
	TargetID int64  `db:"target_id" json:"target_id"`
}
