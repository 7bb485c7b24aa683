package models

// OutputView distinguishes the record's own period from the forecast placeholder.
type OutputView string

const (
	ViewCurrent  OutputView = "current"
	ViewForecast OutputView = "forecast"
)

// Rank orders views within one entity and period.
func (v OutputView) Rank() int {
	if v == ViewForecast {
		return 1
	}
	return 0
}

// OutputRecord is one row of the final sequence.
type OutputRecord struct {
	SourceID           string            `json:"source_id"`
	TargetID           *int64            `json:"target_id"`
	PeriodCode         int               `json:"period_code"`
	OriginalPeriodCode int               `json:"original_period_code"`
	View               OutputView        `json:"view"`
	AdmitPeriod        int               `json:"admit_period,omitempty"`
	Status             EnrollmentStatus  `json:"status"`
	StudentType        StudentType       `json:"student_type"`
	Load               LoadIndicator     `json:"load"`
	AdmitLoad          LoadIndicator     `json:"admit_load"`
	Level              LevelCode         `json:"level,omitempty"`
	Slot1              ProgramAssignment `json:"slot_1"`
	Slot2              ProgramAssignment `json:"slot_2"`
	Certificate        ProgramAssignment `json:"certificate"`
	EventKinds         string            `json:"event_kinds,omitempty"`
	ReasonCodes        string            `json:"reason_codes,omitempty"`
}

// Loadable reports whether the target system can accept the row.
func (o OutputRecord) Loadable() bool {
	return o.TargetID != nil
}
