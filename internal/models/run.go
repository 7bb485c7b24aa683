package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus represents the lifecycle of a timeline run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Finished reports whether the run reached a terminal status.
func (s RunStatus) Finished() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// RunStats are the observable counters of one engine pass.
type RunStats struct {
	Periods            int `json:"periods"`
	Entities           int `json:"entities"`
	EventsEmitted      int `json:"events_emitted"`
	EventsDropped      int `json:"events_dropped"`
	UnmatchedActivity  int `json:"unmatched_activity"`
	PeriodRecords      int `json:"period_records"`
	AmbiguousPrograms  int `json:"ambiguous_programs"`
	UnresolvedPrograms int `json:"unresolved_programs"`
	ProgramDefaults    int `json:"program_defaults"`
	SummerCollisions   int `json:"summer_collisions"`
	MissingIdentities  int `json:"missing_identities"`
	CurrentRecords     int `json:"current_records"`
	ForecastRecords    int `json:"forecast_records"`
	// UnloadableRecords counts exported rows without a target id.
	UnloadableRecords  int `json:"unloadable_records"`
}

// OutputRecords returns the total number of emitted rows.
func (s RunStats) OutputRecords() int {
	return s.CurrentRecords + s.ForecastRecords
}

// Value marshals stats to JSON for persistence.
func (s RunStats) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal run stats: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the stats.
func (s *RunStats) Scan(value interface{}) error {
	if value == nil {
		*s = RunStats{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RunStats", value)
	}
	if len(data) == 0 {
		*s = RunStats{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal run stats: %w", err)
	}
	return nil
}

// RunSummary describes one run of the timeline sync.
type RunSummary struct {
	ID          string     `json:"id" db:"id"`
	Status      RunStatus  `json:"status" db:"status"`
	RequestedBy string     `json:"requested_by,omitempty" db:"requested_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Stats       RunStats   `json:"stats" db:"stats"`
	OutputFile  string     `json:"output_file,omitempty" db:"output_file"`
	SummaryFile string     `json:"summary_file,omitempty" db:"summary_file"`
	Error       string     `json:"error,omitempty" db:"error_message"`
}
