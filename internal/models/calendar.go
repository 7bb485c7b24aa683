package models

import "time"

// PeriodDefinition is a raw calendar row from the registrar extract.
type PeriodDefinition struct {
	CalendarKey string     `db:"calendar_key" json:"calendar_key"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// Period is a normalized academic term. ExtendedEndDate closes the gap up to
// the next period's start and is nil for the last period of the calendar.
type Period struct {
	Code            int        `json:"code"`
	CalendarKey     string     `json:"calendar_key"`
	StartDate       time.Time  `json:"start_date"`
	NominalEndDate  *time.Time `json:"nominal_end_date,omitempty"`
	ExtendedEndDate *time.Time `json:"extended_end_date,omitempty"`
}

// Contains reports whether the date falls within [StartDate, ExtendedEndDate].
func (p Period) Contains(date time.Time) bool {
	day := TruncateDay(date)
	if day.Before(p.StartDate) {
		return false
	}
	return p.ExtendedEndDate == nil || !day.After(*p.ExtendedEndDate)
}

// TruncateDay drops the clock portion of a timestamp, keeping its calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
