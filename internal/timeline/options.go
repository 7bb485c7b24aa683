package timeline

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/term-timeline/internal/models"
)

// Options are the injected constants the engine needs. None of them are
// derived from the snapshot.
type Options struct {
	// CurrentPeriod is the current operational period code.
	CurrentPeriod int `validate:"required,gt=0"`
	// UpcomingPeriods extends the operational window beyond CurrentPeriod.
	UpcomingPeriods []int `validate:"dive,gt=0"`
	// SummerMarker is the two-digit suffix collapsed into the prior period on output.
	SummerMarker int `validate:"min=1,max=99"`
	// CarryForwardWindow bounds the lookback of the normalizer; zero is unbounded.
	CarryForwardWindow int `validate:"min=0"`
	FullTimeHours      decimal.Decimal
	// TermSuffixes maps the term label of a calendar key to its period-code suffix.
	TermSuffixes             map[string]int `validate:"dive,min=1,max=99"`
	ExcludedCalendarPrefixes []string
	VocationalMajor          string
	NonDegreeAdultMajor      string
	DefaultProgram           models.ProgramAssignment
	// DegreeSeedTokens are degree codes that keep a period out of the non-degree seed.
	DegreeSeedTokens []string
}

// DefaultOptions returns the production defaults. CurrentPeriod must still be set.
func DefaultOptions() Options {
	return Options{
		SummerMarker:       6,
		CarryForwardWindow: 6,
		FullTimeHours:      decimal.NewFromInt(12),
		TermSuffixes: map[string]int{
			"SP": 1,
			"S1": 5,
			"S2": 6,
			"FA": 9,
		},
		ExcludedCalendarPrefixes: []string{"9999"},
		VocationalMajor:          "VOC",
		NonDegreeAdultMajor:      "NDA",
		DefaultProgram: models.ProgramAssignment{
			College: "00",
			Degree:  "ND",
			Program: "ND-000",
		},
		DegreeSeedTokens: []string{"A", "AGS", "BA", "BS", "BSW", "S"},
	}
}

var validate = validator.New()

// Validate checks the options before a run.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid timeline options: %w", err)
	}
	if !o.FullTimeHours.IsPositive() {
		return fmt.Errorf("invalid timeline options: full-time hours must be positive")
	}
	return nil
}

// operationalWindow returns the set of period codes in the current
// operational window: the current period plus the upcoming periods.
func (o Options) operationalWindow() map[int]struct{} {
	window := make(map[int]struct{}, len(o.UpcomingPeriods)+1)
	window[o.CurrentPeriod] = struct{}{}
	for _, p := range o.UpcomingPeriods {
		window[p] = struct{}{}
	}
	return window
}
