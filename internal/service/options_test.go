package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/timeline"
	"github.com/noah-isme/term-timeline/pkg/config"
)

func TestEngineOptionsFromConfig(t *testing.T) {
	opts := EngineOptions(config.TimelineConfig{
		CurrentPeriod:       202409,
		UpcomingPeriods:     []int{202501},
		SummerMarker:        6,
		CarryForwardWindow:  0,
		FullTimeHours:       decimal.NewFromInt(9),
		TermSuffixes:        map[string]int{"WI": 1},
		ExcludedPrefixes:    []string{"0000"},
		VocationalMajor:     "TRD",
		NonDegreeAdultMajor: "ADL",
		DefaultCollege:      "01",
		DefaultDegree:       "NA",
		DefaultProgram:      "NA-1",
	})

	require.NoError(t, opts.Validate())
	assert.Equal(t, 202409, opts.CurrentPeriod)
	assert.Zero(t, opts.CarryForwardWindow)
	assert.True(t, opts.FullTimeHours.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, map[string]int{"WI": 1}, opts.TermSuffixes)
	assert.Equal(t, []string{"0000"}, opts.ExcludedCalendarPrefixes)
	assert.Equal(t, "TRD", opts.VocationalMajor)
	assert.Equal(t, models.ProgramAssignment{College: "01", Degree: "NA", Program: "NA-1"}, opts.DefaultProgram)
	assert.Equal(t, timeline.DefaultOptions().DegreeSeedTokens, opts.DegreeSeedTokens)
}

func TestEngineOptionsKeepsDefaults(t *testing.T) {
	opts := EngineOptions(config.TimelineConfig{CurrentPeriod: 202409, SummerMarker: 6})
	defaults := timeline.DefaultOptions()

	assert.True(t, opts.FullTimeHours.Equal(defaults.FullTimeHours))
	assert.Equal(t, defaults.TermSuffixes, opts.TermSuffixes)
	assert.Equal(t, defaults.ExcludedCalendarPrefixes, opts.ExcludedCalendarPrefixes)
	assert.Equal(t, defaults.DefaultProgram, opts.DefaultProgram)
	assert.Equal(t, defaults.VocationalMajor, opts.VocationalMajor)
}
