package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMELINE_CURRENT_PERIOD", "202409")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 202409, cfg.Timeline.CurrentPeriod)
	assert.Equal(t, 6, cfg.Timeline.SummerMarker)
	assert.Equal(t, 6, cfg.Timeline.CarryForwardWindow)
	assert.Equal(t, "12", cfg.Timeline.FullTimeHours.String())
	assert.Equal(t, map[string]int{"SP": 1, "S1": 5, "S2": 6, "FA": 9}, cfg.Timeline.TermSuffixes)
	assert.Equal(t, []string{"9999"}, cfg.Timeline.ExcludedPrefixes)
	assert.Empty(t, cfg.Timeline.UpcomingPeriods)
	assert.Equal(t, time.Hour, cfg.Dictionary.CacheTTL)
	assert.Equal(t, 1, cfg.Runs.WorkerConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIMELINE_UPCOMING_PERIODS", "202501, 202505")
	t.Setenv("TIMELINE_TERM_SUFFIXES", "sp=1,fa=8")
	t.Setenv("EXPORT_CONSTANT_COLUMNS", "INSTITUTION=0042,SOURCE_SYSTEM=SIS,BLANK=")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{202501, 202505}, cfg.Timeline.UpcomingPeriods)
	assert.Equal(t, map[string]int{"SP": 1, "FA": 8}, cfg.Timeline.TermSuffixes)
	assert.Equal(t, []Column{{"INSTITUTION", "0042"}, {"SOURCE_SYSTEM", "SIS"}, {"BLANK", ""}}, cfg.Export.ConstantColumns)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"TIMELINE_UPCOMING_PERIODS": "2025SP",
		"TIMELINE_TERM_SUFFIXES":    "FA=100",
		"EXPORT_CONSTANT_COLUMNS":   "NOVALUE",
		"TIMELINE_FULL_TIME_HOURS":  "twelve",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
