package service

import (
	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/timeline"
	"github.com/noah-isme/term-timeline/pkg/config"
)

// EngineOptions maps the timeline configuration onto engine options, keeping
// the engine defaults for anything left unset.
func EngineOptions(cfg config.TimelineConfig) timeline.Options {
	opts := timeline.DefaultOptions()
	opts.CurrentPeriod = cfg.CurrentPeriod
	opts.UpcomingPeriods = cfg.UpcomingPeriods
	opts.SummerMarker = cfg.SummerMarker
	opts.CarryForwardWindow = cfg.CarryForwardWindow
	if !cfg.FullTimeHours.IsZero() {
		opts.FullTimeHours = cfg.FullTimeHours
	}
	if len(cfg.TermSuffixes) > 0 {
		opts.TermSuffixes = cfg.TermSuffixes
	}
	if cfg.ExcludedPrefixes != nil {
		opts.ExcludedCalendarPrefixes = cfg.ExcludedPrefixes
	}
	if cfg.VocationalMajor != "" {
		opts.VocationalMajor = cfg.VocationalMajor
		opts.NonDegreeAdultMajor = cfg.NonDegreeAdultMajor
	}
	if cfg.DefaultProgram != "" {
		opts.DefaultProgram = models.ProgramAssignment{
			College: cfg.DefaultCollege,
			Degree:  cfg.DefaultDegree,
			Program: cfg.DefaultProgram,
		}
	}
	return opts
}
