// Package timeline reconstructs per-entity term timelines from sparse
// lifecycle events and derives enrollment, load, student-type, level and
// program codes for every period.
//
// The engine is a pure batch transform over an immutable snapshot. Stages run
// in a fixed order: calendar, extraction, aggregation, classification,
// program mapping, carry-forward, sequencing. Classification through
// carry-forward is evaluated per entity in ascending period order.
package timeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
)

const tracerName = "github.com/noah-isme/term-timeline/internal/timeline"

// Snapshot is the full input of one run.
type Snapshot struct {
	Calendar   []models.PeriodDefinition
	Activity   []models.ActivityRecord
	History    []models.DegreeHistory
	Candidacy  []models.Candidacy
	Majors     []models.MajorDefinition
	Programs   []models.ProgramEntry
	Identities []models.IdentityMapping
}

// Result is the output of one run.
type Result struct {
	Records   []models.OutputRecord
	Timelines []*EntityTimeline
	Stats     models.RunStats
}

// Engine runs the timeline pipeline.
type Engine struct {
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer
}

// NewEngine constructs an engine.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger, tracer: otel.Tracer(tracerName)}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run executes every stage over the snapshot. It fails only on invalid
// options or an inconsistent calendar; data conditions are counted in Stats.
func (e *Engine) Run(ctx context.Context, snap Snapshot) (*Result, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	ctx, span := e.tracer.Start(ctx, "timeline.Run")
	defer span.End()

	var cal *Calendar
	err := e.stage(ctx, "calendar", func() (int, error) {
		var err error
		cal, err = BuildCalendar(snap.Calendar, e.opts)
		if err != nil {
			return 0, err
		}
		return cal.Len(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("build calendar: %w", err)
	}

	var events []models.LifecycleEvent
	e.step(ctx, "extract", func() int {
		events = ExtractEvents(cal, snap.History, snap.Activity)
		return len(events)
	})

	var agg *Aggregation
	e.step(ctx, "aggregate", func() int {
		agg = Aggregate(cal, events, snap.Activity)
		return agg.Records()
	})

	e.step(ctx, "classify", func() int {
		loads := NewCandidacyLoads(cal, snap.Candidacy)
		for _, tl := range agg.Timelines {
			Classify(tl, loads, e.opts)
		}
		return len(agg.Timelines)
	})

	var mapStats MapStats
	e.step(ctx, "programs", func() int {
		dicts := NewDictionaries(snap.Majors, snap.Programs)
		for _, tl := range agg.Timelines {
			s := MapPrograms(tl, dicts, e.opts)
			mapStats.Ambiguous += s.Ambiguous
			mapStats.Unresolved += s.Unresolved
			mapStats.Defaults += s.Defaults
		}
		return mapStats.Unresolved
	})

	e.step(ctx, "carry_forward", func() int {
		for _, tl := range agg.Timelines {
			CarryForward(tl.Records, e.opts.CarryForwardWindow)
		}
		return len(agg.Timelines)
	})

	var records []models.OutputRecord
	var seqStats SequenceStats
	e.step(ctx, "sequence", func() int {
		ids := make(map[string]int64, len(snap.Identities))
		for _, m := range snap.Identities {
			ids[m.SourceID] = m.TargetID
		}
		records, seqStats = Sequence(agg.Timelines, cal, ids, e.opts)
		return len(records)
	})

	stats := models.RunStats{
		Periods:            cal.Len(),
		Entities:           len(agg.Timelines),
		EventsEmitted:      agg.Events,
		EventsDropped:      agg.DroppedEvents,
		UnmatchedActivity:  agg.UnmatchedActivity,
		PeriodRecords:      agg.Records(),
		AmbiguousPrograms:  mapStats.Ambiguous,
		UnresolvedPrograms: mapStats.Unresolved,
		ProgramDefaults:    mapStats.Defaults,
		SummerCollisions:   seqStats.Collisions,
		MissingIdentities:  seqStats.MissingIdentities,
		CurrentRecords:     seqStats.Current,
		ForecastRecords:    seqStats.Forecast,
	}
	if stats.EventsDropped > 0 {
		e.logger.Warn("events outside calendar dropped", zap.Int("dropped", stats.EventsDropped))
	}
	span.SetAttributes(
		attribute.Int("timeline.entities", stats.Entities),
		attribute.Int("timeline.events_dropped", stats.EventsDropped),
		attribute.Int("timeline.output_records", stats.OutputRecords()),
	)
	return &Result{Records: records, Timelines: agg.Timelines, Stats: stats}, nil
}

// step runs a stage that cannot fail.
func (e *Engine) step(ctx context.Context, name string, fn func() int) {
	_, span := e.tracer.Start(ctx, "timeline."+name)
	defer span.End()
	e.complete(span, name, fn())
}

func (e *Engine) stage(ctx context.Context, name string, fn func() (int, error)) error {
	_, span := e.tracer.Start(ctx, "timeline."+name)
	defer span.End()
	n, err := fn()
	if err != nil {
		span.RecordError(err)
		return err
	}
	e.complete(span, name, n)
	return nil
}

func (e *Engine) complete(span trace.Span, name string, n int) {
	span.SetAttributes(attribute.Int("timeline.count", n))
	e.logger.Debug("timeline stage complete", zap.String("stage", name), zap.Int("count", n))
}
