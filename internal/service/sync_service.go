package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/timeline"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
	"github.com/noah-isme/term-timeline/pkg/logger"
)

type snapshotLoader interface {
	Load(ctx context.Context) (timeline.Snapshot, error)
}

type timelineEngine interface {
	Options() timeline.Options
	Run(ctx context.Context, snap timeline.Snapshot) (*timeline.Result, error)
}

type runExporter interface {
	Generate(runID string, currentPeriod int, res *timeline.Result) (*ExportResult, error)
	Prune() ([]string, error)
}

// SyncService performs one full run: load the snapshot, run the engine and
// write the output file.
type SyncService struct {
	loader   snapshotLoader
	engine   timelineEngine
	exporter runExporter
	metrics  *MetricsService
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewSyncService constructs the orchestrator.
func NewSyncService(loader snapshotLoader, engine timelineEngine, exporter runExporter, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		loader:   loader,
		engine:   engine,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
		tracer:   otel.Tracer("github.com/noah-isme/term-timeline/internal/service"),
	}
}

// Run executes the run identified by runID. The returned summary is never nil
// and carries the failure message when err is non-nil.
func (s *SyncService) Run(ctx context.Context, runID, requestedBy string) (*models.RunSummary, error) {
	opts := s.engine.Options()
	log := logger.ForRun(s.logger, runID, opts.CurrentPeriod)

	started := time.Now().UTC()
	summary := &models.RunSummary{
		ID:          runID,
		Status:      models.RunStatusRunning,
		RequestedBy: requestedBy,
		CreatedAt:   started,
		StartedAt:   &started,
	}

	ctx, span := s.tracer.Start(ctx, "timeline.sync", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	err := s.execute(ctx, runID, opts, summary)
	finished := time.Now().UTC()
	summary.FinishedAt = &finished
	duration := finished.Sub(started)

	if err != nil {
		summary.Status = models.RunStatusFailed
		summary.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveRun(summary.Status, duration, summary.Stats)
		log.Error("timeline run failed", zap.Error(err), zap.Duration("duration", duration))
		return summary, err
	}

	summary.Status = models.RunStatusSucceeded
	s.metrics.ObserveRun(summary.Status, duration, summary.Stats)
	st := summary.Stats
	log.Info("timeline run complete",
		zap.Duration("duration", duration),
		zap.Int("entities", st.Entities),
		zap.Int("events", st.EventsEmitted),
		zap.Int("events_dropped", st.EventsDropped),
		zap.Int("period_records", st.PeriodRecords),
		zap.Int("output_records", st.OutputRecords()),
		zap.Int("unloadable_records", st.UnloadableRecords),
		zap.Int("ambiguous_programs", st.AmbiguousPrograms),
		zap.Int("unresolved_programs", st.UnresolvedPrograms),
		zap.Int("missing_identities", st.MissingIdentities),
		zap.String("output_file", summary.OutputFile),
	)
	return summary, nil
}

func (s *SyncService) execute(ctx context.Context, runID string, opts timeline.Options, summary *models.RunSummary) error {
	if err := opts.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidEngineConf.Code, appErrors.ErrInvalidEngineConf.Status, appErrors.ErrInvalidEngineConf.Message)
	}

	snap, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}

	res, err := s.engine.Run(ctx, snap)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSnapshotLoad.Code, appErrors.ErrSnapshotLoad.Status, "snapshot rejected by timeline engine")
	}
	summary.Stats = res.Stats

	out, err := s.exporter.Generate(runID, opts.CurrentPeriod, res)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, appErrors.ErrExport.Message)
	}
	summary.OutputFile = out.OutputFile
	summary.SummaryFile = out.SummaryFile
	summary.Stats.UnloadableRecords = out.Unloadable

	if _, err := s.exporter.Prune(); err != nil {
		s.logger.Warn("prune run artifacts failed", zap.String("run_id", runID), zap.Error(err))
	}
	return nil
}
