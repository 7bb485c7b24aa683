package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/repository"
	"github.com/noah-isme/term-timeline/internal/service"
	"github.com/noah-isme/term-timeline/internal/timeline"
	"github.com/noah-isme/term-timeline/pkg/cache"
	"github.com/noah-isme/term-timeline/pkg/config"
	"github.com/noah-isme/term-timeline/pkg/database"
	"github.com/noah-isme/term-timeline/pkg/export"
	"github.com/noah-isme/term-timeline/pkg/logger"
	"github.com/noah-isme/term-timeline/pkg/storage"
	"github.com/noah-isme/term-timeline/pkg/tracing"
)

func main() {
	var (
		requestedBy string
		record      bool
	)
	flag.StringVar(&requestedBy, "requested-by", "timeline-sync", "Actor recorded on the run summary")
	flag.BoolVar(&record, "record", true, "Persist the run summary to timeline_runs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	os.Exit(run(cfg, logr, requestedBy, record))
}

func run(cfg *config.Config, logr *zap.Logger, requestedBy string, record bool) int {
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Env, os.Stderr, logr)
	if err != nil {
		logr.Error("failed to init tracing", zap.Error(err))
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Error("failed to connect database", zap.Error(err))
		return 1
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Dictionary.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dictionary cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dictionary.CacheTTL, logr, cacheRepo != nil)

	snapshotSvc := service.NewSnapshotService(service.SnapshotSources{
		Calendar:     repository.NewCalendarRepository(db),
		Activity:     repository.NewActivityRepository(db),
		History:      repository.NewDegreeHistoryRepository(db),
		Candidacy:    repository.NewCandidacyRepository(db),
		Identities:   repository.NewIdentityRepository(db),
		Dictionaries: service.NewDictionaryService(repository.NewDictionaryRepository(db), cacheSvc, cfg.Dictionary.CacheTTL, logr),
	}, cfg.Timeline.ExcludedPrefixes, metricsSvc, logr)

	files, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logr.Error("failed to init export storage", zap.Error(err))
		return 1
	}
	exportSvc := service.NewExportService(files, service.ExportConfig{
		Filename:   cfg.Export.Filename,
		SummaryPDF: cfg.Export.SummaryPDF,
		Constants:  cfg.Export.ConstantColumns,
		Retention:  cfg.Export.Retention,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	engine := timeline.NewEngine(service.EngineOptions(cfg.Timeline), logr)
	syncSvc := service.NewSyncService(snapshotSvc, engine, exportSvc, metricsSvc, logr)

	summary, runErr := syncSvc.Run(ctx, uuid.NewString(), requestedBy)

	if record {
		// Fresh context: an interrupted run is still recorded.
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repository.NewRunRepository(db).Save(saveCtx, summary); err != nil {
			logr.Warn("failed to record run summary", zap.String("run_id", summary.ID), zap.Error(err))
		}
	}

	if runErr != nil {
		return 1
	}
	logr.Info("output written", zap.String("file", files.Path(summary.OutputFile)))
	return 0
}
