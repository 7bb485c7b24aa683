package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/term-timeline/api/swagger"
	"github.com/noah-isme/term-timeline/internal/handler"
	internalmiddleware "github.com/noah-isme/term-timeline/internal/middleware"
	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/repository"
	"github.com/noah-isme/term-timeline/internal/service"
	"github.com/noah-isme/term-timeline/internal/timeline"
	"github.com/noah-isme/term-timeline/pkg/cache"
	"github.com/noah-isme/term-timeline/pkg/config"
	"github.com/noah-isme/term-timeline/pkg/database"
	"github.com/noah-isme/term-timeline/pkg/export"
	"github.com/noah-isme/term-timeline/pkg/logger"
	corsmiddleware "github.com/noah-isme/term-timeline/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/term-timeline/pkg/middleware/requestid"
	"github.com/noah-isme/term-timeline/pkg/storage"
	"github.com/noah-isme/term-timeline/pkg/tracing"
)

// @title Term Timeline API
// @version 1.0.0
// @description Operator API for term timeline synthesis runs and their exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Env, os.Stdout, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init tracing", "error", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Dictionary.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dictionary cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dictionary.CacheTTL, logr, cacheRepo != nil)
	dictionarySvc := service.NewDictionaryService(repository.NewDictionaryRepository(db), cacheSvc, cfg.Dictionary.CacheTTL, logr)

	snapshotSvc := service.NewSnapshotService(service.SnapshotSources{
		Calendar:     repository.NewCalendarRepository(db),
		Activity:     repository.NewActivityRepository(db),
		History:      repository.NewDegreeHistoryRepository(db),
		Candidacy:    repository.NewCandidacyRepository(db),
		Identities:   repository.NewIdentityRepository(db),
		Dictionaries: dictionarySvc,
	}, cfg.Timeline.ExcludedPrefixes, metricsSvc, logr)

	engine := timeline.NewEngine(service.EngineOptions(cfg.Timeline), logr)

	files, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSvc := service.NewExportService(files, service.ExportConfig{
		Filename:   cfg.Export.Filename,
		SummaryPDF: cfg.Export.SummaryPDF,
		Constants:  cfg.Export.ConstantColumns,
		Retention:  cfg.Export.Retention,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	syncSvc := service.NewSyncService(snapshotSvc, engine, exportSvc, metricsSvc, logr)

	signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)
	runSvc := service.NewRunService(syncSvc, repository.NewRunRepository(db), exportSvc, signer, service.RunServiceConfig{
		APIPrefix:  cfg.APIPrefix,
		Workers:    cfg.Runs.WorkerConcurrency,
		MaxRetries: cfg.Runs.WorkerRetries,
		History:    cfg.Runs.History,
	}, logr)
	runSvc.Start(ctx)

	verifier := service.NewTokenVerifier(cfg.JWT)

	runHandler := handler.NewRunHandler(runSvc)
	dictionaryHandler := handler.NewDictionaryHandler(dictionarySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/downloads/:token", runHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(verifier))

	readers := secured.Group("")
	readers.Use(internalmiddleware.RequireRoles(models.RoleOperator, models.RoleViewer))
	readers.GET("/runs", runHandler.List)
	readers.GET("/runs/:id", runHandler.Get)
	readers.GET("/metrics/summary", metricsHandler.Summary)

	operators := secured.Group("")
	operators.Use(internalmiddleware.RequireRoles(models.RoleOperator))
	operators.POST("/runs", runHandler.Trigger)
	operators.GET("/runs/:id/download", runHandler.DownloadLink)
	operators.DELETE("/dictionaries/cache", dictionaryHandler.Invalidate)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	cancel()
	runSvc.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracer shutdown failed", zap.Error(err))
	}

	logr.Info("server stopped")
}
