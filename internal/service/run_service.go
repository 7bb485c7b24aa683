package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
	"github.com/noah-isme/term-timeline/pkg/jobs"
	"github.com/noah-isme/term-timeline/pkg/storage"
)

type syncRunner interface {
	Run(ctx context.Context, runID, requestedBy string) (*models.RunSummary, error)
}

type runStore interface {
	Save(ctx context.Context, run *models.RunSummary) error
	GetByID(ctx context.Context, id string) (*models.RunSummary, error)
	ListRecent(ctx context.Context, limit int) ([]models.RunSummary, error)
	FailInterrupted(ctx context.Context, reason string) (int64, error)
}

type artifactOpener interface {
	Open(relPath string) (*os.File, error)
}

// RunRequest is the queued payload of a triggered run.
type RunRequest struct {
	RequestedBy string
}

// RunServiceConfig governs the background worker and history.
type RunServiceConfig struct {
	APIPrefix  string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	History    int
}

// RunDownload aggregates resolved download data.
type RunDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// RunService triggers background runs and tracks their lifecycle. At most one
// run is queued or running at a time.
type RunService struct {
	runner   syncRunner
	store    runStore
	files    artifactOpener
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue[RunRequest]
	logger   *zap.Logger
	cfg      RunServiceConfig
	mu       sync.RWMutex
	runs     map[string]*models.RunSummary
	order    []string
	activeID string
}

// NewRunService constructs the service and its worker queue. store may be nil,
// in which case history lives in memory only.
func NewRunService(runner syncRunner, store runStore, files artifactOpener, signer *storage.SignedURLSigner, cfg RunServiceConfig, logger *zap.Logger) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.History <= 0 {
		cfg.History = 20
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	s := &RunService{
		runner: runner,
		store:  store,
		files:  files,
		signer: signer,
		logger: logger,
		cfg:    cfg,
		runs:   make(map[string]*models.RunSummary),
	}
	s.queue = jobs.NewQueue[RunRequest]("timeline-runs", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	s.queue.OnExhausted(s.exhausted)
	return s
}

// Start recovers persisted state and boots the worker.
func (s *RunService) Start(ctx context.Context) {
	if s.store != nil {
		n, err := s.store.FailInterrupted(ctx, "interrupted by restart")
		if err != nil {
			s.logger.Warn("failed to close interrupted runs", zap.Error(err))
		} else if n > 0 {
			s.logger.Info("closed interrupted runs", zap.Int64("runs", n))
		}
	}
	s.queue.Start(ctx)
}

// Stop halts the worker and waits for the current run to return.
func (s *RunService) Stop() {
	s.queue.Stop()
}

// Trigger queues a new run.
func (s *RunService) Trigger(ctx context.Context, requestedBy string) (*models.RunSummary, error) {
	s.mu.Lock()
	if s.activeID != "" {
		s.mu.Unlock()
		return nil, appErrors.ErrRunInProgress
	}
	run := &models.RunSummary{
		ID:          uuid.NewString(),
		Status:      models.RunStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.activeID = run.ID
	snapshot := *run
	s.mu.Unlock()

	s.persist(ctx, &snapshot)
	if err := s.queue.Enqueue(jobs.Job[RunRequest]{ID: run.ID, Payload: RunRequest{RequestedBy: requestedBy}}); err != nil {
		s.fail(run.ID, "failed to enqueue run")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue run")
	}
	return &snapshot, nil
}

// Get returns a run by id.
func (s *RunService) Get(ctx context.Context, id string) (*models.RunSummary, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	var snapshot models.RunSummary
	if ok {
		snapshot = *run
	}
	s.mu.RUnlock()
	if ok {
		return &snapshot, nil
	}
	if s.store == nil {
		return nil, appErrors.ErrRunNotFound
	}
	stored, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRunNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run")
	}
	return stored, nil
}

// List returns recent runs, newest first.
func (s *RunService) List(ctx context.Context) ([]models.RunSummary, error) {
	if s.store != nil {
		runs, err := s.store.ListRecent(ctx, s.cfg.History)
		if err == nil {
			return runs, nil
		}
		s.logger.Warn("failed to list persisted runs, serving memory", zap.Error(err))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]models.RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		runs = append(runs, *s.runs[s.order[i]])
	}
	return runs, nil
}

// DownloadURL signs a link to a run artifact. artifact is "output" or "summary".
func (s *RunService) DownloadURL(ctx context.Context, id, artifact string) (string, time.Time, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if run.Status != models.RunStatusSucceeded {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, "run has not succeeded")
	}
	relPath := run.OutputFile
	if artifact == "summary" {
		relPath = run.SummaryFile
	}
	if relPath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "artifact not available")
	}
	token, expiresAt, err := s.signer.Generate(run.ID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	url := fmt.Sprintf("%s/downloads/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	return url, expiresAt, nil
}

// ResolveDownload validates a token and opens the referenced artifact.
func (s *RunService) ResolveDownload(ctx context.Context, token string) (*RunDownload, error) {
	runID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if relPath != run.OutputFile && relPath != run.SummaryFile {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open run artifact")
	}
	return &RunDownload{File: file, Filename: filepath.Base(relPath), ExpiresAt: expiresAt}, nil
}

func (s *RunService) process(ctx context.Context, job jobs.Job[RunRequest]) error {
	started := time.Now().UTC()
	s.update(ctx, job.ID, func(r *models.RunSummary) {
		r.Status = models.RunStatusRunning
		r.StartedAt = &started
	})

	summary, err := s.runner.Run(ctx, job.ID, job.Payload.RequestedBy)
	if err != nil && job.Attempt < s.cfg.MaxRetries {
		s.update(ctx, job.ID, func(r *models.RunSummary) {
			r.Status = models.RunStatusQueued
			r.Error = err.Error()
		})
		return err
	}
	if summary == nil {
		now := time.Now().UTC()
		summary = &models.RunSummary{Status: models.RunStatusFailed, FinishedAt: &now}
		if err != nil {
			summary.Error = err.Error()
		}
	}

	s.mu.Lock()
	run, ok := s.runs[job.ID]
	if ok {
		run.Status = summary.Status
		run.FinishedAt = summary.FinishedAt
		run.Stats = summary.Stats
		run.OutputFile = summary.OutputFile
		run.SummaryFile = summary.SummaryFile
		run.Error = summary.Error
	}
	s.releaseLocked(job.ID)
	var snapshot models.RunSummary
	if ok {
		snapshot = *run
	}
	s.mu.Unlock()
	if ok {
		s.persist(ctx, &snapshot)
	}
	return err
}

func (s *RunService) exhausted(job jobs.Job[RunRequest], err error) {
	s.fail(job.ID, err.Error())
}

// fail closes a run that has not finished yet.
func (s *RunService) fail(id, message string) {
	now := time.Now().UTC()
	s.mu.Lock()
	run, ok := s.runs[id]
	changed := ok && !run.Status.Finished()
	if changed {
		run.Status = models.RunStatusFailed
		run.Error = message
		run.FinishedAt = &now
	}
	s.releaseLocked(id)
	var snapshot models.RunSummary
	if changed {
		snapshot = *run
	}
	s.mu.Unlock()
	if changed {
		s.persist(context.Background(), &snapshot)
	}
}

func (s *RunService) update(ctx context.Context, id string, fn func(*models.RunSummary)) {
	s.mu.Lock()
	run, ok := s.runs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(run)
	snapshot := *run
	s.mu.Unlock()
	s.persist(ctx, &snapshot)
}

// releaseLocked clears the active slot and trims finished history. Callers
// hold s.mu.
func (s *RunService) releaseLocked(id string) {
	if s.activeID == id {
		s.activeID = ""
	}
	for len(s.order) > s.cfg.History {
		oldest := s.order[0]
		if oldest == s.activeID {
			break
		}
		delete(s.runs, oldest)
		s.order = s.order[1:]
	}
}

func (s *RunService) persist(ctx context.Context, run *models.RunSummary) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, run); err != nil {
		s.logger.Warn("failed to persist run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
