package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
	"github.com/noah-isme/term-timeline/pkg/storage"
)

type stubRunner struct {
	mu    sync.Mutex
	calls int
	fn    func(runID string) (*models.RunSummary, error)
}

func (s *stubRunner) Run(_ context.Context, runID, _ string) (*models.RunSummary, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(runID)
}

func (s *stubRunner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func succeededRun(runID string) (*models.RunSummary, error) {
	now := time.Now().UTC()
	return &models.RunSummary{
		ID:         runID,
		Status:     models.RunStatusSucceeded,
		FinishedAt: &now,
		Stats:      models.RunStats{CurrentRecords: 3},
		OutputFile: "runs/" + runID + "/term_timeline.csv",
	}, nil
}

type stubRunStore struct {
	mu          sync.Mutex
	saved       map[string]models.RunSummary
	interrupted int
	listErr     error
}

func (s *stubRunStore) Save(_ context.Context, run *models.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]models.RunSummary)
	}
	s.saved[run.ID] = *run
	return nil
}

func (s *stubRunStore) GetByID(_ context.Context, id string) (*models.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.saved[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &run, nil
}

func (s *stubRunStore) ListRecent(context.Context, int) ([]models.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	runs := make([]models.RunSummary, 0, len(s.saved))
	for _, r := range s.saved {
		runs = append(runs, r)
	}
	return runs, nil
}

func (s *stubRunStore) FailInterrupted(context.Context, string) (int64, error) {
	s.interrupted++
	return 0, nil
}

func (s *stubRunStore) status(id string) models.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[id].Status
}

func newRunServiceForTest(t *testing.T, runner syncRunner, store runStore, cfg RunServiceConfig) (*RunService, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Millisecond
	}
	svc := NewRunService(runner, store, files, storage.NewSignedURLSigner("secret", time.Hour), cfg, nil)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, files
}

func waitForStatus(t *testing.T, svc *RunService, id string, want models.RunStatus) *models.RunSummary {
	t.Helper()
	var run *models.RunSummary
	require.Eventually(t, func() bool {
		got, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		run = got
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return run
}

func TestRunServiceTriggerCompletes(t *testing.T) {
	runner := &stubRunner{fn: succeededRun}
	svc, _ := newRunServiceForTest(t, runner, nil, RunServiceConfig{})

	queued, err := svc.Trigger(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusQueued, queued.Status)
	assert.Equal(t, "op-1", queued.RequestedBy)

	run := waitForStatus(t, svc, queued.ID, models.RunStatusSucceeded)
	assert.Equal(t, 3, run.Stats.CurrentRecords)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, queued.CreatedAt, run.CreatedAt)

	runs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, queued.ID, runs[0].ID)
}

func TestRunServiceSingleActiveRun(t *testing.T) {
	release := make(chan struct{})
	runner := &stubRunner{fn: func(id string) (*models.RunSummary, error) {
		<-release
		return succeededRun(id)
	}}
	svc, _ := newRunServiceForTest(t, runner, nil, RunServiceConfig{})

	first, err := svc.Trigger(context.Background(), "op-1")
	require.NoError(t, err)
	_, err = svc.Trigger(context.Background(), "op-2")
	require.ErrorIs(t, err, appErrors.ErrRunInProgress)

	close(release)
	waitForStatus(t, svc, first.ID, models.RunStatusSucceeded)

	second, err := svc.Trigger(context.Background(), "op-2")
	require.NoError(t, err)
	waitForStatus(t, svc, second.ID, models.RunStatusSucceeded)

	runs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
}

func TestRunServiceRetriesThenFails(t *testing.T) {
	runner := &stubRunner{fn: func(id string) (*models.RunSummary, error) {
		now := time.Now().UTC()
		err := errors.New("snapshot load failed")
		return &models.RunSummary{ID: id, Status: models.RunStatusFailed, FinishedAt: &now, Error: err.Error()}, err
	}}
	svc, _ := newRunServiceForTest(t, runner, nil, RunServiceConfig{MaxRetries: 1})

	queued, err := svc.Trigger(context.Background(), "")
	require.NoError(t, err)

	run := waitForStatus(t, svc, queued.ID, models.RunStatusFailed)
	assert.Equal(t, "snapshot load failed", run.Error)
	assert.Equal(t, 2, runner.Calls())

	_, err = svc.Trigger(context.Background(), "")
	require.NoError(t, err, "a failed run releases the active slot")
}

func TestRunServiceGetUnknown(t *testing.T) {
	svc, _ := newRunServiceForTest(t, &stubRunner{fn: succeededRun}, nil, RunServiceConfig{})
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrRunNotFound)

	store := &stubRunStore{}
	svc, _ = newRunServiceForTest(t, &stubRunner{fn: succeededRun}, store, RunServiceConfig{})
	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrRunNotFound)
}

func TestRunServiceTrimsHistory(t *testing.T) {
	svc, _ := newRunServiceForTest(t, &stubRunner{fn: succeededRun}, nil, RunServiceConfig{History: 2})

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		run, err := svc.Trigger(context.Background(), "")
		require.NoError(t, err)
		waitForStatus(t, svc, run.ID, models.RunStatusSucceeded)
		ids = append(ids, run.ID)
	}

	runs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	_, err = svc.Get(context.Background(), ids[0])
	require.ErrorIs(t, err, appErrors.ErrRunNotFound)
}

func TestRunServicePersistsToStore(t *testing.T) {
	store := &stubRunStore{}
	svc, _ := newRunServiceForTest(t, &stubRunner{fn: succeededRun}, store, RunServiceConfig{})
	assert.Equal(t, 1, store.interrupted)

	run, err := svc.Trigger(context.Background(), "op-1")
	require.NoError(t, err)
	waitForStatus(t, svc, run.ID, models.RunStatusSucceeded)
	require.Eventually(t, func() bool {
		return store.status(run.ID) == models.RunStatusSucceeded
	}, time.Second, 5*time.Millisecond)

	runs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	store.listErr = errors.New("connection reset")
	runs, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1, "falls back to memory")
}

func TestRunServiceDownloads(t *testing.T) {
	svc, files := newRunServiceForTest(t, &stubRunner{fn: succeededRun}, nil, RunServiceConfig{APIPrefix: "/api/v1/"})

	run, err := svc.Trigger(context.Background(), "")
	require.NoError(t, err)
	done := waitForStatus(t, svc, run.ID, models.RunStatusSucceeded)
	_, err = files.Save(done.OutputFile, []byte("TARGET_ID\n1001\n"))
	require.NoError(t, err)

	url, expiresAt, err := svc.DownloadURL(context.Background(), run.ID, "output")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/v1/downloads/"))
	assert.True(t, expiresAt.After(time.Now()))

	token := strings.TrimPrefix(url, "/api/v1/downloads/")
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "term_timeline.csv", download.Filename)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, "TARGET_ID\n1001\n", string(body))

	_, _, err = svc.DownloadURL(context.Background(), run.ID, "summary")
	requireCode(t, err, appErrors.ErrNotFound.Code)

	forged, _, err := storage.NewSignedURLSigner("secret", time.Hour).Generate(run.ID, "runs/other.csv")
	require.NoError(t, err)
	_, err = svc.ResolveDownload(context.Background(), forged)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.ResolveDownload(context.Background(), "garbage")
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestRunServiceDownloadRequiresSuccess(t *testing.T) {
	runner := &stubRunner{fn: func(id string) (*models.RunSummary, error) {
		return nil, errors.New("engine misconfigured")
	}}
	svc, _ := newRunServiceForTest(t, runner, nil, RunServiceConfig{})

	run, err := svc.Trigger(context.Background(), "")
	require.NoError(t, err)
	failed := waitForStatus(t, svc, run.ID, models.RunStatusFailed)
	assert.Equal(t, "engine misconfigured", failed.Error)

	_, _, err = svc.DownloadURL(context.Background(), run.ID, "output")
	requireCode(t, err, appErrors.ErrConflict.Code)
}
