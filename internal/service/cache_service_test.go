package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
)

type stubCacheRepo struct {
	store     map[string][]byte
	getErr    error
	setCalls  int
	deleted   []string
	deleteErr error
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.setCalls++
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	return s.deleteErr
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &stubCacheRepo{}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var dest map[string]int
	assert.False(t, svc.Get(ctx, "k", &dest))

	svc.Set(ctx, "k", map[string]int{"a": 1}, 0)
	require.True(t, svc.Get(ctx, "k", &dest))
	assert.Equal(t, 1, dest["a"])
	assert.InDelta(t, 0.5, metrics.Snapshot().CacheHitRatio, 0.0001)
}

func TestCacheServiceErrorsAreMisses(t *testing.T) {
	repo := &stubCacheRepo{getErr: errors.New("connection refused"), deleteErr: errors.New("boom")}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var dest string
	assert.False(t, svc.Get(context.Background(), "k", &dest))
	assert.Error(t, svc.Invalidate(context.Background(), "timeline:*"))
	assert.Equal(t, []string{"timeline:*"}, repo.deleted)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	svc.Set(context.Background(), "k", "v", time.Minute)
	var dest string
	assert.False(t, svc.Get(context.Background(), "k", &dest))
	assert.NoError(t, svc.Invalidate(context.Background(), "*"))
	assert.Zero(t, repo.setCalls)
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, nilSvc.Get(context.Background(), "k", &dest))
}
