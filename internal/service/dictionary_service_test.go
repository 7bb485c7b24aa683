package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
)

type mockDictionaryRepo struct {
	majors       []models.MajorDefinition
	programs     []models.ProgramEntry
	majorCalls   int
	programCalls int
	err          error
}

func (m *mockDictionaryRepo) ListMajors(context.Context) ([]models.MajorDefinition, error) {
	m.majorCalls++
	return m.majors, m.err
}

func (m *mockDictionaryRepo) ListPrograms(context.Context) ([]models.ProgramEntry, error) {
	m.programCalls++
	return m.programs, nil
}

func sampleDictionaryRepo() *mockDictionaryRepo {
	return &mockDictionaryRepo{
		majors:   []models.MajorDefinition{{MajorCode: "M1", DegreeCode: "BA"}},
		programs: []models.ProgramEntry{{DegreeCode: "BA", MajorCode: "M1", TargetProgram: "BA-M1", Active: true}},
	}
}

func TestDictionaryServiceCaching(t *testing.T) {
	repo := sampleDictionaryRepo()
	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDictionaryService(repo, cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	set, hit, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, repo.majors, set.Majors)

	cached, hit, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.majorCalls)
	assert.Equal(t, 1, repo.programCalls)
	assert.Equal(t, repo.programs, cached.Programs)

	require.NoError(t, svc.Invalidate(ctx))
	assert.Equal(t, []string{"timeline:dictionaries:*"}, cacheRepo.deleted)
}

func TestDictionaryServiceWithoutCache(t *testing.T) {
	repo := sampleDictionaryRepo()
	svc := NewDictionaryService(repo, nil, time.Minute, nil)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	_, hit, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.majorCalls)
}

func TestDictionaryServiceError(t *testing.T) {
	repo := sampleDictionaryRepo()
	repo.err = errors.New("relation does not exist")
	svc := NewDictionaryService(repo, nil, time.Minute, nil)

	_, _, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load major definitions")
	assert.Zero(t, repo.programCalls)
}
