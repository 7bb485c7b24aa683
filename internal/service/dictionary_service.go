package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
)

const dictionaryCacheKey = "timeline:dictionaries:v1"

type dictionaryRepository interface {
	ListMajors(ctx context.Context) ([]models.MajorDefinition, error)
	ListPrograms(ctx context.Context) ([]models.ProgramEntry, error)
}

// DictionarySet is the cached form of the major and program dictionaries.
type DictionarySet struct {
	Majors   []models.MajorDefinition `json:"majors"`
	Programs []models.ProgramEntry    `json:"programs"`
}

// DictionaryService loads the program-mapping dictionaries, serving them from
// Redis when the cache is enabled.
type DictionaryService struct {
	repo   dictionaryRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDictionaryService constructs the service. cache may be nil.
func NewDictionaryService(repo dictionaryRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DictionaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DictionaryService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Load returns the dictionaries and whether they came from the cache.
func (s *DictionaryService) Load(ctx context.Context) (*DictionarySet, bool, error) {
	var cached DictionarySet
	if s.cache.Get(ctx, dictionaryCacheKey, &cached) {
		return &cached, true, nil
	}

	majors, err := s.repo.ListMajors(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load major definitions: %w", err)
	}
	programs, err := s.repo.ListPrograms(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load program dictionaries: %w", err)
	}
	set := &DictionarySet{Majors: majors, Programs: programs}
	s.cache.Set(ctx, dictionaryCacheKey, set, s.ttl)
	s.logger.Debug("dictionaries loaded from database", zap.Int("majors", len(majors)), zap.Int("programs", len(programs)))
	return set, false, nil
}

// Invalidate drops the cached dictionaries so the next run reads the database.
func (s *DictionaryService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "timeline:dictionaries:*")
}
