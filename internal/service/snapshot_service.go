package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/timeline"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
)

type calendarReader interface {
	ListDefinitions(ctx context.Context, excludedPrefixes []string) ([]models.PeriodDefinition, error)
}

type activityReader interface {
	List(ctx context.Context) ([]models.ActivityRecord, error)
}

type historyReader interface {
	List(ctx context.Context) ([]models.DegreeHistory, error)
}

type candidacyReader interface {
	List(ctx context.Context) ([]models.Candidacy, error)
}

type identityReader interface {
	List(ctx context.Context) ([]models.IdentityMapping, error)
}

type dictionaryLoader interface {
	Load(ctx context.Context) (*DictionarySet, bool, error)
}

// SnapshotSources are the readers a snapshot is assembled from.
type SnapshotSources struct {
	Calendar     calendarReader
	Activity     activityReader
	History      historyReader
	Candidacy    candidacyReader
	Identities   identityReader
	Dictionaries dictionaryLoader
}

// SnapshotService reads every engine input concurrently.
type SnapshotService struct {
	src      SnapshotSources
	excluded []string
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSnapshotService constructs a snapshot loader.
func NewSnapshotService(src SnapshotSources, excludedPrefixes []string, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{src: src, excluded: excludedPrefixes, metrics: metrics, logger: logger}
}

// Load returns a consistent snapshot or the first input error. Remaining
// queries are cancelled on failure.
func (s *SnapshotService) Load(ctx context.Context) (timeline.Snapshot, error) {
	var snap timeline.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(loadInput(gctx, s, "calendar", &snap.Calendar, func(ctx context.Context) ([]models.PeriodDefinition, error) {
		return s.src.Calendar.ListDefinitions(ctx, s.excluded)
	}))
	g.Go(loadInput(gctx, s, "activity", &snap.Activity, s.src.Activity.List))
	g.Go(loadInput(gctx, s, "degree_history", &snap.History, s.src.History.List))
	g.Go(loadInput(gctx, s, "candidacy", &snap.Candidacy, s.src.Candidacy.List))
	g.Go(loadInput(gctx, s, "identities", &snap.Identities, s.src.Identities.List))
	g.Go(func() error {
		start := time.Now()
		set, hit, err := s.src.Dictionaries.Load(gctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrSnapshotLoad.Code, appErrors.ErrSnapshotLoad.Status, "load dictionaries")
		}
		snap.Majors, snap.Programs = set.Majors, set.Programs
		s.metrics.ObserveSnapshotLoad("dictionaries", len(set.Majors)+len(set.Programs), time.Since(start))
		s.logger.Debug("snapshot input loaded", zap.String("input", "dictionaries"), zap.Bool("cache_hit", hit))
		return nil
	})

	if err := g.Wait(); err != nil {
		return timeline.Snapshot{}, err
	}
	return snap, nil
}

func loadInput[T any](ctx context.Context, s *SnapshotService, input string, dest *[]T, fn func(context.Context) ([]T, error)) func() error {
	return func() error {
		start := time.Now()
		rows, err := fn(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrSnapshotLoad.Code, appErrors.ErrSnapshotLoad.Status, fmt.Sprintf("load %s", input))
		}
		*dest = rows
		s.metrics.ObserveSnapshotLoad(input, len(rows), time.Since(start))
		s.logger.Debug("snapshot input loaded", zap.String("input", input), zap.Int("rows", len(rows)))
		return nil
	}
}
