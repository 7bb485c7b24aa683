package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/term-timeline/internal/models"
	appErrors "github.com/noah-isme/term-timeline/pkg/errors"
)

func TestSnapshotServiceLoadsEveryInput(t *testing.T) {
	src := fixtureSources()
	svc := NewSnapshotService(src, []string{"9999"}, NewMetricsService(), nil)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Calendar, 5)
	assert.Len(t, snap.Activity, 1)
	assert.Empty(t, snap.History)
	assert.Len(t, snap.Identities, 1)
	assert.Len(t, snap.Majors, 1)
	assert.Len(t, snap.Programs, 1)
	assert.Equal(t, []string{"9999"}, src.Calendar.(*stubCalendarReader).excluded)
}

func TestSnapshotServiceWrapsInputErrors(t *testing.T) {
	src := fixtureSources()
	src.History = stubListReader[models.DegreeHistory]{err: errors.New("timeout")}
	svc := NewSnapshotService(src, nil, nil, nil)

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSnapshotLoad.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "degree_history")
}

func TestSnapshotServiceDictionaryError(t *testing.T) {
	src := fixtureSources()
	src.Dictionaries = stubDictionaryLoader{err: errors.New("redis down and db down")}
	svc := NewSnapshotService(src, nil, nil, nil)

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dictionaries")
}
