package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

type recordingCacheMetrics struct {
	hits   int
	misses int
}

func (m *recordingCacheMetrics) RecordCacheOperation(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestCacheRepositoryRecordsMissWithoutClient(t *testing.T) {
	metrics := &recordingCacheMetrics{}
	repo := NewCacheRepository(nil, metrics, nil)

	var dest string
	err := repo.Get(context.Background(), ScoresMirrorKey("user-1"), &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, 0, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestCacheRepositoryNilMetrics(t *testing.T) {
	repo := NewCacheRepository(nil, nil, nil)

	var dest string
	err := repo.Get(context.Background(), SettingsMirrorKey("user-1"), &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryWritesSkippedWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, &recordingCacheMetrics{}, nil)

	assert.NoError(t, repo.Set(context.Background(), ScoresMirrorKey("user-1"), "value", 0))
	assert.NoError(t, repo.Delete(context.Background(), ScoresMirrorKey("user-1")))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "youscore:summary:user-1:*"))
}
