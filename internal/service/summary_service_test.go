package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youscore-api/internal/models"
)

type staticScoreLister struct {
	entries []models.ScoreEntry
}

func (s *staticScoreLister) List(ctx context.Context, userID string) ([]models.ScoreEntry, error) {
	return s.entries, nil
}

func millisFor(month time.Month) int64 {
	return time.Date(2025, month, 15, 12, 0, 0, 0, time.Local).UnixMilli()
}

func TestSummaryServiceWeightedAverage(t *testing.T) {
	lister := &staticScoreLister{entries: []models.ScoreEntry{
		{ID: "e1", UserID: "user-1", Subject: "Toán", ExamType: "Học kỳ", Score: 9, MaxScore: 10, Timestamp: millisFor(time.October)},
		{ID: "e2", UserID: "user-1", Subject: "Toán", ExamType: "Kiểm tra 15 phút", Score: 7, MaxScore: 10, Timestamp: millisFor(time.October)},
	}}
	svc := NewSummaryService(lister, &mockSettings{settings: models.DefaultSettings()}, newMockCache(), nil)

	summary, err := svc.Get(context.Background(), "user-1", "all")
	require.NoError(t, err)

	// (9*3 + 7*1) / (10*3 + 10*1) * 10 = 8.5
	assert.InDelta(t, 8.5, summary.Average, 0.001)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, "Toán", summary.BestSubject)
}

func TestSummaryServiceSemesterFilter(t *testing.T) {
	lister := &staticScoreLister{entries: []models.ScoreEntry{
		{ID: "e1", UserID: "user-1", Subject: "Toán", ExamType: "Khác", Score: 9, MaxScore: 10, Timestamp: millisFor(time.October)},
		{ID: "e2", UserID: "user-1", Subject: "Văn", ExamType: "Khác", Score: 6, MaxScore: 10, Timestamp: millisFor(time.March)},
	}}
	svc := NewSummaryService(lister, &mockSettings{settings: models.DefaultSettings()}, newMockCache(), nil)

	first, err := svc.Get(context.Background(), "user-1", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	assert.Equal(t, "Toán", first.BestSubject)

	second, err := svc.Get(context.Background(), "user-1", "2")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, "Văn", second.BestSubject)
}

func TestSummaryServiceEmpty(t *testing.T) {
	svc := NewSummaryService(&staticScoreLister{}, &mockSettings{settings: models.DefaultSettings()}, newMockCache(), nil)

	summary, err := svc.Get(context.Background(), "user-1", "all")
	require.NoError(t, err)
	assert.Zero(t, summary.Average)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, "N/A", summary.BestSubject)
	assert.Empty(t, summary.Subjects)
}

func TestSummaryServiceRounding(t *testing.T) {
	lister := &staticScoreLister{entries: []models.ScoreEntry{
		{ID: "e1", UserID: "user-1", Subject: "Toán", ExamType: "Khác", Score: 1, MaxScore: 3, Timestamp: millisFor(time.October)},
	}}
	settings := models.DefaultSettings()
	settings.Rounding = 2
	svc := NewSummaryService(lister, &mockSettings{settings: settings}, newMockCache(), nil)

	summary, err := svc.Get(context.Background(), "user-1", "all")
	require.NoError(t, err)
	// 1/3 * 10 = 3.333..., rounded to 2 decimals
	assert.InDelta(t, 3.33, summary.Average, 0.0001)
}

func TestSummaryServiceInvalidSemester(t *testing.T) {
	svc := NewSummaryService(&staticScoreLister{}, &mockSettings{settings: models.DefaultSettings()}, newMockCache(), nil)

	_, err := svc.Get(context.Background(), "user-1", "zero")
	assert.Error(t, err)

	_, err = svc.Get(context.Background(), "user-1", "0")
	assert.Error(t, err)
}

func TestSummaryServiceUsesCache(t *testing.T) {
	lister := &staticScoreLister{entries: []models.ScoreEntry{
		{ID: "e1", UserID: "user-1", Subject: "Toán", ExamType: "Khác", Score: 9, MaxScore: 10, Timestamp: millisFor(time.October)},
	}}
	cache := newMockCache()
	svc := NewSummaryService(lister, &mockSettings{settings: models.DefaultSettings()}, cache, nil)

	first, err := svc.Get(context.Background(), "user-1", "all")
	require.NoError(t, err)

	// a data change without invalidation must be served from the cache
	lister.entries = nil
	second, err := svc.Get(context.Background(), "user-1", "all")
	require.NoError(t, err)
	assert.Equal(t, first.Average, second.Average)
	assert.Equal(t, first.Total, second.Total)
}
