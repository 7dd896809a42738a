package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

type mockSettingsRepo struct {
	stored    map[string]*models.AppSettings
	getErr    error
	upsertErr error
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{stored: make(map[string]*models.AppSettings)}
}

func (m *mockSettingsRepo) Get(ctx context.Context, userID string) (*models.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.stored[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, userID string, settings *models.AppSettings) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *settings
	m.stored[userID] = &copied
	return nil
}

func (m *mockSettingsRepo) Delete(ctx context.Context, userID string) error {
	delete(m.stored, userID)
	return nil
}

func TestSettingsServiceGetDefaultsWhenUnsaved(t *testing.T) {
	svc := NewSettingsService(newMockSettingsRepo(), newMockCache(), models.DefaultSettings(), nil, nil)

	settings, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
}

func TestSettingsServiceServesConfiguredDefaults(t *testing.T) {
	defaults := models.DefaultSettings()
	defaults.DefaultMaxScore = 100
	defaults.SemestersPerYear = 3
	svc := NewSettingsService(newMockSettingsRepo(), newMockCache(), defaults, nil, nil)

	settings, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 100, settings.DefaultMaxScore, 0.001)
	assert.Equal(t, 3, settings.SemestersPerYear)

	// Reset hands back the configured defaults too.
	reset, err := svc.Reset(context.Background(), "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 100, reset.DefaultMaxScore, 0.001)
}

func TestSettingsServiceGetNormalizesStoredBlob(t *testing.T) {
	repo := newMockSettingsRepo()
	repo.stored["user-1"] = &models.AppSettings{Rounding: 9, DefaultMaxScore: -1, Language: "fr"}
	svc := NewSettingsService(repo, newMockCache(), models.DefaultSettings(), nil, nil)

	settings, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, settings.Rounding)
	assert.InDelta(t, 10, settings.DefaultMaxScore, 0.001)
	assert.Equal(t, "vi", settings.Language)
	assert.NotEmpty(t, settings.CustomFactors)
	assert.NotEmpty(t, settings.CustomSubjects)
}

func TestSettingsServiceGetFallsBackToMirror(t *testing.T) {
	repo := newMockSettingsRepo()
	repo.getErr = errors.New("connection refused")
	cache := newMockCache()
	stored := models.DefaultSettings()
	stored.Rounding = 2
	require.NoError(t, cache.Set(context.Background(), repository.SettingsMirrorKey("user-1"), stored, 0))
	svc := NewSettingsService(repo, cache, models.DefaultSettings(), nil, nil)

	settings, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Rounding)
}

func TestSettingsServiceUpdateRejectsDuplicateFactors(t *testing.T) {
	svc := NewSettingsService(newMockSettingsRepo(), newMockCache(), models.DefaultSettings(), nil, nil)

	settings := models.DefaultSettings()
	settings.CustomFactors = append(settings.CustomFactors, models.CustomFactor{ID: "6", Name: "Học kỳ", Multiplier: 2})

	_, err := svc.Update(context.Background(), "user-1", settings)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicateFactor.Code, appErr.Code)
}

func TestSettingsServiceUpdateRejectsBadValues(t *testing.T) {
	svc := NewSettingsService(newMockSettingsRepo(), newMockCache(), models.DefaultSettings(), nil, nil)

	bad := models.DefaultSettings()
	bad.CustomFactors = []models.CustomFactor{{ID: "1", Name: "Học kỳ", Multiplier: 0}}
	_, err := svc.Update(context.Background(), "user-1", bad)
	assert.Error(t, err)

	bad = models.DefaultSettings()
	bad.DefaultMaxScore = 0
	_, err = svc.Update(context.Background(), "user-1", bad)
	assert.Error(t, err)

	bad = models.DefaultSettings()
	bad.SemesterRanges = []models.SemesterRange{{StartMonth: 0, EndMonth: 13}}
	_, err = svc.Update(context.Background(), "user-1", bad)
	assert.Error(t, err)
}

func TestSettingsServiceUpdatePersistsAndMirrors(t *testing.T) {
	repo := newMockSettingsRepo()
	cache := newMockCache()
	svc := NewSettingsService(repo, cache, models.DefaultSettings(), nil, nil)

	settings := models.DefaultSettings()
	settings.SemestersPerYear = 3
	updated, err := svc.Update(context.Background(), "user-1", settings)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.SemestersPerYear)
	assert.Equal(t, 3, repo.stored["user-1"].SemestersPerYear)

	var mirrored models.AppSettings
	require.NoError(t, cache.Get(context.Background(), repository.SettingsMirrorKey("user-1"), &mirrored))
	assert.Equal(t, 3, mirrored.SemestersPerYear)
}

func TestSettingsServiceResetRestoresDefaults(t *testing.T) {
	repo := newMockSettingsRepo()
	stored := models.DefaultSettings()
	stored.Rounding = 2
	repo.stored["user-1"] = &stored
	svc := NewSettingsService(repo, newMockCache(), models.DefaultSettings(), nil, nil)

	settings, err := svc.Reset(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
	assert.NotContains(t, repo.stored, "user-1")
}
