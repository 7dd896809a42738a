package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.AppSettings, error)
	Upsert(ctx context.Context, userID string, settings *models.AppSettings) error
	Delete(ctx context.Context, userID string) error
}

// SettingsService manages per-user application settings. Stored documents
// from older versions may miss fields, so every read passes through
// Normalize before being returned.
type SettingsService struct {
	repo      settingsRepository
	cache     scoreCache
	defaults  models.AppSettings
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService. The defaults are served
// to users who never saved settings and seed the reset operation.
func NewSettingsService(repo settingsRepository, cache scoreCache, defaults models.AppSettings, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	defaults = defaults.Normalize()
	return &SettingsService{repo: repo, cache: cache, defaults: defaults, validator: validate, logger: logger}
}

// Get returns the user's settings, falling back to the defaults when the
// user has never saved any, and to the Redis mirror when the database is
// unreachable.
func (s *SettingsService) Get(ctx context.Context, userID string) (models.AppSettings, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaults, nil
		}
		s.logger.Warn("settings read from database failed, trying mirror", zap.Error(err))
		var mirrored models.AppSettings
		if cacheErr := s.cache.Get(ctx, repository.SettingsMirrorKey(userID), &mirrored); cacheErr == nil {
			return mirrored.Normalize(), nil
		}
		return models.AppSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	normalized := stored.Normalize()
	s.mirror(ctx, userID, normalized)
	return normalized, nil
}

// Update validates and stores the user's settings.
func (s *SettingsService) Update(ctx context.Context, userID string, settings models.AppSettings) (models.AppSettings, error) {
	if err := validateFactors(settings.CustomFactors); err != nil {
		return models.AppSettings{}, err
	}
	if settings.DefaultMaxScore <= 0 {
		return models.AppSettings{}, appErrors.Clone(appErrors.ErrValidation, "default max score must be positive")
	}
	if settings.SemestersPerYear < 1 {
		return models.AppSettings{}, appErrors.Clone(appErrors.ErrValidation, "semesters per year must be at least 1")
	}
	for _, r := range settings.SemesterRanges {
		if r.StartMonth < 1 || r.StartMonth > 12 || r.EndMonth < 1 || r.EndMonth > 12 {
			return models.AppSettings{}, appErrors.Clone(appErrors.ErrValidation, "semester months must be between 1 and 12")
		}
	}

	normalized := settings.Normalize()
	if err := s.repo.Upsert(ctx, userID, &normalized); err != nil {
		return models.AppSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store settings")
	}
	s.mirror(ctx, userID, normalized)
	return normalized, nil
}

// Reset restores the default settings for the user.
func (s *SettingsService) Reset(ctx context.Context, userID string) (models.AppSettings, error) {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return models.AppSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset settings")
	}
	s.mirror(ctx, userID, s.defaults)
	return s.defaults, nil
}

func (s *SettingsService) mirror(ctx context.Context, userID string, settings models.AppSettings) {
	if err := s.cache.Set(ctx, repository.SettingsMirrorKey(userID), settings, 0); err != nil {
		s.logger.Warn("settings mirror write failed", zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, "youscore:summary:"+userID+":*"); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}

// validateFactors rejects empty names, duplicate names and non-positive
// multipliers. Two factors with the same name would make the multiplier
// lookup ambiguous.
func validateFactors(factors []models.CustomFactor) error {
	seen := make(map[string]struct{}, len(factors))
	for _, factor := range factors {
		name := strings.TrimSpace(factor.Name)
		if name == "" {
			return appErrors.Clone(appErrors.ErrValidation, "factor name must not be empty")
		}
		if factor.Multiplier <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "factor multiplier must be positive")
		}
		if _, ok := seen[name]; ok {
			return appErrors.Clone(appErrors.ErrDuplicateFactor, "duplicate factor name: "+name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
