package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/youscore-api/internal/extraction"
	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
	"github.com/noah-isme/youscore-api/internal/scoring"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

type scoreRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.ScoreEntry, error)
	GetByID(ctx context.Context, userID, id string) (*models.ScoreEntry, error)
	Insert(ctx context.Context, entry *models.ScoreEntry) error
	BulkInsert(ctx context.Context, entries []models.ScoreEntry) error
	Update(ctx context.Context, userID, id string, update models.ScoreUpdate) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteAllByUser(ctx context.Context, userID string) error
}

type scoreCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scoreExtractor interface {
	ExtractOne(ctx context.Context, req extraction.TextRequest) (*extraction.Candidate, error)
	ExtractMany(ctx context.Context, req extraction.TextRequest) ([]extraction.Candidate, error)
	ExtractImage(ctx context.Context, req extraction.ImageRequest) ([]extraction.Candidate, error)
}

type settingsProvider interface {
	Get(ctx context.Context, userID string) (models.AppSettings, error)
}

// ScoreService implements score CRUD and extraction flows. All reads and
// writes keep the Redis mirror in sync so the score list stays available
// when the database is down.
type ScoreService struct {
	repo      scoreRepository
	cache     scoreCache
	extractor scoreExtractor
	settings  settingsProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(repo scoreRepository, cache scoreCache, extractor scoreExtractor, settings settingsProvider, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScoreService{repo: repo, cache: cache, extractor: extractor, settings: settings, validator: validate, logger: logger}
}

// List returns the user's entries, newest first. When the database is
// unreachable it serves the last mirrored copy instead of failing.
func (s *ScoreService) List(ctx context.Context, userID string) ([]models.ScoreEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("score list from database failed, trying mirror", zap.Error(err))
		var mirrored []models.ScoreEntry
		if cacheErr := s.cache.Get(ctx, repository.ScoresMirrorKey(userID), &mirrored); cacheErr == nil {
			return mirrored, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	s.mirror(ctx, userID, entries)
	return entries, nil
}

// Query returns the user's entries ordered by their configured sort option,
// optionally filtered by a free-text search across subject, exam type,
// provenance text and the score value.
func (s *ScoreService) Query(ctx context.Context, userID, search string) ([]models.ScoreEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("settings unavailable, using default ordering", zap.Error(err))
		settings = models.DefaultSettings()
	}
	if search != "" {
		filtered := make([]models.ScoreEntry, 0, len(entries))
		for _, e := range entries {
			if entryMatches(e, search) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	scoring.SortEntries(entries, settings.SortOption)
	return entries, nil
}

func entryMatches(e models.ScoreEntry, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, field := range []string{
		e.Subject,
		e.ExamType,
		e.OriginalText,
		strconv.FormatFloat(e.Score, 'f', -1, 64),
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Create stores a manually entered score.
func (s *ScoreService) Create(ctx context.Context, userID string, req models.ScoreCreateRequest) (*models.ScoreEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	entry := &models.ScoreEntry{
		UserID:       userID,
		Subject:      req.Subject,
		ExamType:     req.ExamType,
		Score:        req.Score,
		MaxScore:     req.MaxScore,
		Timestamp:    req.Timestamp,
		OriginalText: req.OriginalText,
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	if err := s.insertWithFallback(ctx, userID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ExtractAndCreate interprets free text as a single score and stores it.
func (s *ScoreService) ExtractAndCreate(ctx context.Context, userID, text string) (*models.ScoreEntry, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.extractor.ExtractOne(ctx, extraction.TextRequest{
		Text:            text,
		DefaultMaxScore: settings.DefaultMaxScore,
		ExamTypes:       settings.ExamTypeNames(),
		Subjects:        settings.CustomSubjects,
		Language:        settings.Language,
	})
	if err != nil {
		return nil, err
	}

	entry := s.entryFromCandidate(userID, *candidate, text)
	if err := s.insertWithFallback(ctx, userID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ExtractAndCreateBulk interprets free text mentioning several scores and
// stores every one of them.
func (s *ScoreService) ExtractAndCreateBulk(ctx context.Context, userID, text string) ([]models.ScoreEntry, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.extractor.ExtractMany(ctx, extraction.TextRequest{
		Text:            text,
		DefaultMaxScore: settings.DefaultMaxScore,
		ExamTypes:       settings.ExamTypeNames(),
		Subjects:        settings.CustomSubjects,
		Language:        settings.Language,
	})
	if err != nil {
		return nil, err
	}
	return s.storeCandidates(ctx, userID, candidates, text)
}

// ExtractFromImage interprets a grade-sheet image and stores every score
// found in it.
func (s *ScoreService) ExtractFromImage(ctx context.Context, userID, data, mimeType string) ([]models.ScoreEntry, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.extractor.ExtractImage(ctx, extraction.ImageRequest{
		Data:            data,
		MIMEType:        mimeType,
		DefaultMaxScore: settings.DefaultMaxScore,
		ExamTypes:       settings.ExamTypeNames(),
		Subjects:        settings.CustomSubjects,
		Language:        settings.Language,
	})
	if err != nil {
		return nil, err
	}
	return s.storeCandidates(ctx, userID, candidates, models.ImageOriginalText)
}

// Update applies a partial edit to an entry owned by the user.
func (s *ScoreService) Update(ctx context.Context, userID, id string, update models.ScoreUpdate) (*models.ScoreEntry, error) {
	if update.MaxScore != nil && *update.MaxScore <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max score must be positive")
	}
	if update.Score != nil && *update.Score < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must not be negative")
	}
	if err := s.repo.Update(ctx, userID, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update score")
	}
	s.refreshMirror(ctx, userID)
	entry, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload score")
	}
	return entry, nil
}

// Delete removes one entry owned by the user.
func (s *ScoreService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "score entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}
	s.refreshMirror(ctx, userID)
	return nil
}

// DeleteMany removes the selected entries owned by the user and returns how
// many were deleted. Unknown or foreign IDs are skipped silently so a stale
// selection does not fail the whole batch.
func (s *ScoreService) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no entry ids selected")
	}
	deleted, err := s.repo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete scores")
	}
	if deleted > 0 {
		s.refreshMirror(ctx, userID)
	}
	return deleted, nil
}

// DeleteAll removes every entry belonging to the user.
func (s *ScoreService) DeleteAll(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAllByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete scores")
	}
	s.mirror(ctx, userID, []models.ScoreEntry{})
	return nil
}

func (s *ScoreService) storeCandidates(ctx context.Context, userID string, candidates []extraction.Candidate, originalText string) ([]models.ScoreEntry, error) {
	entries := make([]models.ScoreEntry, 0, len(candidates))
	for _, candidate := range candidates {
		entries = append(entries, *s.entryFromCandidate(userID, candidate, originalText))
	}
	if err := s.repo.BulkInsert(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scores")
	}
	s.refreshMirror(ctx, userID)
	return entries, nil
}

func (s *ScoreService) entryFromCandidate(userID string, candidate extraction.Candidate, originalText string) *models.ScoreEntry {
	return &models.ScoreEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Subject:      candidate.Subject,
		ExamType:     candidate.ExamType,
		Score:        candidate.Score,
		MaxScore:     candidate.MaxScore,
		Timestamp:    time.Now().UnixMilli(),
		OriginalText: originalText,
	}
}

// insertWithFallback stores the entry in the database, and when that fails
// appends it to the Redis mirror so the record is not lost during an outage.
func (s *ScoreService) insertWithFallback(ctx context.Context, userID string, entry *models.ScoreEntry) error {
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warn("score insert failed, writing to mirror only", zap.Error(err))
		var mirrored []models.ScoreEntry
		if cacheErr := s.cache.Get(ctx, repository.ScoresMirrorKey(userID), &mirrored); cacheErr != nil && !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		mirrored = append([]models.ScoreEntry{*entry}, mirrored...)
		if cacheErr := s.cache.Set(ctx, repository.ScoresMirrorKey(userID), mirrored, 0); cacheErr != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
		}
		s.invalidateSummaries(ctx, userID)
		return nil
	}
	s.refreshMirror(ctx, userID)
	return nil
}

func (s *ScoreService) refreshMirror(ctx context.Context, userID string) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("mirror refresh failed", zap.Error(err))
		return
	}
	s.mirror(ctx, userID, entries)
}

func (s *ScoreService) mirror(ctx context.Context, userID string, entries []models.ScoreEntry) {
	if err := s.cache.Set(ctx, repository.ScoresMirrorKey(userID), entries, 0); err != nil {
		s.logger.Warn("score mirror write failed", zap.Error(err))
	}
	s.invalidateSummaries(ctx, userID)
}

func (s *ScoreService) invalidateSummaries(ctx context.Context, userID string) {
	if err := s.cache.DeleteByPattern(ctx, "youscore:summary:"+userID+":*"); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}
