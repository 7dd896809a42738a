package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
	"github.com/noah-isme/youscore-api/internal/scoring"
	"github.com/noah-isme/youscore-api/internal/semester"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

// SemesterAll selects every entry regardless of semester.
const SemesterAll = "all"

const summaryCacheTTL = 5 * time.Minute

type scoreLister interface {
	List(ctx context.Context, userID string) ([]models.ScoreEntry, error)
}

// SummaryResponse is the dashboard aggregation for one semester selection.
type SummaryResponse struct {
	Semester string `json:"semester"`
	scoring.Summary
}

// SummaryService computes the weighted dashboard summary.
type SummaryService struct {
	scores   scoreLister
	settings settingsProvider
	cache    scoreCache
	logger   *zap.Logger
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(scores scoreLister, settings settingsProvider, cache scoreCache, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{scores: scores, settings: settings, cache: cache, logger: logger}
}

// Get returns the aggregated summary for the given semester selection.
// The selection is either "all" or a 1-based semester number.
func (s *SummaryService) Get(ctx context.Context, userID, semesterSel string) (*SummaryResponse, error) {
	if semesterSel == "" {
		semesterSel = SemesterAll
	}
	semesterNum := 0
	if semesterSel != SemesterAll {
		n, err := strconv.Atoi(semesterSel)
		if err != nil || n < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 'all' or a positive number")
		}
		semesterNum = n
	}

	cacheKey := repository.SummaryKey(userID, semesterSel)
	var cached SummaryResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.scores.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	if semesterNum > 0 {
		filtered := make([]models.ScoreEntry, 0, len(entries))
		for _, e := range entries {
			if semester.ClassifyMillis(e.Timestamp, settings.SemestersPerYear, settings.SemesterRanges) == semesterNum {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	summary := scoring.Aggregate(entries, scoring.NewFactorMap(settings.CustomFactors), settings.DefaultMaxScore)
	summary.Average = roundTo(summary.Average, settings.Rounding)
	for i := range summary.Subjects {
		summary.Subjects[i].Average = roundTo(summary.Subjects[i].Average, settings.Rounding)
	}

	result := &SummaryResponse{Semester: semesterSel, Summary: summary}
	if err := s.cache.Set(ctx, cacheKey, result, summaryCacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", zap.Error(err))
	}
	return result, nil
}

func roundTo(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(value*scale) / scale
}
