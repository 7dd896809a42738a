package scoring

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/youscore-api/internal/models"
)

// NoBestSubject is reported when no entries exist.
const NoBestSubject = "N/A"

// SubjectSummary aggregates one subject's weighted performance.
type SubjectSummary struct {
	Name    string              `json:"name"`
	Average float64             `json:"average"`
	Entries []models.ScoreEntry `json:"entries"`
}

// Summary is the aggregated view over a set of score entries.
type Summary struct {
	Average     float64          `json:"average"`
	Total       int              `json:"total"`
	BestSubject string           `json:"best_subject"`
	Subjects    []SubjectSummary `json:"subjects"`
}

type subjectAccumulator struct {
	weightedScore float64
	weightedMax   float64
	entries       []models.ScoreEntry
}

// Aggregate computes the weighted average summary for the given entries.
// Averages are rescaled onto the defaultMaxScore display scale. The function
// never fails: empty input yields the zero summary and entries with
// maxScore <= 0 contribute nothing to the denominators.
func Aggregate(entries []models.ScoreEntry, factors FactorMap, defaultMaxScore float64) Summary {
	if len(entries) == 0 {
		return Summary{BestSubject: NoBestSubject, Subjects: []SubjectSummary{}}
	}

	var totalWeightedScore, totalWeightedMax float64
	bySubject := make(map[string]*subjectAccumulator)

	for _, e := range entries {
		mult := factors.Multiplier(e.ExamType)
		score := e.Score * mult
		max := e.MaxScore * mult
		if e.MaxScore <= 0 {
			score, max = 0, 0
		}

		totalWeightedScore += score
		totalWeightedMax += max

		acc, ok := bySubject[e.Subject]
		if !ok {
			acc = &subjectAccumulator{}
			bySubject[e.Subject] = acc
		}
		acc.weightedScore += score
		acc.weightedMax += max
		acc.entries = append(acc.entries, e)
	}

	subjects := make([]SubjectSummary, 0, len(bySubject))
	for name, acc := range bySubject {
		sort.Slice(acc.entries, func(i, j int) bool {
			return acc.entries[i].Timestamp > acc.entries[j].Timestamp
		})
		subjects = append(subjects, SubjectSummary{
			Name:    name,
			Average: scaledRatio(acc.weightedScore, acc.weightedMax, defaultMaxScore),
			Entries: acc.entries,
		})
	}

	coll := collate.New(language.Vietnamese)
	sort.Slice(subjects, func(i, j int) bool {
		return coll.CompareString(subjects[i].Name, subjects[j].Name) < 0
	})

	// Strict comparison over the name-sorted slice makes the tie-break
	// explicitly alphabetical. Starting below zero guarantees a single
	// subject always wins.
	best := NoBestSubject
	maxAvg := -1.0
	for _, s := range subjects {
		if s.Average > maxAvg {
			maxAvg = s.Average
			best = s.Name
		}
	}

	return Summary{
		Average:     scaledRatio(totalWeightedScore, totalWeightedMax, defaultMaxScore),
		Total:       len(entries),
		BestSubject: best,
		Subjects:    subjects,
	}
}

func scaledRatio(score, max, scale float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max * scale
}
