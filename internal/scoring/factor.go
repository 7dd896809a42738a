package scoring

import "github.com/noah-isme/youscore-api/internal/models"

// defaultMultiplier applies when an exam type has no configured factor.
const defaultMultiplier = 1.0

// FactorMap resolves exam-type labels to weighting multipliers.
type FactorMap map[string]float64

// NewFactorMap builds a lookup from the configured factor list. Factor names
// are matched case-sensitively. Duplicate names are rejected upstream by the
// settings service; should one slip through, the first occurrence wins.
func NewFactorMap(factors []models.CustomFactor) FactorMap {
	m := make(FactorMap, len(factors))
	for _, f := range factors {
		if _, ok := m[f.Name]; ok {
			continue
		}
		m[f.Name] = f.Multiplier
	}
	return m
}

// Multiplier returns the configured multiplier for the exam type, or 1 when
// no factor matches.
func (m FactorMap) Multiplier(examType string) float64 {
	if v, ok := m[examType]; ok {
		return v
	}
	return defaultMultiplier
}
