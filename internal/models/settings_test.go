package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBackfillsShowDates(t *testing.T) {
	// Saved blobs from before the field existed decode with a nil pointer.
	var stored AppSettings
	require.NoError(t, json.Unmarshal([]byte(`{"rounding":2,"language":"en"}`), &stored))
	require.Nil(t, stored.ShowDates)

	normalized := stored.Normalize()
	require.NotNil(t, normalized.ShowDates)
	assert.True(t, *normalized.ShowDates)
	assert.Equal(t, 2, normalized.Rounding)
	assert.Equal(t, "en", normalized.Language)
}

func TestNormalizeKeepsExplicitShowDatesFalse(t *testing.T) {
	var stored AppSettings
	require.NoError(t, json.Unmarshal([]byte(`{"show_dates":false}`), &stored))

	normalized := stored.Normalize()
	require.NotNil(t, normalized.ShowDates)
	assert.False(t, *normalized.ShowDates)
}

func TestNormalizeReplacesInvalidValues(t *testing.T) {
	stored := AppSettings{
		SortOption:       "newest",
		Rounding:         7,
		DefaultMaxScore:  -5,
		SemestersPerYear: 0,
		Language:         "fr",
		SemesterRanges:   []SemesterRange{{StartMonth: 0, EndMonth: 13}, {StartMonth: 9, EndMonth: 1}},
	}

	normalized := stored.Normalize()
	assert.Equal(t, SortDateDesc, normalized.SortOption)
	assert.Equal(t, 1, normalized.Rounding)
	assert.InDelta(t, 10, normalized.DefaultMaxScore, 0.001)
	assert.Equal(t, 2, normalized.SemestersPerYear)
	assert.Equal(t, "vi", normalized.Language)
	assert.NotEmpty(t, normalized.CustomFactors)
	assert.NotEmpty(t, normalized.CustomSubjects)
	// The wrapping September-January range is valid, the out-of-range one is dropped.
	assert.Equal(t, []SemesterRange{{StartMonth: 9, EndMonth: 1}}, normalized.SemesterRanges)
}
