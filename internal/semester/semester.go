// Package semester classifies score timestamps into semester buckets.
package semester

import (
	"time"

	"github.com/noah-isme/youscore-api/internal/models"
)

// Built-in month partitions keyed by semesters per year, following the
// September–June academic year convention. Each block may wrap the year
// boundary.
var fallbackRanges = map[int][]models.SemesterRange{
	2: {
		{StartMonth: 9, EndMonth: 1},
		{StartMonth: 2, EndMonth: 8},
	},
	3: {
		{StartMonth: 9, EndMonth: 12},
		{StartMonth: 1, EndMonth: 3},
		{StartMonth: 4, EndMonth: 8},
	},
	4: {
		{StartMonth: 9, EndMonth: 11},
		{StartMonth: 12, EndMonth: 2},
		{StartMonth: 3, EndMonth: 5},
		{StartMonth: 6, EndMonth: 8},
	},
}

// Classify maps a timestamp to a semester index in [1, semestersPerYear].
// Explicit ranges take precedence; the first matching range wins. Without
// explicit ranges a built-in partition for 2, 3 or 4 semesters applies.
// Anything unmatched or unsupported defaults to semester 1.
func Classify(ts time.Time, semestersPerYear int, ranges []models.SemesterRange) int {
	month := int(ts.Month())

	if len(ranges) > 0 {
		for i, r := range ranges {
			if matches(month, r) {
				return i + 1
			}
		}
		return 1
	}

	if semestersPerYear <= 1 {
		return 1
	}
	fallback, ok := fallbackRanges[semestersPerYear]
	if !ok {
		return 1
	}
	for i, r := range fallback {
		if matches(month, r) {
			return i + 1
		}
	}
	return 1
}

// ClassifyMillis is Classify over an epoch-milliseconds timestamp in local time.
func ClassifyMillis(millis int64, semestersPerYear int, ranges []models.SemesterRange) int {
	return Classify(time.UnixMilli(millis), semestersPerYear, ranges)
}

func matches(month int, r models.SemesterRange) bool {
	if r.StartMonth <= r.EndMonth {
		return month >= r.StartMonth && month <= r.EndMonth
	}
	// Range wraps the year boundary, e.g. September through June.
	return month >= r.StartMonth || month <= r.EndMonth
}
