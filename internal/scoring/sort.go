package scoring

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/youscore-api/internal/models"
)

// SortEntries orders entries in place according to the user's sort option.
// Subject ordering uses Vietnamese collation; equal keys keep their relative
// order so ties fall back to the incoming (newest first) order.
func SortEntries(entries []models.ScoreEntry, option models.SortOption) {
	switch option {
	case models.SortDateAsc:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp < entries[j].Timestamp
		})
	case models.SortSubjectAsc:
		coll := collate.New(language.Vietnamese)
		sort.SliceStable(entries, func(i, j int) bool {
			return coll.CompareString(entries[i].Subject, entries[j].Subject) < 0
		})
	case models.SortSubjectDesc:
		coll := collate.New(language.Vietnamese)
		sort.SliceStable(entries, func(i, j int) bool {
			return coll.CompareString(entries[i].Subject, entries[j].Subject) > 0
		})
	case models.SortScoreHigh:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score > entries[j].Score
		})
	case models.SortScoreLow:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score < entries[j].Score
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp > entries[j].Timestamp
		})
	}
}
