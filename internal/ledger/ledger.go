// Package ledger keeps the per-book history of daily page positions.
//
// The ledger holds at most one entry per calendar date, sorted ascending
// by date. Every write to a book's daily progress goes through Record.
package ledger

import (
	"sort"

	"cloud.google.com/go/civil"

	"readingtracker/internal/models"
)

// Record returns a new ledger with page stored at date. An existing entry
// for the same date is overwritten in place (last write wins); a new date
// is appended and the ledger re-sorted. The input slice is not modified.
func Record(entries []models.ProgressEntry, date civil.Date, page int) []models.ProgressEntry {
	out := make([]models.ProgressEntry, len(entries), len(entries)+1)
	copy(out, entries)

	for i := range out {
		if out[i].Date == date {
			out[i].Page = page
			return out
		}
	}

	out = append(out, models.ProgressEntry{Date: date, Page: page})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// LatestBefore returns the most recent entry strictly before date.
// The second return value is false when no such entry exists.
func LatestBefore(entries []models.ProgressEntry, date civil.Date) (models.ProgressEntry, bool) {
	var (
		latest models.ProgressEntry
		found  bool
	)
	for _, e := range entries {
		if !e.Date.Before(date) {
			continue
		}
		if !found || e.Date.After(latest.Date) {
			latest = e
			found = true
		}
	}
	return latest, found
}

// On returns the entry recorded for date, if any
func On(entries []models.ProgressEntry, date civil.Date) (models.ProgressEntry, bool) {
	for _, e := range entries {
		if e.Date == date {
			return e, true
		}
	}
	return models.ProgressEntry{}, false
}
