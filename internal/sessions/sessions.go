// Package sessions implements timed reading sessions on a book: opening and
// closing them, removing them, and deriving reading pace from the closed ones.
//
// All functions take a book snapshot and return a new one; the input is
// never modified.
package sessions

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"readingtracker/internal/ledger"
	"readingtracker/internal/models"
)

// ErrBelowStartPage is returned when a session would end on a page earlier
// than the one it started on.
var ErrBelowStartPage = errors.New("end page is before the session start page")

// OpenIndex returns the index of the open session, or -1
func OpenIndex(book models.Book) int {
	for i, s := range book.ReadingSessions {
		if s.IsOpen() {
			return i
		}
	}
	return -1
}

// Open returns the open session, if any
func Open(book models.Book) (models.ReadingSession, bool) {
	idx := OpenIndex(book)
	if idx < 0 {
		return models.ReadingSession{}, false
	}
	return book.ReadingSessions[idx], true
}

// Start opens a new session at the book's current page. It reports false
// and returns the book unchanged when a session is already open.
func Start(book models.Book, id string, now time.Time) (models.Book, bool) {
	if OpenIndex(book) >= 0 {
		return book, false
	}

	out := book.Clone()
	out.ReadingSessions = append(out.ReadingSessions, models.ReadingSession{
		ID:        id,
		StartTime: now,
		StartPage: book.CurrentPage,
	})
	return out, true
}

// End closes the open session at rawPage. Unparseable input keeps the
// current page. The page is clamped to the book, becomes the current page,
// finishes the book when it reaches the last page, and is folded into the
// ledger at today.
//
// It reports false when no session is open. ErrBelowStartPage is returned
// (and the session left open) when the page is before the session's start.
func End(book models.Book, rawPage string, now time.Time, today civil.Date) (models.Book, bool, error) {
	idx := OpenIndex(book)
	if idx < 0 {
		return book, false, nil
	}

	page := models.ClampPage(models.ParsePage(rawPage, book.CurrentPage), book.TotalPages)
	if page < book.ReadingSessions[idx].StartPage {
		return book, false, ErrBelowStartPage
	}

	out := book.Clone()
	endTime := now
	endPage := page
	out.ReadingSessions[idx].EndTime = &endTime
	out.ReadingSessions[idx].EndPage = &endPage

	out.CurrentPage = page
	if page >= out.TotalPages {
		out.Status = models.StatusRead
	}
	out.DailyProgress = ledger.Record(out.DailyProgress, today, page)
	return out, true, nil
}

// Delete removes the session with the given id. The current page and the
// ledger are left as they are. It reports false when no session matches.
func Delete(book models.Book, sessionID string) (models.Book, bool) {
	out := book.Clone()
	kept := out.ReadingSessions[:0]
	found := false
	for _, s := range out.ReadingSessions {
		if s.ID == sessionID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return book, false
	}
	out.ReadingSessions = kept
	return out, true
}
