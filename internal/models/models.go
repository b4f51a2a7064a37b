package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Status is the reading state of a book
type Status string

const (
	StatusWantToRead Status = "want-to-read"
	StatusReading    Status = "reading"
	StatusRead       Status = "read"
)

// Book represents a book on the reader's shelf
type Book struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	TotalPages  int         `json:"totalPages"`
	TargetDays  int         `json:"targetDays"`
	CurrentPage int         `json:"currentPage"`
	Status      Status      `json:"status"`
	StartDate   *civil.Date `json:"startDate"`
	TargetDate  *civil.Date `json:"targetDate"`

	// YesterdayPage is a baseline carried by older collections. It is only
	// consulted when the ledger has no entry before today.
	YesterdayPage *int `json:"yesterdayPage,omitempty"`

	DailyProgress   []ProgressEntry  `json:"dailyProgress"`
	ReadingSessions []ReadingSession `json:"readingSessions"`
}

// ProgressEntry is the page reached on a calendar date
type ProgressEntry struct {
	Date civil.Date `json:"date"`
	Page int        `json:"page"`
}

// ReadingSession is a timed reading interval. EndTime and EndPage stay nil
// while the session is open.
type ReadingSession struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"startTime"`
	StartPage int        `json:"startPage"`
	EndTime   *time.Time `json:"endTime"`
	EndPage   *int       `json:"endPage"`
}

// IsOpen reports whether the session has not been ended yet
func (s ReadingSession) IsOpen() bool {
	return s.EndTime == nil
}

// Clone returns a deep copy of the book so callers can derive a new state
// without touching the original slices.
func (b Book) Clone() Book {
	out := b
	if b.StartDate != nil {
		d := *b.StartDate
		out.StartDate = &d
	}
	if b.TargetDate != nil {
		d := *b.TargetDate
		out.TargetDate = &d
	}
	if b.YesterdayPage != nil {
		p := *b.YesterdayPage
		out.YesterdayPage = &p
	}
	if b.DailyProgress != nil {
		out.DailyProgress = make([]ProgressEntry, len(b.DailyProgress))
		copy(out.DailyProgress, b.DailyProgress)
	}
	if b.ReadingSessions != nil {
		out.ReadingSessions = make([]ReadingSession, len(b.ReadingSessions))
		for i, s := range b.ReadingSessions {
			out.ReadingSessions[i] = s.clone()
		}
	}
	return out
}

func (s ReadingSession) clone() ReadingSession {
	out := s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.EndPage != nil {
		p := *s.EndPage
		out.EndPage = &p
	}
	return out
}

// ClampPage bounds a page number to [0, totalPages]
func ClampPage(page, totalPages int) int {
	if page < 0 {
		return 0
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
