package sessions

import (
	"math"
	"time"

	"readingtracker/internal/models"
)

// Stats describes one row of a book's session table
type Stats struct {
	ID        string        `json:"id"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Pages     int           `json:"pages"`
	// Pace is minutes per page. Zero when HasPace is false.
	Pace    float64 `json:"pace"`
	HasPace bool    `json:"hasPace"`
	Open    bool    `json:"open"`
}

// Pace returns minutes per page for a closed session that advanced at least
// one page.
func Pace(s models.ReadingSession) (float64, bool) {
	if s.EndTime == nil || s.EndPage == nil {
		return 0, false
	}
	pages := *s.EndPage - s.StartPage
	if pages <= 0 {
		return 0, false
	}
	minutes := s.EndTime.Sub(s.StartTime).Minutes()
	return minutes / float64(pages), true
}

// AveragePace is the arithmetic mean of the per-session paces. Each session
// counts once regardless of its length.
func AveragePace(list []models.ReadingSession) (float64, bool) {
	var (
		sum   float64
		count int
	)
	for _, s := range list {
		p, ok := Pace(s)
		if !ok {
			continue
		}
		sum += p
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// EstimateMinutes returns the minutes needed to read the given number of
// pages at the average pace, rounded up.
func EstimateMinutes(pages int, list []models.ReadingSession) (int, bool) {
	avg, ok := AveragePace(list)
	if !ok || pages <= 0 {
		return 0, ok
	}
	return int(math.Ceil(float64(pages) * avg)), true
}

// Elapsed is the running time of a session: up to now when open, up to its
// end time otherwise.
func Elapsed(s models.ReadingSession, now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// Table returns one Stats row per session in insertion order
func Table(book models.Book, now time.Time) []Stats {
	rows := make([]Stats, 0, len(book.ReadingSessions))
	for _, s := range book.ReadingSessions {
		row := Stats{
			ID:        s.ID,
			StartTime: s.StartTime,
			Duration:  Elapsed(s, now),
			Open:      s.IsOpen(),
		}
		if s.EndPage != nil {
			row.Pages = *s.EndPage - s.StartPage
		}
		row.Pace, row.HasPace = Pace(s)
		rows = append(rows, row)
	}
	return rows
}
