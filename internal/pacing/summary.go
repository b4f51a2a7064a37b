package pacing

import (
	"time"

	"cloud.google.com/go/civil"

	"readingtracker/internal/models"
	"readingtracker/internal/sessions"
)

// Summary carries the derived values a front end shows for one book
type Summary struct {
	YesterdayPage int `json:"yesterdayPage"`
	DailyGoal     int `json:"dailyGoal"`
	TodaysTarget  int `json:"todaysTarget"`

	// RemainingToday is how many pages are still needed to hit today's target
	RemainingToday int `json:"remainingToday"`
	PagesReadToday int `json:"pagesReadToday"`

	OverallPercent float64 `json:"overallPercent"`
	TodayPercent   float64 `json:"todayPercent"`

	DaysRemaining int  `json:"daysRemaining"`
	HasTargetDate bool `json:"hasTargetDate"`

	AveragePace      float64 `json:"averagePace"`
	HasPace          bool    `json:"hasPace"`
	EstimatedMinutes int     `json:"estimatedMinutes"`

	SessionOpen    bool          `json:"sessionOpen"`
	SessionElapsed time.Duration `json:"sessionElapsed"`
}

// Summarize computes the display values for a book at the given instant
func Summarize(book models.Book, now time.Time, today civil.Date) Summary {
	s := Summary{
		YesterdayPage: YesterdayPage(book, today),
		DailyGoal:     DailyGoal(book, today),
		TodaysTarget:  TodaysTarget(book, today),
	}

	s.RemainingToday = max(0, s.TodaysTarget-book.CurrentPage)
	s.PagesReadToday = max(0, book.CurrentPage-s.YesterdayPage)

	if book.TotalPages > 0 {
		s.OverallPercent = percent(book.CurrentPage, book.TotalPages)
	}
	if s.DailyGoal > 0 {
		s.TodayPercent = percent(s.PagesReadToday, s.DailyGoal)
	}

	s.DaysRemaining, s.HasTargetDate = DaysRemaining(book, today)

	s.AveragePace, s.HasPace = sessions.AveragePace(book.ReadingSessions)
	s.EstimatedMinutes, _ = sessions.EstimateMinutes(book.TotalPages-book.CurrentPage, book.ReadingSessions)

	if open, ok := sessions.Open(book); ok {
		s.SessionOpen = true
		s.SessionElapsed = sessions.Elapsed(open, now)
	}
	return s
}

// percent returns part/whole as a percentage capped at 100
func percent(part, whole int) float64 {
	p := float64(part) / float64(whole) * 100
	if p > 100 {
		return 100
	}
	return p
}
