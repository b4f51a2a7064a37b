// Package pacing derives reading targets from a book's ledger and deadline.
//
// Every function is pure: the reader's calendar date is passed in rather
// than read from the wall clock.
package pacing

import (
	"cloud.google.com/go/civil"

	"readingtracker/internal/ledger"
	"readingtracker/internal/models"
)

// YesterdayPage is the page reached by the end of the last recorded day
// before today. Without such a day it falls back to the book's stored
// baseline, or 0.
func YesterdayPage(book models.Book, today civil.Date) int {
	if e, ok := ledger.LatestBefore(book.DailyProgress, today); ok {
		return e.Page
	}
	if book.YesterdayPage != nil {
		return *book.YesterdayPage
	}
	return 0
}

// DaysRemaining is the number of calendar days from today to the target
// date. Negative once the target date has passed. The second value is false
// when the book has no target date.
func DaysRemaining(book models.Book, today civil.Date) (int, bool) {
	if book.TargetDate == nil {
		return 0, false
	}
	return book.TargetDate.DaysSince(today), true
}

// DailyGoal is the number of pages to read today to finish on the target
// date. Books that are not being read have no goal. When the target date
// is today or already past, the goal is everything that is left.
func DailyGoal(book models.Book, today civil.Date) int {
	if book.Status != models.StatusReading {
		return 0
	}
	days, ok := DaysRemaining(book, today)
	if !ok {
		return 0
	}

	left := book.TotalPages - YesterdayPage(book, today)
	if left <= 0 {
		return 0
	}
	if days <= 0 {
		return left
	}
	return ceilDiv(left, days)
}

// TodaysTarget is the page to reach by the end of today. It never exceeds
// the book's total pages.
func TodaysTarget(book models.Book, today civil.Date) int {
	target := YesterdayPage(book, today) + DailyGoal(book, today)
	if target > book.TotalPages {
		return book.TotalPages
	}
	return target
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
