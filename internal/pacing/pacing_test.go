package pacing

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingtracker/internal/ledger"
	"readingtracker/internal/models"
)

var today = civil.Date{Year: 2024, Month: time.July, Day: 15}

func startedBook(total, targetDays int, start civil.Date) models.Book {
	target := start.AddDays(targetDays)
	return models.Book{
		ID:         "b1",
		Title:      "Book",
		TotalPages: total,
		TargetDays: targetDays,
		Status:     models.StatusReading,
		StartDate:  &start,
		TargetDate: &target,
	}
}

func TestStartedToday(t *testing.T) {
	book := startedBook(300, 10, today)

	assert.Equal(t, 0, YesterdayPage(book, today))
	assert.Equal(t, 30, DailyGoal(book, today))
	assert.Equal(t, 30, TodaysTarget(book, today))
}

func TestCatchUpWithLedger(t *testing.T) {
	book := startedBook(300, 10, today.AddDays(-5))
	book.DailyProgress = ledger.Record(nil, today.AddDays(-1), 30)
	book.CurrentPage = 30

	days, ok := DaysRemaining(book, today)
	require.True(t, ok)
	require.Equal(t, 5, days)

	assert.Equal(t, 30, YesterdayPage(book, today))
	assert.Equal(t, 54, DailyGoal(book, today))
	assert.Equal(t, 84, TodaysTarget(book, today))
}

func TestYesterdayPage_IgnoresTodayAndFuture(t *testing.T) {
	book := startedBook(300, 10, today.AddDays(-3))
	book.DailyProgress = ledger.Record(nil, today.AddDays(-3), 10)
	book.DailyProgress = ledger.Record(book.DailyProgress, today.AddDays(-2), 25)
	book.DailyProgress = ledger.Record(book.DailyProgress, today, 60)

	assert.Equal(t, 25, YesterdayPage(book, today))
}

func TestYesterdayPage_FallsBackToBaseline(t *testing.T) {
	baseline := 42
	book := startedBook(300, 10, today)
	book.YesterdayPage = &baseline

	assert.Equal(t, 42, YesterdayPage(book, today))

	book.DailyProgress = ledger.Record(nil, today, 50)
	assert.Equal(t, 42, YesterdayPage(book, today), "today's entry does not replace the baseline")

	book.DailyProgress = ledger.Record(book.DailyProgress, today.AddDays(-1), 45)
	assert.Equal(t, 45, YesterdayPage(book, today), "ledger wins over the baseline")
}

func TestDailyGoal_NotReading(t *testing.T) {
	book := startedBook(300, 10, today)

	book.Status = models.StatusWantToRead
	assert.Equal(t, 0, DailyGoal(book, today))

	book.Status = models.StatusRead
	assert.Equal(t, 0, DailyGoal(book, today))

	book.Status = models.StatusReading
	book.TargetDate = nil
	assert.Equal(t, 0, DailyGoal(book, today))
}

func TestDailyGoal_DeadlineTodayOrPast(t *testing.T) {
	testCases := []struct {
		name      string
		startedAt civil.Date
		days      int
	}{
		{name: "due today", startedAt: today.AddDays(-10), days: 10},
		{name: "overdue", startedAt: today.AddDays(-30), days: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			book := startedBook(300, tc.days, tc.startedAt)
			book.DailyProgress = ledger.Record(nil, today.AddDays(-1), 120)

			assert.Equal(t, 180, DailyGoal(book, today))
			assert.Equal(t, 300, TodaysTarget(book, today))
		})
	}
}

func TestTodaysTarget_NeverExceedsTotal(t *testing.T) {
	for total := 1; total <= 50; total += 7 {
		for days := 1; days <= 12; days += 3 {
			for offset := -20; offset <= 20; offset += 5 {
				for yesterday := 0; yesterday <= total; yesterday += 4 {
					book := startedBook(total, days, today.AddDays(offset))
					book.DailyProgress = ledger.Record(nil, today.AddDays(-1), yesterday)

					assert.LessOrEqual(t, TodaysTarget(book, today), total)
				}
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	book := startedBook(300, 10, today.AddDays(-5))
	book.DailyProgress = ledger.Record(nil, today.AddDays(-1), 30)
	book.DailyProgress = ledger.Record(book.DailyProgress, today, 57)
	book.CurrentPage = 57

	now := time.Date(2024, 7, 15, 21, 0, 0, 0, time.UTC)
	startedAt := now.Add(-15 * time.Minute)
	book.ReadingSessions = []models.ReadingSession{{ID: "s1", StartTime: startedAt, StartPage: 57}}

	s := Summarize(book, now, today)

	assert.Equal(t, 30, s.YesterdayPage)
	assert.Equal(t, 54, s.DailyGoal)
	assert.Equal(t, 84, s.TodaysTarget)
	assert.Equal(t, 27, s.RemainingToday)
	assert.Equal(t, 27, s.PagesReadToday)
	assert.InDelta(t, 19.0, s.OverallPercent, 1e-9)
	assert.InDelta(t, 50.0, s.TodayPercent, 1e-9)
	assert.True(t, s.HasTargetDate)
	assert.Equal(t, 5, s.DaysRemaining)
	assert.False(t, s.HasPace)
	assert.True(t, s.SessionOpen)
	assert.Equal(t, 15*time.Minute, s.SessionElapsed)
}

func TestSummarize_PercentagesCapAt100(t *testing.T) {
	book := startedBook(100, 10, today)
	book.DailyProgress = ledger.Record(nil, today.AddDays(-1), 0)
	book.CurrentPage = 100
	book.Status = models.StatusRead

	s := Summarize(book, time.Now(), today)
	assert.Equal(t, 100.0, s.OverallPercent)
	assert.Equal(t, 0.0, s.TodayPercent, "finished books have no daily goal")
	assert.Equal(t, 0, s.RemainingToday)

	book.Status = models.StatusReading
	s = Summarize(book, time.Now(), today)
	assert.Equal(t, 10, s.DailyGoal)
	assert.Equal(t, 100.0, s.TodayPercent)
}
