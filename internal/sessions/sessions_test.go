package sessions

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingtracker/internal/models"
)

var (
	t0    = time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)
	today = civil.DateOf(t0)
)

func readingBook() models.Book {
	return models.Book{
		ID:          "b1",
		Title:       "Dune",
		TotalPages:  300,
		TargetDays:  10,
		CurrentPage: 10,
		Status:      models.StatusReading,
	}
}

func closed(startPage, endPage int, start time.Time, d time.Duration) models.ReadingSession {
	end := start.Add(d)
	return models.ReadingSession{
		ID:        start.String(),
		StartTime: start,
		StartPage: startPage,
		EndTime:   &end,
		EndPage:   &endPage,
	}
}

func TestStart_OpensAtCurrentPage(t *testing.T) {
	book := readingBook()

	out, ok := Start(book, "s1", t0)
	require.True(t, ok)
	require.Len(t, out.ReadingSessions, 1)

	s := out.ReadingSessions[0]
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 10, s.StartPage)
	assert.Equal(t, t0, s.StartTime)
	assert.True(t, s.IsOpen())
	assert.Nil(t, s.EndPage)
	assert.Empty(t, book.ReadingSessions, "input must not change")
}

func TestStart_RejectsSecondOpenSession(t *testing.T) {
	book, ok := Start(readingBook(), "s1", t0)
	require.True(t, ok)

	out, ok := Start(book, "s2", t0.Add(time.Minute))
	assert.False(t, ok)
	assert.Len(t, out.ReadingSessions, 1)
}

func TestEnd_WithoutOpenSession(t *testing.T) {
	book := readingBook()

	out, ok, err := End(book, "40", t0, today)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, book, out)
}

func TestEnd_ClosesAndRecordsProgress(t *testing.T) {
	book, _ := Start(readingBook(), "s1", t0)

	out, ok, err := End(book, "40", t0.Add(20*time.Minute), today)
	require.NoError(t, err)
	require.True(t, ok)

	s := out.ReadingSessions[0]
	require.NotNil(t, s.EndTime)
	require.NotNil(t, s.EndPage)
	assert.Equal(t, 40, *s.EndPage)
	assert.Equal(t, t0.Add(20*time.Minute), *s.EndTime)
	assert.Equal(t, 40, out.CurrentPage)
	assert.Equal(t, models.StatusReading, out.Status)
	require.Len(t, out.DailyProgress, 1)
	assert.Equal(t, models.ProgressEntry{Date: today, Page: 40}, out.DailyProgress[0])
}

func TestEnd_ClampsAndFinishesBook(t *testing.T) {
	book, _ := Start(readingBook(), "s1", t0)

	out, ok, err := End(book, "999", t0.Add(time.Hour), today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 300, out.CurrentPage)
	assert.Equal(t, 300, *out.ReadingSessions[0].EndPage)
	assert.Equal(t, models.StatusRead, out.Status)
}

func TestEnd_UnparseableKeepsCurrentPage(t *testing.T) {
	book, _ := Start(readingBook(), "s1", t0)

	out, ok, err := End(book, "abc", t0.Add(time.Minute), today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, out.CurrentPage)
	assert.Equal(t, 10, *out.ReadingSessions[0].EndPage)
}

func TestEnd_BelowStartPageIsRejected(t *testing.T) {
	book, _ := Start(readingBook(), "s1", t0)

	out, ok, err := End(book, "5", t0.Add(time.Minute), today)
	assert.ErrorIs(t, err, ErrBelowStartPage)
	assert.False(t, ok)
	assert.Equal(t, 10, out.CurrentPage)
	assert.True(t, out.ReadingSessions[0].IsOpen(), "session must stay open")
	assert.Empty(t, out.DailyProgress)
}

func TestDelete(t *testing.T) {
	book := readingBook()
	book.ReadingSessions = []models.ReadingSession{
		closed(10, 40, t0, 20*time.Minute),
		closed(40, 50, t0.Add(time.Hour), 20*time.Minute),
	}
	book.CurrentPage = 50
	firstID := book.ReadingSessions[0].ID

	out, ok := Delete(book, firstID)
	require.True(t, ok)
	require.Len(t, out.ReadingSessions, 1)
	assert.Equal(t, 40, out.ReadingSessions[0].StartPage)
	assert.Equal(t, 50, out.CurrentPage)
	assert.Len(t, book.ReadingSessions, 2, "input must not change")

	_, ok = Delete(out, "missing")
	assert.False(t, ok)
}

func TestAveragePace_IsMeanOfSessionPaces(t *testing.T) {
	list := []models.ReadingSession{
		closed(10, 40, t0, 20*time.Minute),
		closed(40, 50, t0.Add(time.Hour), 20*time.Minute),
	}

	avg, ok := AveragePace(list)
	require.True(t, ok)
	expected := (20.0/30.0 + 20.0/10.0) / 2
	assert.InDelta(t, expected, avg, 1e-9)
	assert.InDelta(t, 1.333, avg, 0.001)
}

func TestAveragePace_IgnoresNonContributing(t *testing.T) {
	open := models.ReadingSession{ID: "open", StartTime: t0, StartPage: 50}
	list := []models.ReadingSession{
		open,
		closed(50, 50, t0, 10*time.Minute),
	}

	_, ok := AveragePace(list)
	assert.False(t, ok)

	list = append(list, closed(50, 60, t0, 30*time.Minute))
	avg, ok := AveragePace(list)
	require.True(t, ok)
	assert.InDelta(t, 3.0, avg, 1e-9)
}

func TestEstimateMinutes(t *testing.T) {
	list := []models.ReadingSession{
		closed(0, 10, t0, 15*time.Minute),
	}

	minutes, ok := EstimateMinutes(7, list)
	require.True(t, ok)
	assert.Equal(t, 11, minutes) // ceil(7 * 1.5)

	_, ok = EstimateMinutes(7, nil)
	assert.False(t, ok)
}

func TestTable(t *testing.T) {
	book := readingBook()
	book.ReadingSessions = []models.ReadingSession{
		closed(10, 40, t0, 20*time.Minute),
		{ID: "open", StartTime: t0.Add(time.Hour), StartPage: 40},
	}

	rows := Table(book, t0.Add(90*time.Minute))
	require.Len(t, rows, 2)

	assert.Equal(t, 20*time.Minute, rows[0].Duration)
	assert.Equal(t, 30, rows[0].Pages)
	assert.True(t, rows[0].HasPace)
	assert.False(t, rows[0].Open)

	assert.Equal(t, 30*time.Minute, rows[1].Duration)
	assert.True(t, rows[1].Open)
	assert.False(t, rows[1].HasPace)
}
