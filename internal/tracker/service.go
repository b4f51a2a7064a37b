// Package tracker owns the book collection and applies every change to it.
//
// The Service loads the collection once when it is created and saves the
// whole collection after each mutation that changes something. Each
// mutation returns an Outcome so callers can tell a change apart from a
// request that had nothing to do or named an unknown book.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"readingtracker/internal/ledger"
	"readingtracker/internal/models"
	"readingtracker/internal/pacing"
	"readingtracker/internal/sessions"
	"readingtracker/internal/storage"
)

// Service is the single owner of the in-memory book collection
type Service struct {
	mu       sync.Mutex
	books    []models.Book
	db       storage.Storage
	logger   *zap.Logger
	validate *validator.Validate

	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the source of the current instant
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that defines the reader's calendar day
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithIDGenerator sets how book and session ids are minted
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates the service and loads the stored collection. Corrupt stored
// data starts an empty collection instead of failing.
func New(ctx context.Context, db storage.Storage, logger *zap.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		db:       db,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
		loc:      time.Local,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	books, err := db.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		logger.Warn("Stored collection is corrupt, starting with an empty collection", zap.Error(err))
		books = []models.Book{}
	case err != nil:
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if books == nil {
		books = []models.Book{}
	}

	s.books = books
	observeShelves(s.books)
	logger.Info("Collection loaded", zap.Int("book_count", len(books)))
	return s, nil
}

// Today is the reader's current calendar date
func (s *Service) Today() civil.Date {
	return models.CalendarDate(s.now(), s.loc)
}

// Books returns a copy of the collection in insertion order
func (s *Service) Books() []models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Book, len(s.books))
	for i, b := range s.books {
		out[i] = b.Clone()
	}
	return out
}

// BooksByStatus returns the books on one shelf in insertion order
func (s *Service) BooksByStatus(status models.Status) []models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Book
	for _, b := range s.books {
		if b.Status == status {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Book returns the book with the given id
func (s *Service) Book(id string) (models.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Book{}, false
	}
	return s.books[idx].Clone(), true
}

// Summary computes the display values for a book right now
func (s *Service) Summary(id string) (pacing.Summary, bool) {
	book, ok := s.Book(id)
	if !ok {
		return pacing.Summary{}, false
	}
	now := s.now()
	return pacing.Summarize(book, now, models.CalendarDate(now, s.loc)), true
}

// SessionTable returns the per-session rows for a book
func (s *Service) SessionTable(id string) ([]sessions.Stats, bool) {
	book, ok := s.Book(id)
	if !ok {
		return nil, false
	}
	return sessions.Table(book, s.now()), true
}

// AddBook validates the form input and appends a new want-to-read book
func (s *Service) AddBook(ctx context.Context, title, rawTotalPages, rawTargetDays string) (models.Book, error) {
	in, err := parseNewBook(s.validate, title, rawTotalPages, rawTargetDays)
	if err != nil {
		mutationsTotal.WithLabelValues("add_book", "rejected").Inc()
		return models.Book{}, err
	}

	book := models.Book{
		ID:              s.newID(),
		Title:           in.Title,
		TotalPages:      in.TotalPages,
		TargetDays:      in.TargetDays,
		CurrentPage:     0,
		Status:          models.StatusWantToRead,
		DailyProgress:   []models.ProgressEntry{},
		ReadingSessions: []models.ReadingSession{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(s.snapshot(), book)
	if err := s.commit(ctx, next); err != nil {
		return models.Book{}, err
	}

	mutationsTotal.WithLabelValues("add_book", Applied.String()).Inc()
	s.logger.Info("Book added",
		zap.String("book_id", book.ID),
		zap.String("title", book.Title),
		zap.Int("total_pages", book.TotalPages),
		zap.Int("target_days", book.TargetDays),
	)
	return book.Clone(), nil
}

// DeleteBook removes a book and everything it owns
func (s *Service) DeleteBook(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		mutationsTotal.WithLabelValues("delete_book", NotFound.String()).Inc()
		return NotFound, nil
	}

	next := s.snapshot()
	next = append(next[:idx], next[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return Unchanged, err
	}

	mutationsTotal.WithLabelValues("delete_book", Applied.String()).Inc()
	s.logger.Info("Book deleted", zap.String("book_id", id))
	return Applied, nil
}

// StartReading moves a want-to-read book to reading and fixes its schedule:
// it starts today and is due targetDays calendar days later. Books already
// being read or finished are left alone.
func (s *Service) StartReading(ctx context.Context, id string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "start_reading", id, func(b models.Book) (models.Book, Outcome, error) {
		if b.Status != models.StatusWantToRead {
			return b, Unchanged, nil
		}
		today := s.Today()
		target := today.AddDays(b.TargetDays)

		out := b.Clone()
		out.Status = models.StatusReading
		out.StartDate = &today
		out.TargetDate = &target
		return out, Applied, nil
	})
}

// UpdateCurrentPage sets the current page from raw input. Unparseable
// input counts as page 0. The page is clamped to the book, finishes the
// book when it reaches the end, and is recorded as today's progress.
// A finished book cannot be moved back below its last page.
func (s *Service) UpdateCurrentPage(ctx context.Context, id, rawPage string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "update_current_page", id, func(b models.Book) (models.Book, Outcome, error) {
		page := models.ClampPage(models.ParsePage(rawPage, 0), b.TotalPages)
		if b.Status == models.StatusRead && page < b.TotalPages {
			return b, Unchanged, fmt.Errorf("%w: %q is already finished", ErrPageRegression, b.Title)
		}

		out := b.Clone()
		out.CurrentPage = page
		if page >= out.TotalPages {
			out.Status = models.StatusRead
		}
		out.DailyProgress = ledger.Record(out.DailyProgress, s.Today(), page)
		return out, Applied, nil
	})
}

// UpdateYesterdayPage records raw input as yesterday's progress. The
// current page is raised to it when it is ahead, never lowered.
func (s *Service) UpdateYesterdayPage(ctx context.Context, id, rawPage string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "update_yesterday_page", id, func(b models.Book) (models.Book, Outcome, error) {
		page := models.ClampPage(models.ParsePage(rawPage, 0), b.TotalPages)

		out := b.Clone()
		out.DailyProgress = ledger.Record(out.DailyProgress, s.Today().AddDays(-1), page)
		out.CurrentPage = max(out.CurrentPage, page)
		if out.CurrentPage >= out.TotalPages {
			out.Status = models.StatusRead
		}
		return out, Applied, nil
	})
}

// UpdateTitle replaces the title. Blank titles are rejected.
func (s *Service) UpdateTitle(ctx context.Context, id, title string) (models.Book, Outcome, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		mutationsTotal.WithLabelValues("update_title", "rejected").Inc()
		verr := &ValidationError{}
		verr.add("title", "is required")
		return models.Book{}, Unchanged, verr
	}
	return s.mutate(ctx, "update_title", id, func(b models.Book) (models.Book, Outcome, error) {
		out := b.Clone()
		out.Title = title
		return out, Applied, nil
	})
}

// StartSession opens a timed reading session at the current page. Nothing
// happens when a session is already open.
func (s *Service) StartSession(ctx context.Context, id string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "start_session", id, func(b models.Book) (models.Book, Outcome, error) {
		out, ok := sessions.Start(b, s.newID(), s.now())
		if !ok {
			return b, Unchanged, nil
		}
		return out, Applied, nil
	})
}

// EndSession closes the open session at the raw end page. Unparseable
// input keeps the current page. Ending before the session's start page,
// or below the last page of a finished book, is rejected with
// ErrPageRegression and leaves the session open.
func (s *Service) EndSession(ctx context.Context, id, rawEndPage string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "end_session", id, func(b models.Book) (models.Book, Outcome, error) {
		if b.Status == models.StatusRead && sessions.OpenIndex(b) >= 0 {
			page := models.ClampPage(models.ParsePage(rawEndPage, b.CurrentPage), b.TotalPages)
			if page < b.TotalPages {
				return b, Unchanged, fmt.Errorf("%w: %q is already finished", ErrPageRegression, b.Title)
			}
		}

		now := s.now()
		out, ok, err := sessions.End(b, rawEndPage, now, models.CalendarDate(now, s.loc))
		if errors.Is(err, sessions.ErrBelowStartPage) {
			return b, Unchanged, fmt.Errorf("%w: %v", ErrPageRegression, err)
		}
		if err != nil {
			return b, Unchanged, err
		}
		if !ok {
			return b, Unchanged, nil
		}
		return out, Applied, nil
	})
}

// DeleteSession removes one session. The current page and the ledger keep
// whatever that session recorded.
func (s *Service) DeleteSession(ctx context.Context, id, sessionID string) (models.Book, Outcome, error) {
	return s.mutate(ctx, "delete_session", id, func(b models.Book) (models.Book, Outcome, error) {
		out, ok := sessions.Delete(b, sessionID)
		if !ok {
			return b, NotFound, nil
		}
		return out, Applied, nil
	})
}

// mutate applies fn to the book with the given id and saves the
// collection when the book changed. The in-memory collection only changes
// once the save succeeded.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(models.Book) (models.Book, Outcome, error)) (models.Book, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		mutationsTotal.WithLabelValues(op, NotFound.String()).Inc()
		s.logger.Debug("Mutation on unknown book", zap.String("operation", op), zap.String("book_id", id))
		return models.Book{}, NotFound, nil
	}

	before := s.books[idx]
	after, outcome, err := fn(before.Clone())
	if err != nil {
		mutationsTotal.WithLabelValues(op, "rejected").Inc()
		s.logger.Info("Mutation rejected",
			zap.String("operation", op),
			zap.String("book_id", id),
			zap.Error(err),
		)
		return before.Clone(), Unchanged, err
	}

	if outcome != Applied || reflect.DeepEqual(before, after) {
		if outcome == Applied {
			outcome = Unchanged
		}
		mutationsTotal.WithLabelValues(op, outcome.String()).Inc()
		return before.Clone(), outcome, nil
	}

	next := s.snapshot()
	next[idx] = after
	if err := s.commit(ctx, next); err != nil {
		return before.Clone(), Unchanged, err
	}

	mutationsTotal.WithLabelValues(op, Applied.String()).Inc()
	s.logger.Info("Book updated",
		zap.String("operation", op),
		zap.String("book_id", id),
		zap.Int("current_page", after.CurrentPage),
		zap.String("status", string(after.Status)),
	)
	return after.Clone(), Applied, nil
}

// commit saves next and, on success, makes it the live collection.
// Callers hold s.mu.
func (s *Service) commit(ctx context.Context, next []models.Book) error {
	if err := s.db.Save(ctx, next); err != nil {
		saveErrorsTotal.Inc()
		s.logger.Error("Failed to save collection", zap.Error(err), zap.Int("book_count", len(next)))
		return fmt.Errorf("failed to save collection: %w", err)
	}
	s.books = next
	observeShelves(s.books)
	return nil
}

// snapshot returns a shallow copy of the collection slice. Callers hold s.mu.
func (s *Service) snapshot() []models.Book {
	out := make([]models.Book, len(s.books), len(s.books)+1)
	copy(out, s.books)
	return out
}

// indexOf returns the position of the book with id, or -1. Callers hold s.mu.
func (s *Service) indexOf(id string) int {
	for i, b := range s.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}
