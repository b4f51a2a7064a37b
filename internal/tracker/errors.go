package tracker

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation is wrapped by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrPageRegression is returned when a change would move a book's page
	// backwards where that is not allowed: below an open session's start
	// page, or below the last page of a finished book.
	ErrPageRegression = errors.New("page cannot move backwards")
)

// ValidationError lists the rejected input fields and why
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for f := range e.Problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Problems[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(field, problem string) {
	if e.Problems == nil {
		e.Problems = make(map[string]string)
	}
	if _, exists := e.Problems[field]; !exists {
		e.Problems[field] = problem
	}
}

// Outcome tells callers whether a mutation changed anything
type Outcome int

const (
	// Applied means the book collection changed and was saved
	Applied Outcome = iota
	// Unchanged means the book was already in the requested state, or the
	// operation's precondition did not hold (e.g. no open session)
	Unchanged
	// NotFound means no book (or session) matched the given id
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
