// Package remote defines the outbound port to the expense collection that
// owns the records. Adapters live in the sub-packages.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseLister interface {
		// List returns the whole collection, newest first.
		List(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseCreator interface {
		// Create stores the draft and returns the record with its assigned id.
		Create(ctx context.Context, d core.ExpenseDraft) (core.Expense, error)
	}

	ExpenseDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// ExpenseCollection is the full remote collaborator.
	ExpenseCollection interface {
		ExpenseLister
		ExpenseCreator
		ExpenseDeleter
	}
)

// ErrNotFound is returned when deleting an id the collection does not hold.
var ErrNotFound = errors.New("expense not found")

// StatusError is a non-2xx answer from an HTTP collection.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: unexpected status %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
