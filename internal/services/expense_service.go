package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
	"expensetracker/internal/remote"
	"expensetracker/internal/store"
)

// EventPublisher announces successful changes to the collection.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, id string) error
	Close() error
}

// ExpenseService orchestrates expense operations across the remote
// collection, the in-memory store and the event publisher.
type ExpenseService struct {
	remote    remote.ExpenseCollection
	store     *store.Store
	publisher EventPublisher
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(r remote.ExpenseCollection, st *store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		remote:    r,
		store:     st,
		publisher: publisher,
	}
}

// Store returns the store the service mutates.
func (s *ExpenseService) Store() *store.Store { return s.store }

// Load replaces the store with the remote collection. A failed fetch is
// logged and leaves the store empty with the loading flag cleared.
func (s *ExpenseService) Load(ctx context.Context) error {
	s.store.SetLoading(true)
	records, err := s.remote.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load expenses", "error", err)
		s.store.Replace(nil)
		return fmt.Errorf("load expenses: %w", err)
	}
	s.store.Replace(records)
	slog.InfoContext(ctx, "Expenses loaded", "count", len(records))
	return nil
}

// Add creates the expense remotely and prepends the stored record.
// On failure the store is unchanged.
func (s *ExpenseService) Add(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := s.remote.Create(ctx, d)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create expense",
			"title", d.Title,
			"amount_cents", d.Amount.Cents,
			"category", d.Category,
			"error", err)
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.store.Prepend(e)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to publish created event", "id", e.ID, "error", err)
			// Don't fail the request - the expense is stored remotely
		}
	}
	return e, nil
}

// Delete removes the expense remotely, then from the store.
// On failure the store is unchanged.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to delete expense", "id", id, "error", err)
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.store.Remove(id)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish deleted event", "id", id, "error", err)
		}
	}
	return nil
}

// Close releases the publisher connection.
func (s *ExpenseService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
