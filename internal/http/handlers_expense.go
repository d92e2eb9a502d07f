package http

import (
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/remote"
)

// handleCreateExpense validates the form, creates the expense remotely and
// answers with the refreshed content. Validation errors answer 422; a
// remote failure answers 200 with an error notification and the unchanged
// content.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoggedIn() {
		s.redirectHome(w, r)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Parse body error", "error", err, log.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}
	tab := ParseTab(p.Get("tab"))
	filter := ParseFilter(p)

	draft, err := ParseExpenseDraft(p, core.DateOf(s.now()))
	if err != nil {
		msg := validationMessage(err)
		UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	e, err := s.service.Add(r.Context(), draft)
	if err != nil {
		s.metrics.remoteFailures.Add(1)
		s.structuredLogger.LogError(r.Context(), "Failed to save expense", err, log.ComponentExpense, log.OpCreate,
			log.NewFields().WithExpense("", draft.Title, draft.Amount.Cents, draft.Category.String()))
		s.writeContent(w, r, NewHTMXResponse().TriggerErrorNotification("Error saving expense"), tab, filter)
		return
	}

	s.metrics.expensesCreated.Add(1)
	s.structuredLogger.LogExpenseCreated(r.Context(), e.ID, e.Title, e.Amount.Cents, e.Category.String())

	b := NewHTMXResponse().
		TriggerExpenseCreated(e.ID).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Expense added: %s (%s)", e.Title, formatMoney(e.Amount)))
	s.writeContent(w, r, b, tab, filter)
}

// handleDeleteExpense deletes the expense remotely and answers with the
// refreshed content. A remote failure, unknown ids included, leaves the
// store untouched and is reported as a notification.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoggedIn() {
		s.redirectHome(w, r)
		return
	}

	id := sanitizeInput(r.PathValue("id"))
	q := r.URL.Query()
	tab := ParseTab(q.Get("tab"))
	filter := ParseFilter(q)

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.metrics.remoteFailures.Add(1)
		msg := "Error deleting expense"
		if errors.Is(err, remote.ErrNotFound) {
			msg = "Expense not found"
		}
		s.structuredLogger.LogError(r.Context(), "Failed to delete expense", err, log.ComponentExpense, log.OpDelete,
			log.LogFields{log.FieldExpenseID: id})
		s.writeContent(w, r, NewHTMXResponse().TriggerErrorNotification(msg), tab, filter)
		return
	}

	s.metrics.expensesDeleted.Add(1)
	s.structuredLogger.LogExpenseDeleted(r.Context(), id)

	b := NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerSuccessNotification("Expense deleted")
	s.writeContent(w, r, b, tab, filter)
}
