package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent describes a change to the expense collection. Deletions
// carry only the id.
type ExpenseEvent struct {
	Type        string    `json:"type"`
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseCreated(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:        EventExpenseCreated,
		ID:          e.ID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category.String(),
		Date:        e.Date.String(),
		Timestamp:   time.Now().UTC(),
	}
}

func NewExpenseDeleted(id string) *ExpenseEvent {
	return &ExpenseEvent{Type: EventExpenseDeleted, ID: id, Timestamp: time.Now().UTC()}
}

// RoutingKey is the event type.
func (m *ExpenseEvent) RoutingKey() string { return m.Type }

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON creates a message from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
