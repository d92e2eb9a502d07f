package google

import (
	"fmt"
	"strings"

	"expensetracker/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API, header
// excluded) into expenses, newest row first. Unreadable rows are counted
// and skipped.
func parseRows(values [][]interface{}) ([]core.Expense, int) {
	out := make([]core.Expense, 0, len(values))
	skipped := 0
	for i := len(values) - 1; i >= 0; i-- {
		cols := toStrings(values[i])
		if isBlank(cols) {
			continue
		}
		e, err := parseRow(cols)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped
}

func parseRow(cols []string) (core.Expense, error) {
	if len(cols) < 5 {
		return core.Expense{}, fmt.Errorf("expected 5 columns, got %d", len(cols))
	}
	id := cols[0]
	if id == "" {
		return core.Expense{}, core.ErrEmptyID
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.ParseMoney(strings.Trim(cols[3], "$€ "))
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:       id,
		Title:    cols[2],
		Amount:   amount,
		Category: core.ParseCategory(cols[4]),
		Date:     date,
	}, nil
}

func formatRow(e core.Expense) []any {
	return []any{e.ID, e.Date.String(), e.Title, e.Amount.String(), e.Category.String()}
}

// findRow returns the zero-based sheet row whose first column is id, or -1.
func findRow(values [][]interface{}, id string) int {
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
