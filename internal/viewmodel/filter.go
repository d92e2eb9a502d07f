// Package viewmodel derives everything the UI renders from the expense
// store: the filtered subsequence, totals, per-category breakdowns and
// dashboard insights. All functions are pure.
package viewmodel

import (
	"strings"

	"expensetracker/internal/core"
)

// Filter selects a subsequence of expenses. Every set field must match.
type Filter struct {
	Category core.Category // empty or core.CategoryAll disables the predicate
	Date     core.Date     // zero disables the predicate
	Search   string        // case-insensitive substring of title, category or amount
}

// NewFilter builds a filter from raw form values. An unparseable date is
// ignored rather than rejected.
func NewFilter(category, date, search string) Filter {
	f := Filter{Category: core.ParseFilterCategory(category), Search: search}
	if d, err := core.ParseDate(date); err == nil {
		f.Date = d
	}
	return f
}

// Active reports whether any predicate is set.
func (f Filter) Active() bool {
	return f.categoryActive() || !f.Date.IsZero() || f.Search != ""
}

func (f Filter) categoryActive() bool {
	return f.Category != "" && f.Category != core.CategoryAll
}

// Key is a stable representation used for memoization.
func (f Filter) Key() string {
	c := f.Category
	if !f.categoryActive() {
		c = core.CategoryAll
	}
	return string(c) + "|" + f.Date.String() + "|" + f.Search
}

// Match reports whether e satisfies every active predicate.
func (f Filter) Match(e core.Expense) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(string(e.Category)), q) &&
			!strings.Contains(e.Amount.Short(), q) {
			return false
		}
	}
	if f.categoryActive() && e.Category != f.Category {
		return false
	}
	if !f.Date.IsZero() && !e.Date.Equal(f.Date) {
		return false
	}
	return true
}

// Apply returns the records matching f in their original order.
func Apply(records []core.Expense, f Filter) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
