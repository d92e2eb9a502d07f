package viewmodel

import (
	"sort"

	"expensetracker/internal/core"
)

// Summary aggregates a filtered subsequence.
type Summary struct {
	Total   core.Money
	Count   int
	Average core.Money
	// Breakdown holds categories with a positive total, in enumeration order.
	Breakdown []core.CategoryTotal
}

// Summarize computes totals over records.
func Summarize(records []core.Expense) Summary {
	var total core.Money
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return Summary{
		Total:     total,
		Count:     len(records),
		Average:   total.Div(len(records)),
		Breakdown: Breakdown(records),
	}
}

// Breakdown groups records by enumerated category. Categories whose total
// is not positive are omitted.
func Breakdown(records []core.Expense) []core.CategoryTotal {
	byCat := make(map[core.Category]*core.CategoryTotal, len(core.Categories))
	for _, e := range records {
		ct, ok := byCat[e.Category]
		if !ok {
			ct = &core.CategoryTotal{Category: e.Category}
			byCat[e.Category] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}
	out := make([]core.CategoryTotal, 0, len(byCat))
	for _, c := range core.Categories {
		if ct, ok := byCat[c]; ok && ct.Total.Cents > 0 {
			out = append(out, *ct)
		}
	}
	return out
}

// ByCount returns a copy of b ordered by count, highest first. Ties keep
// their relative order.
func ByCount(b []core.CategoryTotal) []core.CategoryTotal {
	out := append([]core.CategoryTotal(nil), b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ByTotal returns a copy of b ordered by total, highest first. Ties keep
// their relative order.
func ByTotal(b []core.CategoryTotal) []core.CategoryTotal {
	out := append([]core.CategoryTotal(nil), b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out
}
