package viewmodel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// RecentLimit is the number of rows in the recent transactions report.
const RecentLimit = 10

// Slice is one category of the distribution chart.
type Slice struct {
	core.CategoryTotal
	Percent decimal.Decimal
	Color   string
	Icon    string
	// From and To delimit the slice on the pie, in percent of the circle.
	From decimal.Decimal
	To   decimal.Decimal
}

// PercentLabel renders the share with one decimal ("42.5").
func (s Slice) PercentLabel() string { return s.Percent.StringFixed(1) }

// PieLabel renders the share without decimals ("43").
func (s Slice) PieLabel() string { return s.Percent.StringFixed(0) }

// Advice is a spending tip shown on the dashboard.
type Advice struct {
	Icon string
	Text string
}

// View is everything the UI renders for one filter over one store snapshot.
type View struct {
	Filter   Filter
	Filtered []core.Expense
	Summary

	TodayTotal   core.Money // over all records
	WeekTotal    core.Money // over all records, last 7 days inclusive
	Highest      core.Money // over all records
	StoreCount   int
	Distribution []Slice
	Advice       []Advice
	Recent       []core.Expense
}

// Compute derives the view for f over all, with today as the reference date.
func Compute(all []core.Expense, f Filter, today core.Date) View {
	filtered := Apply(all, f)
	v := View{
		Filter:     f,
		Filtered:   filtered,
		Summary:    Summarize(filtered),
		StoreCount: len(all),
	}
	v.TodayTotal, v.WeekTotal = recentTotals(all, today)
	v.Highest = Highest(all)
	v.Distribution = Distribution(v.Breakdown, v.Total)
	v.Advice = Suggestions(v.Breakdown, v.Total, len(all))
	v.Recent = filtered
	if len(v.Recent) > RecentLimit {
		v.Recent = v.Recent[:RecentLimit]
	}
	return v
}

// TopCategory is the category with the highest total.
func (v View) TopCategory() (core.CategoryTotal, bool) {
	b := ByTotal(v.Breakdown)
	if len(b) == 0 {
		return core.CategoryTotal{}, false
	}
	return b[0], true
}

// MostFrequent is the category with the most records.
func (v View) MostFrequent() (core.CategoryTotal, bool) {
	b := ByCount(v.Breakdown)
	if len(b) == 0 {
		return core.CategoryTotal{}, false
	}
	return b[0], true
}

// Gradient renders the distribution as a CSS conic-gradient.
func (v View) Gradient() string {
	if len(v.Distribution) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v.Distribution))
	for _, s := range v.Distribution {
		parts = append(parts, fmt.Sprintf("%s %s%% %s%%", s.Color, s.From.StringFixed(2), s.To.StringFixed(2)))
	}
	return "conic-gradient(" + strings.Join(parts, ", ") + ")"
}

func recentTotals(all []core.Expense, today core.Date) (day, week core.Money) {
	weekAgo := today.AddDays(-7)
	for _, e := range all {
		if e.Date.Equal(today) {
			day = day.Add(e.Amount)
		}
		if !e.Date.Before(weekAgo) && !today.Before(e.Date) {
			week = week.Add(e.Amount)
		}
	}
	return day, week
}

// Highest returns the largest amount in records, zero when empty.
func Highest(records []core.Expense) core.Money {
	var top core.Money
	for _, e := range records {
		if e.Amount.Cents > top.Cents {
			top = e.Amount
		}
	}
	return top
}

// Distribution orders the breakdown by total and attaches each category's
// share of total.
func Distribution(breakdown []core.CategoryTotal, total core.Money) []Slice {
	sorted := ByTotal(breakdown)
	out := make([]Slice, 0, len(sorted))
	from := decimal.Zero
	for _, ct := range sorted {
		pct := ct.Total.Share(total)
		to := from.Add(pct)
		out = append(out, Slice{
			CategoryTotal: ct,
			Percent:       pct,
			Color:         ct.Category.Color(),
			Icon:          ct.Category.Icon(),
			From:          from,
			To:            to,
		})
		from = to
	}
	return out
}

var defaultAdvice = []Advice{
	{Icon: "📊", Text: "Track every expense, even small ones. They add up quickly!"},
	{Icon: "💰", Text: "Follow the 50/30/20 rule: 50% needs, 30% wants, 20% savings."},
	{Icon: "📅", Text: "Review your spending weekly to catch overspending early."},
}

var (
	foodLimit      = decimal.NewFromInt(40)
	transportLimit = decimal.NewFromInt(30)
	shoppingLimit  = decimal.NewFromInt(35)
	frugalTotal    = core.Money{Cents: 50000}
)

// Suggestions returns three tips adjusted to the spending pattern.
// storeCount is the number of records before filtering.
func Suggestions(breakdown []core.CategoryTotal, total core.Money, storeCount int) []Advice {
	out := append([]Advice(nil), defaultAdvice...)
	share := func(c core.Category) decimal.Decimal {
		for _, ct := range breakdown {
			if ct.Category == c {
				return ct.Total.Share(total)
			}
		}
		return decimal.Zero
	}
	if share(core.Food).GreaterThan(foodLimit) {
		out[0] = Advice{Icon: "🍽️", Text: "Food is 40%+ of spending. Meal prep can save 30-40% monthly."}
	}
	if share(core.Transport).GreaterThan(transportLimit) {
		out[1] = Advice{Icon: "🚌", Text: "Transport costs are high. Try carpooling or public transit."}
	}
	if share(core.Shopping).GreaterThan(shoppingLimit) {
		out[2] = Advice{Icon: "🛍️", Text: "Shopping is 35%+ of budget. Set a strict monthly limit."}
	}
	if total.Cents < frugalTotal.Cents && storeCount > 5 {
		out[0] = Advice{Icon: "✅", Text: "Excellent! You're managing your finances responsibly."}
	}
	return out
}
