package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryAll   Category = "All"
	Food          Category = "Food"
	Transport     Category = "Transport"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Health        Category = "Health"
	Other         Category = "Other"
)

// DateLayout is the calendar date form used on the wire and in forms.
const DateLayout = "2006-01-02"

type (
	// Category is one of the enumerated expense categories. CategoryAll is
	// only meaningful as a filter value.
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a record as stored by the remote collection.
	Expense struct {
		ID       string
		Title    string
		Amount   Money
		Category Category
		Date     Date
	}

	// ExpenseDraft is the payload submitted to create an expense; the
	// identifier is assigned by the remote collection.
	ExpenseDraft struct {
		Title    string
		Amount   Money
		Category Category
		Date     Date
	}
)

// Categories lists the record categories in enumeration order.
var Categories = []Category{Food, Transport, Shopping, Entertainment, Bills, Health, Other}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyID         = errors.New("empty id")
)

var categoryIcons = map[Category]string{
	Food:          "🍔",
	Transport:     "🚗",
	Shopping:      "🛍️",
	Entertainment: "🎬",
	Bills:         "💡",
	Health:        "🏥",
	Other:         "📦",
}

var chartPalette = []string{"#8b5cf6", "#ec4899", "#f59e0b", "#10b981", "#3b82f6", "#ef4444", "#6366f1"}

// ParseCategory maps s onto an enumerated category, ignoring case.
// Unknown or empty values become Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return Other
}

// ParseFilterCategory is like ParseCategory but keeps the All sentinel,
// and treats an empty value as All.
func ParseFilterCategory(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll
	}
	return ParseCategory(s)
}

// Valid reports whether c is a record category.
func (c Category) Valid() bool {
	return c.index() >= 0
}

func (c Category) index() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return -1
}

// Icon returns the display icon, falling back to Other's.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[Other]
}

// Color returns the chart colour assigned to the category.
func (c Category) Color() string {
	i := c.index()
	if i < 0 {
		i = Other.index()
	}
	return chartPalette[i%len(chartPalette)]
}

func (c Category) String() string { return string(c) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD or any longer value starting with it
// (RFC 3339 timestamps); only the calendar date is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Equal compares calendar dates.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

// Before reports whether d falls on an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.String() < o.String()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e ExpenseDraft) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return e.Date.Validate()
}

// WithID turns the draft into a stored record.
func (e ExpenseDraft) WithID(id string) Expense {
	return Expense{
		ID:       id,
		Title:    strings.TrimSpace(e.Title),
		Amount:   e.Amount,
		Category: e.Category,
		Date:     e.Date,
	}
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	return ExpenseDraft{Title: e.Title, Amount: e.Amount, Category: e.Category, Date: e.Date}.Validate()
}
