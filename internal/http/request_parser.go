// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for common
// form parsing, filter extraction, and input sanitization patterns.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/viewmodel"
)

// Tabs of the main page, in navigation order.
const (
	TabDashboard = "dashboard"
	TabExpenses  = "expenses"
	TabReports   = "reports"
	TabSettings  = "settings"
)

var tabs = []string{TabDashboard, TabExpenses, TabReports, TabSettings}

// maxBodyBytes bounds form and JSON bodies for expense and profile requests.
const maxBodyBytes = 64 << 10

// valueGetter is satisfied by url.Values and RequestBodyParser.
type valueGetter interface {
	Get(key string) string
}

// ParseTab returns the requested tab, falling back to the dashboard.
func ParseTab(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range tabs {
		if s == t {
			return t
		}
	}
	return TabDashboard
}

// Filter parameter names. They differ from the expense form's category
// and date fields because the form submits both sets together.
const (
	ParamFilterCategory = "filter_category"
	ParamFilterDate     = "filter_date"
	ParamSearch         = "q"
)

// ParseFilter extracts the filter_category, filter_date and q parameters.
func ParseFilter(v valueGetter) viewmodel.Filter {
	return viewmodel.NewFilter(
		sanitizeInput(v.Get(ParamFilterCategory)),
		sanitizeInput(v.Get(ParamFilterDate)),
		sanitizeInput(v.Get(ParamSearch)),
	)
}

// ParseExpenseDraft builds a validated draft from title, amount, category
// and date. An empty date means today; an unknown category means Other.
func ParseExpenseDraft(v valueGetter, today core.Date) (core.ExpenseDraft, error) {
	amount, err := core.ParseMoney(v.Get("amount"))
	if err != nil {
		return core.ExpenseDraft{}, err
	}

	date := today
	if s := strings.TrimSpace(v.Get("date")); s != "" {
		if date, err = core.ParseDate(s); err != nil {
			return core.ExpenseDraft{}, err
		}
	}

	d := core.ExpenseDraft{
		Title:    sanitizeInput(v.Get("title")),
		Amount:   amount,
		Category: core.ParseCategory(v.Get("category")),
		Date:     date,
	}
	if err := d.Validate(); err != nil {
		return core.ExpenseDraft{}, err
	}
	return d, nil
}

// validationMessage maps draft validation errors onto user-facing text.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "Title is required"
	case errors.Is(err, core.ErrTitleTooLong):
		return "Title is too long (max 200 characters)"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid amount"
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date"
	case errors.Is(err, core.ErrInvalidCategory):
		return "Invalid category"
	default:
		return "Invalid data: " + err.Error()
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	query       url.Values
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		query:       r.URL.Query(),
	}

	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = errors.New("request body too large")
		}
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed body, falling back to the
// query string.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil && p.formData.Has(key) {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return strings.TrimSpace(sanitizeInput(p.query.Get(key)))
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
