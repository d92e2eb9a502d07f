// Package rest talks to an expense collection exposed as a JSON resource:
// GET and POST on the collection URL, DELETE on {url}/{id}.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/remote"
)

const maxErrorBody = 512

type Client struct {
	baseURL string
	http    *http.Client
}

var _ remote.ExpenseCollection = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the collection at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// wireExpense is the record as served by the collection. Document stores
// name the identifier "_id"; "id" is accepted too.
type wireExpense struct {
	MongoID  string          `json:"_id,omitempty"`
	ID       string          `json:"id,omitempty"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

type createRequest struct {
	Title    string      `json:"title"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
}

func (w wireExpense) toCore() (core.Expense, error) {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	if id == "" {
		return core.Expense{}, core.ErrEmptyID
	}
	amount, err := core.MoneyFromDecimal(w.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("record %s: %w", id, err)
	}
	date, err := core.ParseDate(w.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("record %s: %w", id, err)
	}
	return core.Expense{
		ID:       id,
		Title:    w.Title,
		Amount:   amount,
		Category: core.ParseCategory(w.Category),
		Date:     date,
	}, nil
}

// List fetches the whole collection. Records that cannot be decoded are
// skipped and logged.
func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var raw []wireExpense
	if err := c.do(req, "list expenses", &raw); err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(raw))
	for _, w := range raw {
		e, err := w.toCore()
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed expense record", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Create posts the draft and returns the stored record.
func (c *Client) Create(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	body, err := json.Marshal(createRequest{
		Title:    strings.TrimSpace(d.Title),
		Amount:   json.Number(d.Amount.Short()),
		Category: d.Category.String(),
		Date:     d.Date.String(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("encode expense: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return core.Expense{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var w wireExpense
	if err := c.do(req, "create expense", &w); err != nil {
		return core.Expense{}, err
	}
	e, err := w.toCore()
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode created expense: %w", err)
	}
	return e, nil
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return core.ErrEmptyID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	return c.do(req, "delete expense", nil)
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(req.Context(), "Remote collection call",
		"op", op,
		"method", req.Method,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &remote.StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body", op)
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
