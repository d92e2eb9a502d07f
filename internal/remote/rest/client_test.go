package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/remote"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/expenses/", time.Second)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:5000", time.Second)
	assert.Error(t, err)
	_, err = New("ftp://example.com/expenses", time.Second)
	assert.Error(t, err)
}

func TestListDecodesRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/expenses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"_id":"65a1","title":"Lunch","amount":12.5,"category":"Food","date":"2024-05-01T00:00:00.000Z"},
			{"id":"2","title":"Taxi","amount":"7.30","category":"transport","date":"2024-05-02"},
			{"_id":"3","title":"Vet","amount":40,"category":"Pets","date":"2024-05-03"},
			{"title":"no id","amount":1,"category":"Food","date":"2024-05-03"},
			{"_id":"5","title":"refund","amount":-3,"category":"Food","date":"2024-05-03"}
		]`)
	})

	got, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "65a1", got[0].ID)
	assert.Equal(t, int64(1250), got[0].Amount.Cents)
	assert.Equal(t, "2024-05-01", got[0].Date.String())
	assert.Equal(t, core.Transport, got[1].Category)
	assert.Equal(t, int64(730), got[1].Amount.Cents)
	assert.Equal(t, core.Other, got[2].Category)
}

func TestCreatePostsDraft(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Coffee", body["title"])
		assert.Equal(t, 3.5, body["amount"])
		assert.Equal(t, "Food", body["category"])
		assert.Equal(t, "2024-05-04", body["date"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"new1","title":"Coffee","amount":3.5,"category":"Food","date":"2024-05-04"}`)
	})

	e, err := c.Create(context.Background(), core.ExpenseDraft{
		Title:    " Coffee ",
		Amount:   core.Money{Cents: 350},
		Category: core.Food,
		Date:     core.NewDate(2024, 5, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", e.ID)
	assert.Equal(t, int64(350), e.Amount.Cents)
}

func TestCreateRejectsInvalidDraftWithoutCalling(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := c.Create(context.Background(), core.ExpenseDraft{Amount: core.Money{Cents: 1}, Category: core.Food, Date: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.False(t, called)
}

func TestCreateServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Create(context.Background(), core.ExpenseDraft{Title: "x", Amount: core.Money{Cents: 1}, Category: core.Food, Date: core.NewDate(2024, 1, 1)})
	var se *remote.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Body)
}

func TestDelete(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		if r.URL.Path == "/api/expenses/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Expense deleted"}`)
	})

	require.NoError(t, c.Delete(context.Background(), "a b"))
	assert.Equal(t, "/api/expenses/a%20b", gotPath)

	err := c.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, remote.ErrNotFound)

	assert.ErrorIs(t, c.Delete(context.Background(), " "), core.ErrEmptyID)
}

func TestListTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)
	_, err = c.List(context.Background())
	assert.Error(t, err)
}
