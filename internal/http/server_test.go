package http

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/remote"
	"expensetracker/internal/remote/memory"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type failingCollection struct {
	remote.ExpenseCollection
}

func (failingCollection) Create(context.Context, core.ExpenseDraft) (core.Expense, error) {
	return core.Expense{}, errors.New("connection refused")
}

type testEnv struct {
	srv     *Server
	store   *store.Store
	session *store.Session
}

func seedExpenses() []core.Expense {
	return []core.Expense{
		{ID: "e3", Title: "Lunch", Amount: core.Money{Cents: 1250}, Category: core.Food, Date: core.NewDate(2025, 3, 10)},
		{ID: "e2", Title: "Bus ticket", Amount: core.Money{Cents: 300}, Category: core.Transport, Date: core.NewDate(2025, 3, 9)},
		{ID: "e1", Title: "Shoes", Amount: core.Money{Cents: 8999}, Category: core.Shopping, Date: core.NewDate(2025, 2, 1)},
	}
}

func newTestEnv(t *testing.T, coll remote.ExpenseCollection, rateLimit int) *testEnv {
	t.Helper()
	st := store.New()
	svc := services.NewExpenseService(coll, st, nil)
	require.NoError(t, svc.Load(context.Background()))

	session := store.NewSession(store.Profile{Name: "Alex Doe", Email: "alex@example.com"}, st)
	srv := NewServer(Config{
		Addr:               ":0",
		Service:            svc,
		Session:            session,
		RateLimitPerMinute: rateLimit,
		Now:                func() time.Time { return testNow },
	})
	require.NotNil(t, srv.templates, "templates should parse")
	return &testEnv{srv: srv, store: st, session: session}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func TestIndexRendersDashboard(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "Expense Pro")
	assert.Contains(t, body, "Add New Expense")
	assert.Contains(t, body, "Alex Doe")
	assert.Contains(t, body, "Lunch")
	assert.Contains(t, body, "theme-glass")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestContentFiltersByCategoryAndSearch(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/content?tab=expenses&filter_category=Food", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Lunch")
	assert.NotContains(t, body, "Bus ticket")
	assert.Contains(t, body, "Clear filters")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/content?tab=expenses&q=89.99", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Shoes")
	assert.NotContains(t, body, "Lunch")
	assert.NotContains(t, body, "Clear filters")
}

func TestContentReportsAndSettingsTabs(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/content?tab=reports", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Category Distribution")
	assert.Contains(t, rr.Body.String(), "conic-gradient")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/content?tab=settings", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Application settings will be available here")
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(formRequest(http.MethodPost, "/expenses", url.Values{
		"title":    {"Coffee"},
		"amount":   {"3,50"},
		"category": {"food"},
		"tab":      {"expenses"},
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "expense:created")
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, trigger, "Expense added: Coffee ($3.50)")
	assert.Contains(t, rr.Body.String(), "Coffee")

	records, _ := env.store.Snapshot()
	require.Len(t, records, 4)
	assert.Equal(t, "Coffee", records[0].Title)
	assert.Equal(t, core.Food, records[0].Category)
	assert.True(t, records[0].Date.Equal(core.DateOf(testNow)), "empty date defaults to today")
}

func TestCreateExpenseKeepsActiveFilter(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		visible    []string
		hidden     []string
		clearShown bool
	}{
		{
			name:    "all categories",
			filter:  "All",
			visible: []string{"Coffee", "Lunch", "Bus ticket", "Shoes"},
		},
		{
			name:       "transport only",
			filter:     "Transport",
			visible:    []string{"Bus ticket"},
			hidden:     []string{"Coffee", "Lunch", "Shoes"},
			clearShown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, memory.New(seedExpenses()), 1000)

			// Form fields first, then the .view-param values htmx includes.
			body := "title=Coffee&amount=3.50&category=Food&date=2025-03-10" +
				"&tab=expenses&filter_category=" + tt.filter + "&filter_date=&q="
			req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("HX-Request", "true")

			rr := env.do(req)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Header().Get("HX-Trigger"), "expense:created")

			html := rr.Body.String()
			for _, title := range tt.visible {
				assert.Contains(t, html, title)
			}
			for _, title := range tt.hidden {
				assert.NotContains(t, html, title)
			}
			assert.Equal(t, tt.clearShown, strings.Contains(html, "Clear filters"))

			records, _ := env.store.Snapshot()
			require.Len(t, records, 4)
			assert.Equal(t, core.Food, records[0].Category)
			assert.Equal(t, "2025-03-10", records[0].Date.String())
		})
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1000)

	tests := []struct {
		name   string
		values url.Values
		msg    string
	}{
		{"missing title", url.Values{"amount": {"5"}}, "Title is required"},
		{"bad amount", url.Values{"title": {"x"}, "amount": {"abc"}}, "Invalid amount"},
		{"negative amount", url.Values{"title": {"x"}, "amount": {"-5"}}, "Invalid amount"},
		{"bad date", url.Values{"title": {"x"}, "amount": {"5"}, "date": {"yesterday"}}, "Invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(formRequest(http.MethodPost, "/expenses", tt.values))
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, rr.Header().Get("HX-Trigger"), tt.msg)
		})
	}
	assert.Equal(t, 0, env.store.Len())
}

func TestCreateExpenseRemoteFailure(t *testing.T) {
	env := newTestEnv(t, failingCollection{memory.New(seedExpenses())}, 1000)

	rr := env.do(formRequest(http.MethodPost, "/expenses", url.Values{
		"title": {"Coffee"}, "amount": {"3.50"}, "category": {"Food"},
	}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Error saving expense")
	assert.NotContains(t, rr.Header().Get("HX-Trigger"), "form:reset")
	assert.Equal(t, 3, env.store.Len())

	metrics := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metrics, "remote_failures_total 1")
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	req := httptest.NewRequest(http.MethodDelete, "/expenses/e2?tab=expenses", nil)
	req.Header.Set("HX-Request", "true")
	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "expense:deleted")
	assert.NotContains(t, rr.Body.String(), "Bus ticket")

	_, ok := env.store.Get("e2")
	assert.False(t, ok)
	assert.Equal(t, 2, env.store.Len())

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/expenses/missing", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Expense not found")
	assert.Equal(t, 2, env.store.Len())
}

func TestTitlesAreEscaped(t *testing.T) {
	seed := []core.Expense{{ID: "x", Title: "<script>alert(1)</script>", Amount: core.Money{Cents: 100}, Category: core.Other, Date: core.NewDate(2025, 3, 1)}}
	env := newTestEnv(t, memory.New(seed), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/content?tab=expenses", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1000)

	rr := env.do(formRequest(http.MethodPost, "/profile", url.Values{"name": {"Jane Roe"}, "email": {"not-an-email"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Invalid email address")
	assert.Equal(t, "Alex Doe", env.session.Profile().Name)

	rr = env.do(formRequest(http.MethodPost, "/profile", url.Values{"name": {strings.Repeat("a", 101)}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(formRequest(http.MethodPost, "/profile", url.Values{"name": {"Jane Roe"}, "email": {"jane@example.com"}}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "profile:updated")
	assert.Contains(t, rr.Body.String(), "Jane Roe")
	assert.Contains(t, rr.Body.String(), `hx-swap-oob="true"`)
	assert.Equal(t, "jane@example.com", env.session.Profile().Email)
}

func avatarRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1000)

	rr := env.do(avatarRequest(t, []byte("just some text")))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Avatar must be an image")
	assert.Empty(t, env.session.Profile().Avatar)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	rr = env.do(avatarRequest(t, png))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(env.session.Profile().Avatar, "data:image/png;base64,"))
	assert.Contains(t, rr.Body.String(), "data:image/png;base64,")
}

func TestLogoutAndLogin(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(formRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("HX-Redirect"))
	assert.False(t, env.session.LoggedIn())
	assert.Equal(t, 0, env.store.Len())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Logged Out")
	assert.NotContains(t, rr.Body.String(), "Lunch")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/content", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, env.session.LoggedIn())
	assert.Equal(t, "Alex Doe", env.session.Profile().Name)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.srv.Shutdown(ctx))
	assert.False(t, env.store.Loading())
	assert.Equal(t, 3, env.store.Len())
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t, memory.New(seedExpenses()), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ready"`)

	env.store.SetLoading(true)
	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	env.store.SetLoading(false)

	env.do(httptest.NewRequest(http.MethodGet, "/ui/content", nil))
	env.do(httptest.NewRequest(http.MethodGet, "/ui/content", nil))

	rr = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "store_expenses 3")
	assert.Contains(t, body, "view_cache_misses_total 1")
	assert.Contains(t, body, "view_cache_hits_total 1")
}

func TestMutationsAreRateLimited(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1)

	values := url.Values{"title": {"Tea"}, "amount": {"2"}}
	rr := env.do(formRequest(http.MethodPost, "/expenses", values))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(formRequest(http.MethodPost, "/expenses", values))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, env.store.Len())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/content", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSuspiciousRequestsAreBlocked(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/.env", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	metrics := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metrics, "suspicious_requests_total 1")
}

func TestStaticAssetsAreServed(t *testing.T) {
	env := newTestEnv(t, memory.New(nil), 1000)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".theme-classic")
}
