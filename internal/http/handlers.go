package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/viewmodel"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether the UI can render: templates parsed and the
// initial collection load finished.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store.Loading() {
		checks["store"] = "loading"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]interface{}{
			"status":   "ok",
			"expenses": s.store.Len(),
			"revision": s.store.Revision(),
		}
	}

	checks["cache"] = map[string]interface{}{
		"view_entries": s.views.Size(),
		"status":       "ok",
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.SuspiciousRequests()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	lookups := s.metrics.viewLookups.Load()
	misses := s.metrics.viewMisses.Load()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_response_time_avg_ms", "gauge", "Average response time in milliseconds", traceMetrics.AverageResponseTimeMs)
	writeMetric(w, "expenses_created_total", "counter", "Expenses created through the UI", s.metrics.expensesCreated.Load())
	writeMetric(w, "expenses_deleted_total", "counter", "Expenses deleted through the UI", s.metrics.expensesDeleted.Load())
	writeMetric(w, "remote_failures_total", "counter", "Failed calls to the expense collection", s.metrics.remoteFailures.Load())
	writeMetric(w, "store_expenses", "gauge", "Expenses currently held in the store", int64(s.store.Len()))
	writeMetric(w, "view_cache_hits_total", "counter", "View-model cache hits", lookups-misses)
	writeMetric(w, "view_cache_misses_total", "counter", "View-model cache misses", misses)
	writeMetric(w, "view_cache_entries", "gauge", "Current view-model cache entries", int64(s.views.Size()))
	writeMetric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.metrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

// handleIndex renders the full page for the requested tab, or the
// logged-out page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	name := "index.html"
	var data any
	if s.session.LoggedIn() {
		q := r.URL.Query()
		data = s.pageData(ParseTab(q.Get("tab")), ParseFilter(q))
	} else {
		name = "logged_out.html"
		data = struct{ Theme string }{Theme: s.theme}
	}

	html, err := s.renderHTML(r.Context(), name, data)
	if err != nil {
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

// handleContent renders the main content partial for tab and filter.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoggedIn() {
		s.redirectHome(w, r)
		return
	}
	q := r.URL.Query()
	s.writeContent(w, r, NewHTMXResponse(), ParseTab(q.Get("tab")), ParseFilter(q))
}

// writeContent renders the content partial into b and sends it.
func (s *Server) writeContent(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, tab string, f viewmodel.Filter) {
	html, err := s.renderHTML(r.Context(), "content", s.pageData(tab, f))
	if err != nil {
		InternalServerError("Error rendering content").Write(w)
		return
	}
	b.BodyHTML(html).Write(w)
}

// redirectHome sends the browser to the main page, via HX-Redirect for
// htmx requests.
func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
