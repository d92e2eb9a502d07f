package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/cache"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
	"expensetracker/internal/viewmodel"
	appweb "expensetracker/web"
)

// Config holds the dependencies and settings of the UI server.
type Config struct {
	Addr    string
	Service *services.ExpenseService
	Session *store.Session
	Logger  *applog.Logger

	Theme              string
	RateLimitPerMinute int
	ViewCacheSize      int
	ViewCacheTTL       time.Duration

	// Now overrides the clock used for "today"; nil means time.Now.
	Now func() time.Time
}

type appMetrics struct {
	uptime          time.Time
	expensesCreated atomic.Int64
	expensesDeleted atomic.Int64
	remoteFailures  atomic.Int64
	viewLookups     atomic.Int64
	viewMisses      atomic.Int64
}

// Server renders the expense UI and owns the background reloads it starts.
type Server struct {
	http.Server
	templates *template.Template
	theme     string
	now       func() time.Time

	service *services.ExpenseService
	store   *store.Store
	session *store.Session

	views        *cache.LRUCache[viewmodel.View]
	cacheManager *cache.Manager

	logger           *applog.Logger
	structuredLogger *applog.StructuredLogger
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	metrics  appMetrics
	reloads  sync.WaitGroup
	shutdown sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	if cfg.ViewCacheSize <= 0 {
		cfg.ViewCacheSize = 100
	}
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = 5 * time.Minute
	}
	if cfg.Theme == "" {
		cfg.Theme = "glass"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:           cfg.Addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		theme:            cfg.Theme,
		now:              now,
		service:          cfg.Service,
		store:            cfg.Service.Store(),
		session:          cfg.Session,
		views:            cache.NewLRUCache[viewmodel.View](cfg.ViewCacheSize, cfg.ViewCacheTTL),
		cacheManager:     cache.NewManager(),
		logger:           logger,
		structuredLogger: applog.NewStructuredLogger(logger),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}
	s.metrics.uptime = time.Now()
	s.cacheManager.Register(s.views)
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	t, err := parseTemplates()
	if err != nil {
		logger.Error("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/content", s.handleContent)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /profile", s.handleUpdateProfile)
	mux.HandleFunc("POST /profile/avatar", s.handleUploadAvatar)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)

	// Outermost first: reject probes, trace, secure, limit, then route.
	var handler http.Handler = mux
	handler = applog.Middleware(logger)(handler)
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	s.Handler = handler

	return s
}

// CacheManager returns the manager evicting expired view-model entries.
func (s *Server) CacheManager() *cache.Manager { return s.cacheManager }

// RateLimiter returns the limiter guarding mutating requests.
func (s *Server) RateLimiter() *ratelimit.Limiter { return s.rateLimiter }

// Shutdown stops accepting requests and waits for in-flight reloads.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdown.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)

		done := make(chan struct{})
		go func() {
			s.reloads.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("Shutdown timeout reached with reloads in flight")
		}
	})
	return shutdownErr
}

// reload fetches the collection in the background; the UI polls while
// the store reports loading.
func (s *Server) reload(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.reloads.Add(1)
	go func() {
		defer s.reloads.Done()
		if err := s.service.Load(ctx); err != nil {
			s.metrics.remoteFailures.Add(1)
		}
	}()
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please try again in a minute.").Write(w)
}
