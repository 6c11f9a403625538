package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"chitfund/internal/cache"
	"chitfund/internal/core"
	"chitfund/internal/log"
	"chitfund/internal/middleware/ratelimit"
	"chitfund/internal/middleware/security"
	"chitfund/internal/middleware/trace"
	"chitfund/internal/services"
	appweb "chitfund/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	Logger             *log.Logger
	// Ready reports whether dependencies (the store) are usable.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	logger    *log.Logger
	ready     func(ctx context.Context) error

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	caches   *cache.Manager
	views    *cache.RevisionCache[[]byte]
	inflight singleflight.Group

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}

	clientIP := security.NewClientIP()
	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		svc:     svc,
		logger:  opts.Logger,
		ready:   opts.Ready,
		limiter: ratelimit.NewLimiter(limiterCfg),
		tracer:  trace.NewMiddleware(opts.Logger, clientIP.Extract),
		caches:  cache.NewManager(),
		views:   cache.NewRevisionCache(cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL)),
	}
	s.caches.Register(s.views)
	s.caches.StartCleanup(opts.CacheTTL)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	mux.HandleFunc("PATCH /api/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("GET /api/members/{id}/series", s.handleMemberSeries)
	mux.HandleFunc("GET /api/months/{month}/payments", s.handleMonthPayments)
	mux.HandleFunc("PUT /api/months/{month}/payments/{member}", s.handleRecordPayment)
	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/session", s.handleGetSession)
	mux.HandleFunc("POST /api/session", s.handleSelect)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP.Extract, nil)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// ListenAndServe treats http.ErrServerClosed as a clean stop.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

var templateFuncs = template.FuncMap{
	"rupees": core.FormatRupees,
}
