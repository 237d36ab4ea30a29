// Package http serves the dashboard pages, form endpoints and chart data.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	zlog "zeus/internal/log"
	"zeus/internal/metrics"
	"zeus/internal/middleware/ratelimit"
	"zeus/internal/middleware/security"
	"zeus/internal/middleware/trace"
	"zeus/internal/news"
	"zeus/internal/services"
	appweb "zeus/web"
)

// NewsSource supplies sidebar headlines. *news.Client implements it.
type NewsSource interface {
	Latest(ctx context.Context) news.Result
}

type Options struct {
	Ledger    *services.LedgerService
	News      NewsSource
	Metrics   *metrics.Metrics
	Logger    *zlog.Logger
	RateLimit ratelimit.Config
	// Now defaults to time.Now; it picks the month shown when none is requested.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates   *template.Template
	ledger      *services.LedgerService
	news        NewsSource
	metrics     *metrics.Metrics
	logger      *zlog.Logger
	rateLimiter *ratelimit.Limiter
	now         func() time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zlog.New(zlog.DefaultConfig())
	}
	logger = logger.WithComponent(zlog.ComponentHTTP)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		ledger:      opts.Ledger,
		news:        opts.News,
		metrics:     opts.Metrics,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		now:         now,
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(zlog.ComponentTemplate).Error("Failed parsing templates", zlog.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", zlog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /income", s.handleIncome)
	mux.HandleFunc("POST /goal", s.handleGoal)
	mux.HandleFunc("POST /savings", s.handleSavings)
	mux.HandleFunc("POST /notes", s.handleNotes)
	mux.HandleFunc("POST /reminders", s.handleReminders)
	mux.HandleFunc("POST /expenses", s.handleExpenses)
	mux.HandleFunc("GET /api/charts/comparison", s.handleComparisonChart)
	mux.HandleFunc("GET /api/charts/breakdown", s.handleBreakdownChart)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(security.ClientIP, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, s.metrics, security.ClientIP, security.Suspicious).Middleware(handler)

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

// Shutdown stops background work and drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	zlog.FromContext(r.Context()).WithComponent(zlog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		zlog.FieldClientIP, security.ClientIP(r),
		zlog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Muitas requisições. Tente novamente em instantes.", http.StatusTooManyRequests)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks the templates parsed and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		zlog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", zlog.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
