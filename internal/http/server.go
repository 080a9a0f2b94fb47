package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/report"
	"bilancio/internal/services"
)

// Sizer is implemented by caches that can report their entry count.
type Sizer interface {
	Size() int
}

// Options tune the server. The zero value is usable.
type Options struct {
	// RequestsPerMinute limits writes per client; 0 uses the limiter default.
	RequestsPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are honoured.
	TrustedProxies []string
	// Summaries is reported on /metrics when set.
	Summaries Sizer
	// Now replaces the clock used for report defaults and archiving.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc     *services.Services
	reports *report.Aggregator
	logger  *applog.Logger

	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	summaries Sizer

	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.Services, reports *report.Aggregator, logger *applog.Logger, opts Options) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		svc:       svc,
		reports:   reports,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(rlConfig),
		detector:  security.NewDetector(),
		summaries: opts.Summaries,
		now:       now,
		started:   now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited, http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	handler = s.detector.Middleware(handler)
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

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)

	mux.HandleFunc("GET /api/rules", s.handleListRules)
	mux.HandleFunc("POST /api/rules", s.handleCreateRule)
	mux.HandleFunc("GET /api/rules/{id}", s.handleGetRule)
	mux.HandleFunc("PUT /api/rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("POST /api/rules/{id}/archive", s.handleArchiveRule)
	mux.HandleFunc("PUT /api/rules/{id}/months/{year}/{month}", s.handleSetMonthAmount)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/installments", s.handleCreateInstallments)
	mux.HandleFunc("DELETE /api/installments/{id}", s.handleDeleteInstallments)

	mux.HandleFunc("GET /api/reports/month", s.handleMonthReport)
	mux.HandleFunc("GET /api/reports/year", s.handleYearReport)
	mux.HandleFunc("GET /api/reports/calendar", s.handleCalendar)
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// respondError writes err as a JSON response, logging failures that are not
// the client's fault.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := ErrorFrom(err)
	if resp.StatusCode() >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), msg, err, r.Method+" "+r.Pattern, nil)
	} else {
		slog.DebugContext(r.Context(), msg, "error", err)
	}
	resp.Write(w)
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}
