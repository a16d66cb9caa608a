// Package http exposes the manual report trigger and the health endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/middleware/ratelimit"
	"github.com/Kavalar/by-kalancha/internal/middleware/security"
	"github.com/Kavalar/by-kalancha/internal/middleware/trace"
	"github.com/Kavalar/by-kalancha/internal/report"
)

// ReportGenerator runs the report pipeline for one request.
type ReportGenerator interface {
	Generate(ctx context.Context, req core.PeriodRequest) (core.Outcome, error)
}

// Pinger is checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the middleware stack. Zero values fall back to defaults.
type Options struct {
	RateLimit      ratelimit.Config
	AllowedOrigins []string
	ReadyTimeout   time.Duration
}

type Server struct {
	http.Server
	generator ReportGenerator
	backend   Pinger
	locale    *report.Locale
	logger    *applog.Logger

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	metrics *metrics

	readyTimeout time.Duration
	shutdownOnce sync.Once
}

type metrics struct {
	started time.Time
	sent    atomic.Int64
	noData  atomic.Int64
	failed  atomic.Int64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, generator ReportGenerator, backend Pinger, locale *report.Locale, logger *applog.Logger, opts Options) *Server {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	ips := security.NewClientIPResolver()

	s := &Server{
		generator:    generator,
		backend:      backend,
		locale:       locale,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		tracer:       trace.NewMiddleware(logger, ips.ClientIP),
		metrics:      &metrics{started: time.Now()},
		readyTimeout: opts.ReadyTimeout,
	}

	cors := security.DefaultCORSConfig()
	cors.AllowedOrigins = opts.AllowedOrigins

	reports := security.CORS(cors)(
		s.limiter.Middleware(ips.ClientIP, s.handleRateLimited, http.MethodPost)(
			http.HandlerFunc(s.handleReport)))

	mux := http.NewServeMux()
	mux.Handle("/reports", reports)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
