// Package server exposes the HTTP API.
package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"presale-gateway/internal/claim"
	"presale-gateway/internal/config"
	"presale-gateway/internal/intent"
	"presale-gateway/internal/observability"
	"presale-gateway/internal/settlement"
	"presale-gateway/internal/status"
)

var logger = log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

// Server wires the HTTP routes to the domain services.
type Server struct {
	cfg      *config.Config
	intents  *intent.Service
	matcher  *settlement.Matcher
	claims   *claim.Service
	statuses *status.Assembler
	validate *validator.Validate

	httpServer *http.Server
}

// New creates the HTTP server.
func New(addr string, cfg *config.Config, intents *intent.Service, matcher *settlement.Matcher, claims *claim.Service, statuses *status.Assembler) *Server {
	s := &Server{
		cfg:      cfg,
		intents:  intents,
		matcher:  matcher,
		claims:   claims,
		statuses: statuses,
		validate: validator.New(),
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(newOriginMatcher(s.cfg.AllowedOrigins)))
	r.Use(metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Route("/api/token", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/wallet/balances", s.handleWalletBalances)

		r.Route("/presale", func(r chi.Router) {
			r.Post("/intent", s.handlePresaleIntent)
			r.Get("/check", s.handlePresaleCheck)
		})

		r.Route("/claim", func(r chi.Router) {
			r.Post("/early-intent", s.handleEarlyClaimIntent)
			r.Post("/confirm", s.handleClaimConfirm)
			r.Get("/status", s.handleClaimStatus)
		})
	})

	return r
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Printf("listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// metricsMiddleware records per-route request counts and latency.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observability.RecordHTTPRequest(route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}
