// Package http serves the FinanceAI JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financeai/internal/auth"
	"financeai/internal/log"
	"financeai/internal/middleware/cors"
	"financeai/internal/middleware/ratelimit"
	"financeai/internal/middleware/security"
	"financeai/internal/middleware/trace"
	"financeai/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API needs.
type Deps struct {
	Transactions *services.TransactionService
	Auth         *services.AuthService
	Advisor      *services.AdvisorService
	Issuer       *auth.Issuer
	Storage      Pinger
	Logger       *log.Logger

	CORSOrigins []string
	// TrustedProxies are extra CIDRs whose forwarding headers are honoured.
	TrustedProxies []string
	// AuthRateLimit caps auth requests per client per minute. Zero disables it.
	AuthRateLimit int
	// AdvisorTimeout bounds one affordability check. Zero means no bound.
	AdvisorTimeout time.Duration
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	detector *security.Detector
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires the router and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	s := &Server{
		deps:     deps,
		logger:   deps.Logger.WithComponent(log.ComponentHTTP),
		detector: security.NewDetector(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	if deps.AuthRateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerWindow: deps.AuthRateLimit,
			Window:            time.Minute,
			CleanupInterval:   5 * time.Minute,
		})
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(s.deps.Logger, s.detector.ClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(cors.New(s.deps.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
					writeMessage(w, http.StatusTooManyRequests, "too many requests, try again later")
				}))
			}
			r.Post("/auth/signup", s.handleSignup)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.deps.Issuer, s.writeError))
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Post("/ai-playground", s.handleAffordability)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Storage.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeMessage(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
