// Package webhook is the HTTP face of the service: the SMS gateway
// webhook, the phone verification flow and account management.
package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"textdrive/internal/conf"
	"textdrive/internal/interp"
	"textdrive/internal/messenger"
	"textdrive/internal/session"
)

// Server routes inbound HTTP traffic to the interpreter and the identity
// flows.
type Server struct {
	cfg       *conf.Config
	store     *session.Store
	interp    *interp.Handler
	messenger messenger.Messenger
	locks     *session.Locks
	router    chi.Router
	server    *http.Server
	limiter   *RateLimiter
}

// NewServer wires the webhook server. The messenger here is used for
// verification codes; the interpreter holds its own reference for 'send'.
func NewServer(cfg *conf.Config, store *session.Store, handler *interp.Handler, m messenger.Messenger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		interp:    handler,
		messenger: m,
		locks:     session.NewLocks(),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// The gateway retries on 429, so rate limiting is safe for /sms too.
	s.limiter = NewRateLimiter(10, 20)
	r.Use(RateLimitMiddleware(s.limiter))

	r.Get("/health", s.handleHealth)

	r.Post("/sms", s.handleInbound)

	r.Post("/verify/start", s.handleVerifyStart)
	r.Post("/verify/check", s.handleVerifyCheck)

	r.Route("/accounts", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListAccounts)
		r.Post("/", s.handleLinkAccount)
		r.Delete("/", s.handleUnlinkAccounts)
	})

	return r
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
