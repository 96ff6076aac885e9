// Package server wires the notes API together: it builds the services from
// the injected store, mounts every route with its access rule, and runs the
// HTTP server until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/handler"
	"github.com/sakif/notes-api/internal/middleware"
	"github.com/sakif/notes-api/internal/repository"
	"github.com/sakif/notes-api/internal/service"
)

// shutdownTimeout is how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

type Config struct {
	Port int

	JWTSecret        string
	TokenExpiry      time.Duration
	TokenEmbedExpiry bool

	APIKey     string
	APIKeyName string

	BcryptCost int
}

// Server owns the router and the storage handle it was given.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
}

// route is one row of the routing table: every endpoint states its access
// rule next to its handler.
type route struct {
	method     string
	pattern    string
	capability auth.Capability
	handler    http.HandlerFunc
}

// New builds the server around store. The store is created once by the
// caller; Start closes it on the way out.
func New(cfg Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, auth.TokenOptions{
		Expiry:      cfg.TokenExpiry,
		EmbedExpiry: cfg.TokenEmbedExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	if cfg.APIKey == "" {
		logger.Warn("API_KEY is not set; API-key routes will reject every request")
	}
	apiKeyName := cfg.APIKeyName
	if apiKeyName == "" {
		apiKeyName = "api_key"
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	notes := handler.NewNotesHandler(service.NewNoteService(store, logger), logger)
	accounts := handler.NewAccountHandler(service.NewAccountService(store, passwords, tokens, logger), logger)
	guard := auth.NewGuard(tokens, auth.NewAPIKeyVerifier(cfg.APIKey), apiKeyName, handler.ErrorWriter(logger))

	s.setupRoutes(guard, routes(notes, accounts))

	return s, nil
}

// routes is the complete endpoint table of the API.
func routes(notes *handler.NotesHandler, accounts *handler.AccountHandler) []route {
	return []route{
		{http.MethodGet, "/", auth.Public, accounts.HandleRoot},

		{http.MethodPost, "/notes/", auth.Public, notes.HandleCreate},
		{http.MethodGet, "/notes/", auth.Public, notes.HandleList},
		{http.MethodGet, "/notes/{id}", auth.APIKey, notes.HandleGet},
		{http.MethodPut, "/notes/{id}", auth.Public, notes.HandleUpdate},
		{http.MethodDelete, "/notes/{id}", auth.Public, notes.HandleDelete},

		{http.MethodPost, "/register", auth.Public, accounts.HandleRegister},
		{http.MethodPost, "/token", auth.Public, accounts.HandleToken},
		{http.MethodGet, "/me", auth.Bearer, accounts.HandleMe},
	}
}

// setupRoutes installs the global middleware, then each table row behind
// guard.Require(row.capability).
//
// Middleware order: request id first so every later log line has it, then
// real IP, logging, and panic recovery innermost so a recovered 500 is logged.
func (s *Server) setupRoutes(guard *auth.Guard, table []route) {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	// "/notes" and "/notes/" reach the same handlers.
	s.router.Use(collectionSlash)

	s.router.NotFound(handler.NotFound(s.logger))
	s.router.MethodNotAllowed(handler.MethodNotAllowed(s.logger))

	for _, rt := range table {
		s.router.With(guard.Require(rt.capability)).Method(rt.method, rt.pattern, rt.handler)
		s.logger.Debug("route registered",
			slog.String("method", rt.method),
			slog.String("pattern", rt.pattern),
			slog.String("auth", rt.capability.String()),
		)
	}
}

// collectionSlash rewrites "/notes" to "/notes/" before routing.
func collectionSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/notes" {
			r.URL.Path = "/notes/"
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to shutdownTimeout and closes the store.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run is Start with the shutdown trigger supplied by the caller: the server
// stops when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
