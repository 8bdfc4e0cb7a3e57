// Package server wires the application together: it builds the dependency
// graph (store → services → handlers), defines the routes, and runs the HTTP
// server with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	main.go reads config → server.New() creates:
//	  sqlite.DB → CredentialStore ┐
//	  auth.GitHubProvider         ├→ AuthService      → AuthHandler
//	  github.Client               ├→ ProvisionService → WorkflowHandler
//	  auth.TokenService           ┘
//
// Everything is assembled in this one composition root; no package reaches
// for globals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Pallava-Joshi/auto-committer/internal/auth"
	"github.com/Pallava-Joshi/auto-committer/internal/github"
	"github.com/Pallava-Joshi/auto-committer/internal/handler"
	"github.com/Pallava-Joshi/auto-committer/internal/middleware"
	sqliteRepo "github.com/Pallava-Joshi/auto-committer/internal/repository/sqlite"
	"github.com/Pallava-Joshi/auto-committer/internal/secret"
	"github.com/Pallava-Joshi/auto-committer/internal/service"
)

// Config holds server configuration, populated from the environment in
// main.go and passed in explicitly.
type Config struct {
	Port   int
	DBPath string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// JWTSecret signs session cookies. Empty disables sessions: the OAuth
	// callback still works and stores credentials, but /auth/me is not
	// registered.
	JWTSecret string

	// TokenKey (hex, 32 bytes) seals stored access tokens at rest.
	// Empty means tokens are stored in plaintext.
	TokenKey string

	// TemplateOwner/TemplateRepo identify the template repository new repos
	// are generated from.
	TemplateOwner string
	TemplateRepo  string

	// GitHubAPIBaseURL overrides the GitHub REST base URL (tests only).
	GitHubAPIBaseURL string

	// GitHubAuthURL/GitHubTokenURL/GitHubUserURL override the OAuth
	// endpoints (tests only); left empty the provider uses the real ones.
	GitHubAuthURL  string
	GitHubTokenURL string
	GitHubUserURL  string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and assembles the whole dependency graph.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.TemplateOwner == "" {
		cfg.TemplateOwner = "Pallava-Joshi"
	}
	if cfg.TemplateRepo == "" {
		cfg.TemplateRepo = "auto-commit-template"
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds services and handlers and binds them to paths.
//
// ROUTE STRUCTURE:
//
//	GET  /                      → liveness text
//	GET  /auth/github           → redirect into GitHub authorization
//	GET  /auth/github/callback  → OAuth exchange, credential persist
//	GET  /auth/me               → session profile (only with JWT secret)
//	POST /auth/logout           → clear session cookie
//	POST /generate-workflow     → provision a scheduled-commit repository
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Sessions are optional; without a JWT secret the callback still stores
	// credentials but issues no cookie.
	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	}

	var cipher *secret.Cipher
	if s.config.TokenKey != "" {
		var err error
		cipher, err = secret.NewCipher(s.config.TokenKey)
		if err != nil {
			return fmt.Errorf("creating token cipher: %w", err)
		}
	} else {
		s.logger.Warn("TOKEN_KEY not set, access tokens are stored unencrypted")
	}

	creds := s.db.Credentials(cipher)

	provider := auth.NewGitHubProvider(auth.ProviderConfig{
		ClientID:     s.config.GitHubClientID,
		ClientSecret: s.config.GitHubClientSecret,
		CallbackURL:  s.config.GitHubCallbackURL,
		AuthURL:      s.config.GitHubAuthURL,
		TokenURL:     s.config.GitHubTokenURL,
		UserURL:      s.config.GitHubUserURL,
	})

	ghClient := github.NewClient(github.Config{
		APIBaseURL: s.config.GitHubAPIBaseURL,
	}, s.logger)

	authService := service.NewAuthService(provider, creds, tokens, s.logger)
	provisionService := service.NewProvisionService(creds, ghClient,
		s.config.TemplateOwner, s.config.TemplateRepo, s.logger)

	authHandler := handler.NewAuthHandler(authService, provider, s.logger)
	workflowHandler := handler.NewWorkflowHandler(provisionService, s.logger)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "Github Auto Committer Running!")
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github", authHandler.HandleLogin)
		r.Get("/github/callback", authHandler.HandleCallback)
		r.Post("/logout", authHandler.HandleLogout)

		if tokens != nil {
			r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
		}
	})

	s.router.Post("/generate-workflow", workflowHandler.HandleGenerate)

	return nil
}

// Router exposes the configured router; tests mount it on httptest servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // provisioning makes several GitHub round trips
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
