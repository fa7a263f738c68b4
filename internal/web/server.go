package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/justestif/go-ai-music-player/internal/history"
	"github.com/justestif/go-ai-music-player/internal/library"
)

// DefaultAddr is the default server address.
const DefaultAddr = "0.0.0.0:8000"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string // Empty allows every origin

	Face    Analyzer
	Voice   Analyzer
	Chat    Responder
	History *history.Log
	Library *library.Library
	Logger  *slog.Logger
}

// Server is the HTTP server for the music player API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	library  *library.Library
	logger   *slog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Face == nil || cfg.Voice == nil {
		return nil, errors.New("face and voice analyzers are required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat responder is required")
	}
	if cfg.Library == nil {
		return nil, errors.New("song library is required")
	}
	if cfg.History == nil {
		cfg.History = history.NewLog()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(cfg.Face, cfg.Voice, cfg.Chat, cfg.History, cfg.Library, cfg.Logger),
		library:  cfg.Library,
		logger:   cfg.Logger,
	}

	// Configure middleware
	s.setupMiddleware(cfg.CORSOrigins)

	// Configure routes
	s.setupRoutes()

	// Create HTTP server. Large base64 payloads need a longer read window.
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(corsOptions(origins)))
	s.router.Use(middleware.Compress(5))
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}
	// Credentials are only allowed for explicit origins.
	for _, o := range origins {
		if o == "*" {
			return opts
		}
	}
	opts.AllowCredentials = true
	return opts
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	// Songs
	s.router.Handle(library.MountPath+"/*", http.StripPrefix(library.MountPath+"/", songServer(s.library.Root())))

	// JSON API
	config := huma.DefaultConfig("AI Music Player", Version)
	config.Info.Description = "Mood detection, song selection and persona chat."
	// Keep response bodies free of the $schema link field.
	config.CreateHooks = nil
	s.handlers.Register(humachi.New(s.router, config))
}

// songServer serves audio files from root. Directory listings are not exposed.
func songServer(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(filepathFromURL(root, r.URL.Path))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("Shutting down server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}
