// Package api serves the daemon's HTTP control surface: access-point
// state, station management, the audit trail and the event stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/espwifi/wifid/internal/audit"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/wifi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Commander is the slice of the command client the handlers need.
type Commander interface {
	Addrs(out *wifi.APAddrs) error
	SetAddrs(ip wifi.IPv4, gw, nm *wifi.IPv4) error
	MAC(out *wifi.MAC) error
	SetMAC(mac wifi.MAC) error
	Configure(cfg wifi.APConfig) error
	Stations(out []wifi.Station, found *int) error
	Disconnect(mac wifi.MAC) error
}

// QueueProber reports how many commands wait in the dispatch FIFO.
type QueueProber interface {
	Depth() int
}

// Auditor serves recent command history.
type Auditor interface {
	Recent(ctx context.Context, n int) ([]audit.Entry, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey is the bearer token protecting everything except /healthz.
	APIKey string
}

// Server is the HTTP API server.
type Server struct {
	config    Config
	commander Commander
	prober    QueueProber
	auditor   Auditor
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates an API server. auditor and hub may be nil; the matching
// endpoints then answer 404.
func New(config Config, commander Commander, prober QueueProber, auditor Auditor, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		commander: commander,
		prober:    prober,
		auditor:   auditor,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/ap/addresses", s.handleGetAddrs)
		r.Put("/ap/addresses", s.handleSetAddrs)
		r.Get("/ap/mac", s.handleGetMAC)
		r.Put("/ap/mac", s.handleSetMAC)
		r.Put("/ap/config", s.handleConfigure)
		r.Get("/stations", s.handleListStations)
		r.Delete("/stations/{mac}", s.handleDisconnect)
		r.Get("/audit/commands", s.handleAuditCommands)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
