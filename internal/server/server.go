// Package server serves a rendered template over HTTP with live reload.
//
// The page at / is rendered on every request. When live reload is enabled a
// small script is injected before the closing body tag; it connects to /ws
// and reloads the page when the server broadcasts a reload message.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/twiglight/internal/config"
	"github.com/conneroisu/twiglight/internal/logging"
	"github.com/conneroisu/twiglight/internal/version"
)

const shutdownTimeout = 5 * time.Second

// RenderFunc produces the current page.
type RenderFunc func(ctx context.Context) (string, error)

// PreviewServer serves rendered output with live reload capability
type PreviewServer struct {
	config     config.ServerConfig
	render     RenderFunc
	logger     logging.Logger
	hub        *hub
	started    time.Time
	httpServer *http.Server
	serverMu   sync.Mutex
	shutdown   sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	ClientID  string    `json:"client_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message types.
const (
	MessageHello  = "hello"
	MessageReload = "reload"
)

// New creates a preview server.
func New(cfg config.ServerConfig, render RenderFunc, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("server")
	return &PreviewServer{
		config:  cfg,
		render:  render,
		logger:  logger,
		hub:     newHub(logger),
		started: time.Now(),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return s.logRequests(mux)
}

// Addr returns the configured listen address.
func (s *PreviewServer) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *PreviewServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *PreviewServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info(ctx, "Preview server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Reload tells every connected browser to reload.
func (s *PreviewServer) Reload(reason string) {
	s.hub.broadcast(UpdateMessage{
		Type:      MessageReload,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

// Clients returns the number of connected live reload clients.
func (s *PreviewServer) Clients() int {
	return s.hub.count()
}

// Shutdown closes all WebSocket connections and stops the HTTP server.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdown.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		s.hub.closeAll()

		s.serverMu.Lock()
		srv := s.httpServer
		s.serverMu.Unlock()
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.render(r.Context())
	if err != nil {
		s.logger.Warn(r.Context(), err, "Render failed")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		page = errorPage(err)
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}

	if s.config.LiveReload {
		page = InjectReloadScript(page)
	}
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Debug(r.Context(), "Writing response failed", "error", err)
	}
}

// handleHealth returns the server health status for health checks
func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"version":    version.GetShortVersion(),
		"clients":    s.hub.count(),
		"liveReload": s.config.LiveReload,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.config.LiveReload {
		http.NotFound(w, r)
		return
	}
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedHosts(r),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	c := s.hub.register(conn)
	defer s.hub.unregister(c)

	go c.writePump()
	c.readPump(r.Context())
}

func (s *PreviewServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
