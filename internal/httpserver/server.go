// Package httpserver provides HTTP server functionality
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/yamux"

	"tasks-server/internal/common"
	"tasks-server/internal/config"
	"tasks-server/internal/logging"
	"tasks-server/internal/router"
	"tasks-server/internal/store"
	"tasks-server/internal/tasks"
)

// Server represents the HTTP server
type Server struct {
	cfg     *config.Config
	store   *store.Store
	router  *router.Router
	mux     *Mux
	http    *http.Server
	started time.Time

	mu       sync.Mutex
	sessions map[*yamux.Session]struct{}
	closing  bool
}

// NewServer creates a new HTTP server serving the task API from s
func NewServer(cfg *config.Config, s *store.Store) *Server {
	if cfg == nil {
		cfg = config.LoadDefault()
	}

	server := &Server{
		cfg:      cfg,
		store:    s,
		router:   router.New(),
		started:  time.Now(),
		sessions: make(map[*yamux.Session]struct{}),
	}
	server.mux = NewMux(server.router, cfg.Server.BodyTimeoutDuration(), cfg.Server.MaxBodyBytes)
	server.http = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeoutDuration(),
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:       cfg.Server.IdleTimeoutDuration(),
	}

	// Set up HTTP routes
	server.setupRoutes()

	return server
}

// setupRoutes configures the HTTP routes. Order matters: the first match wins.
func (s *Server) setupRoutes() {
	tasks.NewHandler(s.store).Register(s.router)

	// Simple status endpoint
	s.router.GET("/status", s.handleStatus)

	if s.cfg.Tunnel.Enabled {
		s.router.GET("/tunnel", s.handleTunnel)
	}
}

// Handler returns the request pipeline, for embedding in other servers and tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Routes returns the registered route table
func (s *Server) Routes() []router.Route {
	return s.router.Routes()
}

// ListenAndServe starts the HTTP server on the configured address
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	logging.InfoWith("Starting HTTP server", map[string]interface{}{
		"addr":   ln.Addr().String(),
		"tunnel": s.cfg.Tunnel.Enabled,
	})

	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, closes open tunnel sessions and
// waits for in-flight requests until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for session := range s.sessions {
		session.Close()
	}
	s.mu.Unlock()

	return s.http.Shutdown(ctx)
}

// handleStatus returns system information
func (s *Server) handleStatus(w http.ResponseWriter, r *router.Request) {
	info := common.GetInfo(s.started)
	info.Requests = s.mux.Requests()
	for _, name := range s.store.Tables() {
		info.Tables[name] = s.store.Count(name)
	}

	if r.Query["format"] == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(info.String()))
		return
	}
	router.WriteJSON(w, http.StatusOK, info)
}
