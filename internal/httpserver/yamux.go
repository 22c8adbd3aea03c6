package httpserver

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/yamux"

	"tasks-server/internal/logging"
	"tasks-server/internal/router"
	"tasks-server/internal/xorrw"
)

// handleTunnel upgrades the connection to a yamux session. Every stream the
// client opens is served as its own HTTP/1.1 connection by the same mux.
func (s *Server) handleTunnel(w http.ResponseWriter, r *router.Request) {
	logging.InfoWith("Received tunnel request", map[string]interface{}{"remote": r.RemoteAddr})

	conn, bufrw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		router.WriteError(w, http.StatusInternalServerError, "webserver doesn't support hijacking")
		return
	}

	// Deadlines set by the HTTP server would cut the session short
	conn.SetDeadline(time.Time{})

	bufrw.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	bufrw.WriteString("Upgrade: yamux\r\n")
	bufrw.WriteString("Connection: Upgrade\r\n")
	bufrw.WriteString("\r\n")
	if err := bufrw.Flush(); err != nil {
		logging.WarnWith("Failed to write upgrade response", map[string]interface{}{"error": err})
		conn.Close()
		return
	}

	var rwc io.ReadWriteCloser = &tunnelConn{Conn: conn, r: bufrw.Reader}
	if key := s.cfg.Tunnel.XorKey; key != "" {
		rwc = xorrw.NewXorReaderWriter(rwc, []byte(key))
	}

	session, err := yamux.Server(rwc, s.yamuxConfig())
	if err != nil {
		logging.ErrorWith("Failed creating yamux server", map[string]interface{}{"error": err})
		conn.Close()
		return
	}

	if !s.trackSession(session) {
		session.Close()
		return
	}
	go s.serveTunnel(session)
}

func (s *Server) yamuxConfig() *yamux.Config {
	conf := yamux.DefaultConfig()
	conf.EnableKeepAlive = true
	if d := s.cfg.Tunnel.KeepAliveDuration(); d > 0 {
		conf.KeepAliveInterval = d
	}
	if d := s.cfg.Tunnel.WriteTimeoutDuration(); d > 0 {
		conf.ConnectionWriteTimeout = d
	}
	conf.LogOutput = logging.WithComponent("tunnel")
	return conf
}

// serveTunnel serves HTTP on the session's streams until the session closes
func (s *Server) serveTunnel(session *yamux.Session) {
	defer s.untrackSession(session)
	defer session.Close()

	logging.Debug("Started tunnel session")

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeoutDuration(),
		IdleTimeout:       s.cfg.Server.IdleTimeoutDuration(),
	}
	if err := srv.Serve(session); err != nil && !session.IsClosed() {
		logging.WarnWith("Tunnel session ended", map[string]interface{}{"error": err})
	}

	logging.Debug("Tunnel session closed")
}

func (s *Server) trackSession(session *yamux.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[session] = struct{}{}
	return true
}

func (s *Server) untrackSession(session *yamux.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// tunnelConn reads through the buffered reader left by the hijack so no
// bytes the client sent early are lost.
type tunnelConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *tunnelConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
