package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"tasks-server/internal/jsonbody"
	"tasks-server/internal/logging"
	"tasks-server/internal/router"
)

// Mux drains the request body, routes it through the route table and
// invokes the matched handler. Handlers run one at a time.
type Mux struct {
	router      *router.Router
	bodyTimeout time.Duration
	maxBody     int64

	mu       sync.Mutex
	requests atomic.Int64
}

// NewMux creates a new Mux dispatching to rt. A zero bodyTimeout or maxBody
// disables that limit.
func NewMux(rt *router.Router, bodyTimeout time.Duration, maxBody int64) *Mux {
	return &Mux{
		router:      rt,
		bodyTimeout: bodyTimeout,
		maxBody:     maxBody,
	}
}

// Requests returns how many requests the mux has received.
func (m *Mux) Requests() int64 {
	return m.requests.Load()
}

// ServeHTTP implements the http.Handler interface
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	m.requests.Add(1)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		logRequest(r, sw.status, time.Since(start))
	}()

	// The connection's own read deadline bounds the drain; the context only
	// covers writers that cannot set one.
	rc := http.NewResponseController(w)
	ctx := r.Context()
	var deadline time.Time
	if m.bodyTimeout > 0 {
		deadline = start.Add(m.bodyTimeout)
		rc.SetReadDeadline(deadline)

		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	// The whole body is read before routing, even for routes that ignore it
	raw, err := jsonbody.Read(ctx, r.Body, m.maxBody)
	timedOut := err != nil && !deadline.IsZero() && !time.Now().Before(deadline)
	switch {
	case err == nil:
		if !deadline.IsZero() {
			rc.SetReadDeadline(time.Time{})
		}
	case errors.Is(err, jsonbody.ErrTooLarge):
		abortBody(sw, rc)
		router.WriteError(sw, http.StatusRequestEntityTooLarge, "request body too large")
		return
	case timedOut, errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		abortBody(sw, rc)
		router.WriteError(sw, http.StatusRequestTimeout, "request body timeout")
		return
	case errors.Is(err, context.Canceled):
		// client went away; nothing to answer
		sw.status = 499
		return
	default:
		abortBody(sw, rc)
		router.WriteError(sw, http.StatusBadRequest, "failed to read request body")
		return
	}

	route, match, ok := m.router.Dispatch(r.Method, r.URL.RequestURI())
	if !ok {
		sw.WriteHeader(http.StatusNotFound)
		return
	}

	var body json.RawMessage
	if expectsBody(r.Method) {
		body, err = jsonbody.Decode(raw)
		if err != nil {
			router.WriteError(sw, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	m.invoke(sw, route, router.NewRequest(r, match, body))
}

// invoke runs the handler under the dispatch lock and turns a panic into a 500.
func (m *Mux) invoke(sw *statusWriter, route *router.Route, req *router.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			logging.ErrorWith("Handler panic", map[string]interface{}{
				"method": req.Method,
				"path":   req.Path,
				"panic":  p,
			})
			if !sw.wroteHeader {
				router.WriteError(sw, http.StatusInternalServerError, "internal server error")
			} else {
				sw.status = http.StatusInternalServerError
			}
		}
	}()

	route.Handler(sw, req)
}

// abortBody gives up on the rest of the request body. The connection is
// closed after the reply and any read still parked on it returns at once,
// so net/http does not wait on the client to discard the remainder.
func abortBody(w http.ResponseWriter, rc *http.ResponseController) {
	w.Header().Set("Connection", "close")
	rc.SetReadDeadline(time.Now())
}

func expectsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func logRequest(r *http.Request, status int, elapsed time.Duration) {
	log := logging.WithComponent("http")
	event := log.Info()
	switch {
	case status >= http.StatusInternalServerError:
		event = log.Error()
	case status == http.StatusNotFound:
		event = log.Debug()
	}
	event.
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Int("status", status).
		Dur("duration", elapsed).
		Msg("request")
}

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// Hijack hands the connection to the handler, as the tunnel endpoint needs.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, bufrw, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err == nil {
		w.status = http.StatusSwitchingProtocols
		w.wroteHeader = true
	}
	return conn, bufrw, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
