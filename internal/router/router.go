// Package router provides an ordered route table with path parameter and
// query string extraction.
package router

import (
	"fmt"
	"net/http"
)

// HandlerFunc handles a routed request.
type HandlerFunc func(w http.ResponseWriter, r *Request)

// Route is one (method, pattern, handler) entry of the table.
type Route struct {
	Method  string
	Pattern *Pattern
	Handler HandlerFunc
}

var methods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Router holds the route table. Entries are scanned in registration order
// and the first one whose method and pattern both match wins.
type Router struct {
	routes []Route
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

// Handle appends a route. It panics if the method is not supported or the
// pattern does not compile.
func (r *Router) Handle(method, pattern string, handler HandlerFunc) {
	if !methods[method] {
		panic(fmt.Sprintf("router: unsupported method %q", method))
	}
	if handler == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}

	r.routes = append(r.routes, Route{
		Method:  method,
		Pattern: MustCompile(pattern),
		Handler: handler,
	})
}

// GET registers a handler for GET requests matching pattern.
func (r *Router) GET(pattern string, handler HandlerFunc) {
	r.Handle(http.MethodGet, pattern, handler)
}

// POST registers a handler for POST requests matching pattern.
func (r *Router) POST(pattern string, handler HandlerFunc) {
	r.Handle(http.MethodPost, pattern, handler)
}

// PUT registers a handler for PUT requests matching pattern.
func (r *Router) PUT(pattern string, handler HandlerFunc) {
	r.Handle(http.MethodPut, pattern, handler)
}

// PATCH registers a handler for PATCH requests matching pattern.
func (r *Router) PATCH(pattern string, handler HandlerFunc) {
	r.Handle(http.MethodPatch, pattern, handler)
}

// DELETE registers a handler for DELETE requests matching pattern.
func (r *Router) DELETE(pattern string, handler HandlerFunc) {
	r.Handle(http.MethodDelete, pattern, handler)
}

// Dispatch finds the first route matching method and target, where target
// is the escaped request path optionally followed by "?query".
func (r *Router) Dispatch(method, target string) (*Route, Match, bool) {
	for i := range r.routes {
		route := &r.routes[i]
		if route.Method != method {
			continue
		}
		if m, ok := route.Pattern.Match(target); ok {
			return route, m, true
		}
	}
	return nil, Match{}, false
}

// Routes returns a copy of the route table in registration order.
func (r *Router) Routes() []Route {
	routes := make([]Route, len(r.routes))
	copy(routes, r.routes)
	return routes
}
