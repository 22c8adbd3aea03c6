package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tasks-server/internal/jsonbody"
)

// Request is the parsed form of an incoming request handed to a HandlerFunc.
// Handlers must treat it as read-only.
type Request struct {
	Method     string
	Path       string
	RawQuery   string
	Params     map[string]string
	Query      map[string]string
	Header     http.Header
	RemoteAddr string

	// Body holds the validated JSON body, or {} when none was sent.
	// It is nil for methods that do not carry a body.
	Body json.RawMessage

	ctx context.Context
}

// NewRequest materializes path parameters and the decoded query for a matched route.
func NewRequest(r *http.Request, m Match, body json.RawMessage) *Request {
	path, _, _ := strings.Cut(r.URL.RequestURI(), "?")
	return &Request{
		Method:     r.Method,
		Path:       path,
		RawQuery:   m.RawQuery,
		Params:     m.Params,
		Query:      ParseQuery(m.RawQuery),
		Header:     r.Header,
		RemoteAddr: r.RemoteAddr,
		Body:       body,
		ctx:        r.Context(),
	}
}

// Context returns the request context; it is never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Param returns a named path parameter, or "" if absent.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// Decode unmarshals the JSON body into dst.
func (r *Request) Decode(dst any) error {
	return jsonbody.Unmarshal(r.Body, dst)
}
