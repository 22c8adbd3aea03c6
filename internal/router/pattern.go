package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidPattern = errors.New("invalid route pattern")
)

// token is one segment of a compiled pattern: either a literal or a named parameter.
type token struct {
	literal string
	param   string
}

func (t token) isParam() bool {
	return t.param != ""
}

// Pattern is a compiled path pattern such as /tasks/:id/complete.
type Pattern struct {
	raw    string
	tokens []token
}

// Match is the result of a successful Pattern.Match.
type Match struct {
	Params   map[string]string
	RawQuery string
}

// Compile turns a pattern into an ordered list of literal and parameter tokens.
// Segments prefixed with ':' are parameters; all others are matched literally.
func Compile(pattern string) (*Pattern, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPattern, pattern)
	}

	seen := make(map[string]bool)
	segments := strings.Split(pattern[1:], "/")
	tokens := make([]token, 0, len(segments))

	for _, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			tokens = append(tokens, token{literal: seg})
			continue
		}

		name := seg[1:]
		if name == "" {
			return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPattern, pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, pattern, name)
		}
		seen[name] = true
		tokens = append(tokens, token{param: name})
	}

	return &Pattern{raw: pattern, tokens: tokens}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as it was registered.
func (p *Pattern) String() string {
	return p.raw
}

// Params returns the parameter names in order of appearance.
func (p *Pattern) Params() []string {
	var names []string
	for _, t := range p.tokens {
		if t.isParam() {
			names = append(names, t.param)
		}
	}
	return names
}

// Match applies the pattern to a request target (escaped path plus optional
// "?query"). The whole path must match; the query is returned separately.
func (p *Pattern) Match(target string) (Match, bool) {
	path, rawQuery, _ := strings.Cut(target, "?")
	if !strings.HasPrefix(path, "/") {
		return Match{}, false
	}

	segments := strings.Split(path[1:], "/")
	if len(segments) != len(p.tokens) {
		return Match{}, false
	}

	params := make(map[string]string, len(p.tokens))
	for i, t := range p.tokens {
		seg := segments[i]
		if !t.isParam() {
			if seg != t.literal {
				return Match{}, false
			}
			continue
		}
		if seg == "" {
			return Match{}, false
		}
		params[t.param] = unescapePath(seg)
	}

	return Match{Params: params, RawQuery: rawQuery}, true
}

func unescapePath(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
