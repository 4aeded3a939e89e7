package router

import (
	"errors"
	"regexp"
	"strings"
)

// Kind distinguishes pages from endpoints.
type Kind string

const (
	KindPage     Kind = "page"
	KindEndpoint Kind = "endpoint"
)

// Valid reports whether k is a known route kind.
func (k Kind) Valid() bool {
	return k == KindPage || k == KindEndpoint
}

// TrailingSlash controls how compiled patterns treat a trailing "/".
type TrailingSlash string

const (
	// TrailingIgnore accepts paths with or without a trailing slash.
	TrailingIgnore TrailingSlash = "ignore"
	// TrailingAlways requires a trailing slash.
	TrailingAlways TrailingSlash = "always"
	// TrailingNever rejects a trailing slash.
	TrailingNever TrailingSlash = "never"
)

// RestPrefix marks a parameter name that consumes the rest of the path.
const RestPrefix = "..."

// ErrInvalidRoute is wrapped by every route definition error.
var ErrInvalidRoute = errors.New("router: invalid route")

// Params maps parameter names to decoded values. A missing key means the
// parameter was not captured at all, which only happens for rest params.
type Params map[string]string

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Route is a compiled route definition. Routes are immutable once built
// and safe for concurrent use.
type Route struct {
	// Pattern is the compiled matcher for decoded pathnames.
	Pattern *regexp.Regexp

	// ParamNames lists captured names in the order their groups appear.
	// Rest params keep the RestPrefix.
	ParamNames []string

	// Component identifies the page or endpoint module for this route.
	Component string

	// Kind is page or endpoint.
	Kind Kind

	// Pathname is set when the route has no dynamic segments.
	Pathname string

	// Template is the source template, e.g. /blog/[slug]. Routes loaded
	// from a manifest without a template cannot Generate.
	Template string

	// TrailingSlash is the mode the pattern was compiled with.
	TrailingSlash TrailingSlash

	segments [][]part
}

// IsStatic reports whether the route has a fixed pathname.
func (r *Route) IsStatic() bool {
	return r.Pathname != ""
}

// IsDynamic reports whether the route captures any parameters.
func (r *Route) IsDynamic() bool {
	return len(r.ParamNames) > 0
}

// HasParam reports whether the route declares name, ignoring any rest prefix.
func (r *Route) HasParam(name string) bool {
	for _, n := range r.ParamNames {
		if strings.TrimPrefix(n, RestPrefix) == name {
			return true
		}
	}
	return false
}

// String returns the template when known and the pattern source otherwise.
func (r *Route) String() string {
	if r.Template != "" {
		return r.Template
	}
	if r.Pattern != nil {
		return r.Pattern.String()
	}
	return "<nil>"
}

// part is one piece of a path segment: static text or a parameter.
type part struct {
	content string
	dynamic bool
	spread  bool
}
