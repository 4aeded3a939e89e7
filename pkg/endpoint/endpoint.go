// Package endpoint dispatches non-page routes to method handlers.
//
// An endpoint module is declared as a map from export name to handler:
//
//	endpoint.Module{
//	    "get": func(ctx *endpoint.Context) (any, error) {
//	        return result.Body{Body: "ok"}, nil
//	    },
//	    "del": remove,
//	}
//
// Export names are canonicalized once, when the module is registered, so
// a request never probes the module by name.
package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Canonical export names.
const (
	MethodGet     = "get"
	MethodPost    = "post"
	MethodPut     = "put"
	MethodPatch   = "patch"
	MethodDelete  = "delete"
	MethodHead    = "head"
	MethodOptions = "options"
	MethodAll     = "all"
)

// aliases maps alternative export names to canonical ones.
var aliases = map[string]string{
	"del": MethodDelete,
}

var known = map[string]bool{
	MethodGet:     true,
	MethodPost:    true,
	MethodPut:     true,
	MethodPatch:   true,
	MethodDelete:  true,
	MethodHead:    true,
	MethodOptions: true,
	MethodAll:     true,
}

var (
	// ErrHandlerNotFound is wrapped when no export serves the request method.
	ErrHandlerNotFound = errors.New("endpoint: handler not found")

	// ErrInvalidModule is returned for modules with unknown or
	// conflicting exports.
	ErrInvalidModule = errors.New("endpoint: invalid module")
)

// Handler serves one method. It returns a *result.Response, a
// result.Body, a string, a []byte, or any JSON-encodable value.
type Handler func(ctx *Context) (any, error)

// Module is the set of handlers an endpoint exports, by name.
type Module map[string]Handler

// Endpoint is a registered module with canonical export names.
type Endpoint struct {
	Name     string
	handlers map[string]Handler
}

// New canonicalizes m. Names are case-insensitive and "del" is accepted
// for "delete". Declaring both "del" and "delete" is an error, as is any
// name outside the method set.
func New(name string, m Module) (*Endpoint, error) {
	ep := &Endpoint{Name: name, handlers: make(map[string]Handler, len(m))}
	for export, h := range m {
		if h == nil {
			continue
		}
		key := strings.ToLower(export)
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		if !known[key] {
			return nil, fmt.Errorf("%w: %s exports unknown handler %q", ErrInvalidModule, name, export)
		}
		if _, dup := ep.handlers[key]; dup {
			return nil, fmt.Errorf("%w: %s exports %q more than once", ErrInvalidModule, name, key)
		}
		ep.handlers[key] = h
	}
	return ep, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, m Module) *Endpoint {
	ep, err := New(name, m)
	if err != nil {
		panic(err)
	}
	return ep
}

// Handler selects the handler for an HTTP method and reports the export
// it came from. HEAD falls back to "get" before "all"; every other method
// falls back to "all".
func (e *Endpoint) Handler(method string) (Handler, string, bool) {
	key := strings.ToLower(method)
	if h, ok := e.handlers[key]; ok {
		return h, key, true
	}
	if key == MethodHead {
		if h, ok := e.handlers[MethodGet]; ok {
			return h, MethodGet, true
		}
	}
	if h, ok := e.handlers[MethodAll]; ok {
		return h, MethodAll, true
	}
	return nil, "", false
}

// Methods returns the allowed HTTP methods, for an Allow header.
func (e *Endpoint) Methods() []string {
	if _, ok := e.handlers[MethodAll]; ok {
		return []string{"*"}
	}
	seen := make(map[string]bool)
	for key := range e.handlers {
		seen[strings.ToUpper(key)] = true
	}
	if seen[http.MethodGet] {
		seen[http.MethodHead] = true
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
