// Package staticpaths caches the static paths a dynamic route declares and
// resolves a request's params and props against them.
//
// A route's Generator runs at most once per process, even under concurrent
// first requests. Its output is validated, indexed by a canonical key of
// the params, and kept until ClearAll.
package staticpaths

import (
	"context"
	"encoding/json"
	"maps"

	"github.com/vango-dev/meridian/pkg/router"
)

// Props are the values handed to a page alongside its params.
type Props map[string]any

// Clone returns a shallow copy of p, never nil.
func (p Props) Clone() Props {
	if p == nil {
		return Props{}
	}
	return maps.Clone(p)
}

// Path is one static path as produced by user code. Params values may be
// strings, numbers, or nil for an absent rest param.
type Path struct {
	Params map[string]any
	Props  Props
}

// Entry is a validated static path.
type Entry struct {
	Params router.Params
	Props  Props
}

// Options is passed to a Generator.
type Options struct {
	// Route is the route being generated.
	Route *router.Route
}

// Paginate splits data into pages for Options.Route.
func (o Options) Paginate(data []any, opts PaginateOptions) ([]Path, error) {
	return Paginate(o.Route, data, opts)
}

// Generator produces the static paths of a route.
type Generator func(ctx context.Context, opts Options) ([]Path, error)

// RouteEntry holds a route's validated paths and their keyed index.
type RouteEntry struct {
	Paths []Entry
	index map[string]*Entry
}

// NewRouteEntry indexes paths by Key. Later duplicates win.
func NewRouteEntry(paths []Entry) *RouteEntry {
	e := &RouteEntry{
		Paths: paths,
		index: make(map[string]*Entry, len(paths)),
	}
	for i := range e.Paths {
		e.index[Key(e.Paths[i].Params)] = &e.Paths[i]
	}
	return e
}

// Lookup finds the entry whose params serialize to the same key.
func (e *RouteEntry) Lookup(params router.Params) (*Entry, bool) {
	entry, ok := e.index[Key(params)]
	return entry, ok
}

// Len returns the number of paths.
func (e *RouteEntry) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Paths)
}

// Key returns the canonical serialization of params: a JSON object with
// sorted keys. Absent params do not appear.
func Key(params router.Params) string {
	if len(params) == 0 {
		return "{}"
	}
	// encoding/json sorts map keys
	b, _ := json.Marshal(map[string]string(params))
	return string(b)
}
