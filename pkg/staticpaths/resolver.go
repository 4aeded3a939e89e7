package staticpaths

import (
	"context"
	"errors"
	"maps"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

// ErrNoMatchingStaticPath is returned outside SSR mode when the request's
// params are not among the route's declared static paths.
var ErrNoMatchingStaticPath = errors.New("staticpaths: route pattern matched, but no matching static path found")

// Resolved is the params and props for one request.
type Resolved struct {
	Params router.Params
	Props  Props
}

// Resolver combines route params with the cached static paths.
type Resolver struct {
	Cache *Cache
	// SSR allows dynamic routes to render params that were never
	// declared, with empty props.
	SSR bool
}

// NewResolver creates a resolver over cache.
func NewResolver(cache *Cache, ssr bool) *Resolver {
	return &Resolver{Cache: cache, SSR: ssr}
}

// Resolve computes the params and props for pathname on route.
//
// Routes with a fixed pathname get empty params and props. Dynamic routes
// consult the cache, computing gen on first use. The returned props are a
// copy the caller may modify.
func (r *Resolver) Resolve(ctx context.Context, route *router.Route, pathname string, gen Generator) (Resolved, error) {
	if route.IsStatic() && !route.IsDynamic() {
		return Resolved{Params: router.Params{}, Props: Props{}}, nil
	}

	params, err := route.ExtractParams(pathname)
	if err != nil {
		return Resolved{}, err
	}

	if gen == nil && r.SSR {
		return Resolved{Params: params, Props: Props{}}, nil
	}

	entry, err := r.Cache.GetOrCompute(ctx, route, gen)
	if err != nil {
		return Resolved{}, err
	}

	match, ok := entry.Lookup(params)
	if !ok {
		match, ok = r.scan(route, entry, params)
	}
	if !ok {
		if !r.SSR {
			return Resolved{}, merrors.New("M003").
				WithDetail(pathname).
				Wrap(ErrNoMatchingStaticPath)
		}
		return Resolved{Params: params, Props: Props{}}, nil
	}

	return Resolved{Params: params, Props: match.Props.Clone()}, nil
}

// scan walks every path when the keyed index misses. A hit here means the
// index no longer reflects the paths, so it is logged.
func (r *Resolver) scan(route *router.Route, entry *RouteEntry, params router.Params) (*Entry, bool) {
	for i := range entry.Paths {
		if maps.Equal(entry.Paths[i].Params, params) {
			key := cacheKey(route)
			r.Cache.logger.Warn("static path found by linear scan; keyed index is stale",
				"component", key, "key", Key(params))
			r.Cache.observer.Fallback(key)
			return &entry.Paths[i], true
		}
	}
	return nil, false
}
