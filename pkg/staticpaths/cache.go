package staticpaths

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

// ErrStaticPathsRequired is wrapped when a dynamic route outside SSR mode
// has no Generator.
var ErrStaticPathsRequired = errors.New("staticpaths: generator required")

// Observer receives cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Lookup is called for every GetOrCompute with whether the entry
	// was already present.
	Lookup(component string, hit bool)
	// Computed is called once per generator run.
	Computed(component string, paths int, took time.Duration, err error)
	// Fallback is called when a params lookup needed the linear scan.
	Fallback(component string)
}

type nopObserver struct{}

func (nopObserver) Lookup(string, bool)                        {}
func (nopObserver) Computed(string, int, time.Duration, error) {}
func (nopObserver) Fallback(string)                            {}

// cached is what the cache stores per route: the entry or the error the
// generator failed with.
type cached struct {
	entry *RouteEntry
	err   error
}

// Cache memoizes static paths per route for the life of the process.
//
// Lookups of populated routes take no lock. The first computation for a
// route is shared by every concurrent caller through a singleflight group,
// so a generator runs at most once until ClearAll. Generator failures are
// memoized too, except context errors.
//
// The shared computation is detached from the cancellation of the caller
// that started it. Each caller stops waiting when its own context is done.
type Cache struct {
	entries sync.Map // component -> *cached
	group   singleflight.Group

	// generation is bumped by ClearAll. A computation started in an older
	// generation never stores its result.
	mu         sync.Mutex
	generation atomic.Uint64

	strict   bool
	logger   *slog.Logger
	observer Observer
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStrictParams controls whether a bad param type fails the route
// (true, the default) or only skips the offending path.
func WithStrictParams(strict bool) CacheOption {
	return func(c *Cache) {
		c.strict = strict
	}
}

// WithLogger sets the logger for validation diagnostics.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the cache observer.
func WithObserver(o Observer) CacheOption {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		strict:   true,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the cache's logger.
func (c *Cache) Logger() *slog.Logger {
	return c.logger
}

func cacheKey(route *router.Route) string {
	if route.Component != "" {
		return route.Component
	}
	return route.String()
}

// GetOrCompute returns the route's entry, running gen if this is the first
// request for the route. All concurrent first callers observe the same
// entry.
func (c *Cache) GetOrCompute(ctx context.Context, route *router.Route, gen Generator) (*RouteEntry, error) {
	key := cacheKey(route)
	if v, ok := c.entries.Load(key); ok {
		c.observer.Lookup(key, true)
		hit := v.(*cached)
		return hit.entry, hit.err
	}
	c.observer.Lookup(key, false)

	if gen == nil {
		return nil, merrors.New("M004").WithDetail(key).Wrap(ErrStaticPathsRequired)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gen0 := c.generation.Load()
	ch := c.group.DoChan(key+"#"+strconv.FormatUint(gen0, 10), func() (any, error) {
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}

		start := time.Now()
		entry, err := c.compute(context.WithoutCancel(ctx), key, route, gen)
		c.observer.Computed(key, entry.Len(), time.Since(start), err)

		res := &cached{entry: entry, err: err}
		if err == nil || !isContextErr(err) {
			c.mu.Lock()
			if c.generation.Load() == gen0 {
				c.entries.Store(key, res)
			}
			c.mu.Unlock()
		}
		return res, nil
	})

	select {
	case r := <-ch:
		res := r.Val.(*cached)
		return res.entry, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// compute runs gen outside any caller's goroutine, so a panic becomes the
// route's error instead of crashing the process.
func (c *Cache) compute(ctx context.Context, key string, route *router.Route, gen Generator) (_ *RouteEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("staticpaths: generator for %s panicked: %v", key, r)
		}
	}()

	paths, err := gen(ctx, Options{Route: route})
	if err != nil {
		return nil, err
	}
	entries, err := validate(key, paths, c.strict, c.logger)
	if err != nil {
		return nil, err
	}
	return NewRouteEntry(entries), nil
}

// Get returns the entry for route without computing it.
func (c *Cache) Get(route *router.Route) (*RouteEntry, bool) {
	v, ok := c.entries.Load(cacheKey(route))
	if !ok {
		return nil, false
	}
	hit := v.(*cached)
	return hit.entry, hit.err == nil
}

// Set stores entry for route, replacing any previous one with a warning.
func (c *Cache) Set(route *router.Route, entry *RouteEntry) {
	key := cacheKey(route)
	if _, loaded := c.entries.Swap(key, &cached{entry: entry}); loaded {
		c.logger.Warn("static paths already cached for route, overwriting", "component", key)
	}
}

// ClearAll drops every entry so generators run again on next use.
// Computations still running when ClearAll is called do not store their
// results.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation.Add(1)
	c.entries.Clear()
}

// Len returns the number of cached routes, failed ones included.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
