package meridian

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/meridian/internal/dev"
	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/adapter"
	"github.com/vango-dev/meridian/pkg/endpoint"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

// =============================================================================
// App Type
// =============================================================================

// App is the main Meridian application entry point. It matches requests
// against a route table, resolves params and props, renders pages or
// invokes endpoints, and writes the result. App is an http.Handler.
//
// Create an App with meridian.New():
//
//	app := meridian.New(meridian.Config{
//	    Site:    site,
//	    SSR:     true,
//	    DevMode: os.Getenv("ENV") != "production",
//	})
//
//	app.Page("blog/[slug].templ", postPage, postPaths)
//	app.Endpoint("feed.xml.go", feed, nil)
//	if err := app.LoadManifest("routes.json"); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":4321", app)
type App struct {
	config Config
	logger *slog.Logger

	table atomic.Pointer[router.Table]

	mu        sync.RWMutex
	pages     map[string]pageModule
	endpoints map[string]endpointModule

	cache    *staticpaths.Cache
	resolver *staticpaths.Resolver
	proto    *render.Prototype
	invoker  *endpoint.Invoker
	tracer   trace.Tracer

	reload   *dev.ReloadServer
	staticFS http.FileSystem
}

type pageModule struct {
	component *render.Component
	paths     staticpaths.Generator
}

type endpointModule struct {
	endpoint *endpoint.Endpoint
	paths    staticpaths.Generator
}

// New creates a new Meridian application with the given configuration.
func New(cfg Config) *App {
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = "/"
	}
	if cfg.TrailingSlash == "" {
		cfg.TrailingSlash = router.TrailingIgnore
	}
	if cfg.TracerName == "" {
		cfg.TracerName = "meridian"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observer := cfg.Observer
	if observer == nil && cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	cache := staticpaths.NewCache(
		staticpaths.WithStrictParams(cfg.strict()),
		staticpaths.WithLogger(logger),
		staticpaths.WithObserver(observer),
	)

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	a := &App{
		config:    cfg,
		logger:    logger,
		pages:     make(map[string]pageModule),
		endpoints: make(map[string]endpointModule),
		cache:     cache,
		resolver:  staticpaths.NewResolver(cache, cfg.SSR),
		invoker:   &endpoint.Invoker{Site: cfg.Site, Logger: logger},
		tracer:    tp.Tracer(cfg.TracerName),
		proto: &render.Prototype{
			Site:    cfg.Site,
			SSR:     cfg.SSR,
			Resolve: cfg.Resolve,
			Head:    cfg.Head,
			Logger:  logger,
		},
	}
	a.table.Store(router.NewTable())

	if cfg.DevMode {
		a.reload = dev.NewReloadServer(logger)
		a.proto.Head.Scripts = append(append([]render.Element(nil), cfg.Head.Scripts...),
			render.Element{Children: dev.ClientScript})
	}

	if cfg.Static.Dir != "" {
		a.staticFS = http.Dir(cfg.Static.Dir)
	}

	return a
}

// =============================================================================
// Registration
// =============================================================================

// Page registers the component rendered for routes whose Component is
// component. paths declares the static paths of a dynamic route; it may
// be nil for static routes and, in SSR mode, for dynamic ones.
func (a *App) Page(component string, c *render.Component, paths staticpaths.Generator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.pages[component]; ok {
		a.logger.Warn("page registered twice, overwriting", "component", component)
	}
	a.pages[component] = pageModule{component: c, paths: paths}
}

// Endpoint registers the endpoint invoked for routes whose Component is
// component. paths follows the same rules as for Page.
func (a *App) Endpoint(component string, ep *endpoint.Endpoint, paths staticpaths.Generator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.endpoints[component]; ok {
		a.logger.Warn("endpoint registered twice, overwriting", "component", component)
	}
	a.endpoints[component] = endpointModule{endpoint: ep, paths: paths}
}

func (a *App) page(component string) (pageModule, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.pages[component]
	return p, ok
}

func (a *App) endpoint(component string) (endpointModule, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.endpoints[component]
	return e, ok
}

// generator returns the static paths generator registered for route.
func (a *App) generator(route *router.Route) staticpaths.Generator {
	if route.Kind == router.KindEndpoint {
		e, _ := a.endpoint(route.Component)
		return e.paths
	}
	p, _ := a.page(route.Component)
	return p.paths
}

// =============================================================================
// Route Table
// =============================================================================

// SetRoutes replaces the route table. Requests already matched keep the
// table they matched against.
func (a *App) SetRoutes(t *router.Table) {
	if t == nil {
		t = router.NewTable()
	}
	a.table.Store(t)
}

// LoadManifest replaces the route table with a manifest file, JSON or
// msgpack by extension.
func (a *App) LoadManifest(path string) error {
	t, err := router.LoadManifest(path)
	if err != nil {
		return merrors.New("M010").WithDetail(path).Wrap(err)
	}
	a.SetRoutes(t)
	a.logger.Debug("route manifest loaded", "path", path, "routes", t.Len())
	return nil
}

// ScanPages replaces the route table with the routes found under root in
// fsys.
func (a *App) ScanPages(fsys fs.FS, root string) error {
	t, err := router.NewScanner(fsys, root,
		router.WithScanTrailingSlash(a.config.TrailingSlash),
		router.WithScanLogger(a.logger),
	).Scan()
	if err != nil {
		return merrors.New("M008").WithDetail(root).Wrap(err)
	}
	a.SetRoutes(t)
	return nil
}

// Table returns the current route table.
func (a *App) Table() *router.Table {
	return a.table.Load()
}

// Routes returns the current routes in match order.
func (a *App) Routes() []*router.Route {
	return a.Table().Routes()
}

// Validate checks that every route has a registered module of its kind.
func (a *App) Validate() error {
	for _, r := range a.Routes() {
		var ok bool
		if r.Kind == router.KindEndpoint {
			_, ok = a.endpoint(r.Component)
		} else {
			_, ok = a.page(r.Component)
		}
		if !ok {
			return merrors.New("M007").WithDetailf("%s %s (%s)", r.Kind, r.Component, r)
		}
	}
	return nil
}

// =============================================================================
// Static Paths
// =============================================================================

// StaticPaths returns the declared params of route, computing them on
// first use. Static routes and, in SSR mode, dynamic routes without a
// generator have none.
func (a *App) StaticPaths(ctx context.Context, route *router.Route) ([]router.Params, error) {
	if !route.IsDynamic() {
		return nil, nil
	}
	gen := a.generator(route)
	if gen == nil && a.config.SSR {
		return nil, nil
	}
	entry, err := a.cache.GetOrCompute(ctx, route, gen)
	if err != nil {
		return nil, err
	}
	out := make([]router.Params, 0, entry.Len())
	for _, e := range entry.Paths {
		out = append(out, e.Params.Clone())
	}
	return out, nil
}

// Reload clears the static path cache so generators run again, and tells
// connected browsers to reload in dev mode.
func (a *App) Reload() {
	a.cache.ClearAll()
	a.logger.Info("static path cache cleared")
	if a.reload != nil {
		a.reload.NotifyReload("static paths cleared")
	}
}

// ReloadServer returns the live reload server, or nil outside dev mode.
func (a *App) ReloadServer() *dev.ReloadServer {
	return a.reload
}

// =============================================================================
// Accessors
// =============================================================================

// Config returns the application configuration.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// FunctionHandler wraps the app for function hosts.
func (a *App) FunctionHandler() *adapter.FunctionHandler {
	return &adapter.FunctionHandler{
		Handler:          a,
		BinaryMediaTypes: a.config.BinaryMediaTypes,
	}
}

// String describes the app for logs.
func (a *App) String() string {
	mode := "static"
	if a.config.SSR {
		mode = "server"
	}
	return fmt.Sprintf("meridian app (%s, %d routes)", mode, a.Table().Len())
}
