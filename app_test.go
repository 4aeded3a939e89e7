package meridian

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/meridian/internal/dev"
	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/adapter"
	"github.com/vango-dev/meridian/pkg/endpoint"
	"github.com/vango-dev/meridian/pkg/export"
	"github.com/vango-dev/meridian/pkg/middleware"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func document(title any, body render.Fragment) render.Fragment {
	return render.List(
		render.HTML("<html><head><title>"), render.Value(title), render.HTML("</title>"), render.HeadSlot(),
		render.HTML("</head><body>"), body, render.HTML("</body></html>"),
	)
}

var (
	homePage = render.NewComponent("Home", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
		return document("Home", render.HTML("<h1>Home</h1>")), nil
	}).WithHead(render.Assets{Links: []render.Element{render.Stylesheet("/main.css")}})

	postPage = render.NewComponent("Post", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
		return document(props["title"], render.List(render.HTML("<h1>"), render.Text(ctx.Params["slug"]), render.HTML("</h1>"))), nil
	})

	accountPage = render.NewComponent("Account", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
		return nil, ctx.Redirect("/login", 0)
	})
)

type blogFixture struct {
	app   *App
	calls atomic.Int32
}

func (f *blogFixture) postPaths(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
	f.calls.Add(1)
	return []staticpaths.Path{
		{Params: map[string]any{"slug": "a"}, Props: staticpaths.Props{"title": "Post A"}},
		{Params: map[string]any{"slug": "b"}, Props: staticpaths.Props{"title": "Post B"}},
	}, nil
}

func newBlog(t *testing.T, cfg Config) *blogFixture {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	f := &blogFixture{app: New(cfg)}

	feed := endpoint.MustNew("feed.xml.go", endpoint.Module{
		"get": func(c *endpoint.Context) (any, error) {
			return "<rss/>", nil
		},
	})

	f.app.Page("index.templ", homePage, nil)
	f.app.Page("account.templ", accountPage, nil)
	f.app.Page("blog/[slug].templ", postPage, f.postPaths)
	f.app.Endpoint("feed.xml.go", feed, nil)
	f.app.SetRoutes(router.NewTable(
		router.MustCompile("/", router.KindPage, "index.templ"),
		router.MustCompile("/feed.xml", router.KindEndpoint, "feed.xml.go"),
		router.MustCompile("/account", router.KindPage, "account.templ"),
		router.MustCompile("/blog/[slug]", router.KindPage, "blog/[slug].templ"),
	))
	return f
}

func serve(app http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(method, "http://example.com"+target, nil))
	return rr
}

func TestServeHTTP_Blog(t *testing.T) {
	f := newBlog(t, Config{})

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"home", "/", http.StatusOK, "text/html; charset=utf-8", `<link href="/main.css" rel="stylesheet">`},
		{"post a", "/blog/a", http.StatusOK, "text/html; charset=utf-8", "<title>Post A</title></head><body><h1>a</h1>"},
		{"post b trailing slash", "/blog/b/", http.StatusOK, "text/html; charset=utf-8", "<h1>b</h1>"},
		{"feed", "/feed.xml", http.StatusOK, "xml; charset=utf-8", "<rss/>"},
		{"unmatched", "/nope", http.StatusNotFound, "text/plain; charset=utf-8", "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(f.app, http.MethodGet, tt.path)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d\n%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); !strings.Contains(got, tt.wantType) {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if !strings.Contains(rr.Body.String(), tt.wantContain) {
				t.Errorf("body = %q, want it to contain %q", rr.Body.String(), tt.wantContain)
			}
		})
	}

	if rr := serve(f.app, http.MethodGet, "/blog/a"); !strings.HasPrefix(rr.Body.String(), "<!DOCTYPE html>\n") {
		t.Errorf("page does not start with a doctype: %q", rr.Body.String())
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("generator calls = %d, want 1", n)
	}
}

func TestServeHTTP_NoMatchingStaticPath(t *testing.T) {
	var logs bytes.Buffer
	f := newBlog(t, Config{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	rr := serve(f.app, http.MethodGet, "/blog/zzz")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "M003") {
		t.Error("error details leaked outside dev mode")
	}
	if !strings.Contains(logs.String(), "code=M003") || !strings.Contains(logs.String(), "route=/blog/[slug]") {
		t.Errorf("log does not name the code and route:\n%s", logs.String())
	}

	_, err := f.app.Handle(context.Background(), httptest.NewRequest(http.MethodGet, "/blog/zzz", nil))
	if !errors.Is(err, staticpaths.ErrNoMatchingStaticPath) {
		t.Errorf("Handle error = %v, want ErrNoMatchingStaticPath", err)
	}
}

func TestServeHTTP_GeneratorRunsOnceUnderLoad(t *testing.T) {
	f := newBlog(t, Config{})

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 32; i++ {
		slug := "a"
		if i%2 == 1 {
			slug = "b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rr := serve(f.app, http.MethodGet, "/blog/"+slug); rr.Code != http.StatusOK {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := failures.Load(); n != 0 {
		t.Errorf("%d requests failed", n)
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("generator calls = %d, want 1", n)
	}
}

func TestServeHTTP_CanceledRequestDoesNotFailOthers(t *testing.T) {
	f := newBlog(t, Config{})

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	f.app.Page("blog/[slug].templ", postPage, func(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f.postPaths(ctx, opts)
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	gone := httptest.NewRecorder()
	goneDone := make(chan struct{})
	go func() {
		defer close(goneDone)
		req := httptest.NewRequest(http.MethodGet, "http://example.com/blog/a", nil).WithContext(reqCtx)
		f.app.ServeHTTP(gone, req)
	}()
	<-started

	live := make(chan *httptest.ResponseRecorder, 1)
	go func() { live <- serve(f.app, http.MethodGet, "/blog/b") }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	<-goneDone
	close(release)

	rr := <-live
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<h1>b</h1>") {
		t.Errorf("live request = %d %q", rr.Code, rr.Body.String())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("generator calls = %d, want 1", n)
	}
}

func TestServeHTTP_GeneratorCancelErrorIsServerError(t *testing.T) {
	f := newBlog(t, Config{})
	f.app.Page("blog/[slug].templ", postPage, func(context.Context, staticpaths.Options) ([]staticpaths.Path, error) {
		return nil, context.Canceled
	})

	rr := serve(f.app, http.MethodGet, "/blog/a")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for a live request", rr.Code)
	}
}

func TestServeHTTP_SSR(t *testing.T) {
	f := newBlog(t, Config{SSR: true})
	f.app.Page("blog/[slug].templ", postPage, nil)

	rr := serve(f.app, http.MethodGet, "/blog/anything")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<h1>anything</h1>") {
		t.Errorf("SSR page = %d %q", rr.Code, rr.Body.String())
	}

	rr = serve(f.app, http.MethodGet, "/account")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Errorf("redirect = %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestHandle_RedirectOutsideSSR(t *testing.T) {
	f := newBlog(t, Config{})

	_, err := f.app.Handle(context.Background(), httptest.NewRequest(http.MethodGet, "/account", nil))
	if !errors.Is(err, render.ErrRedirectUnavailable) || merrors.CodeOf(err) != "M005" {
		t.Errorf("error = %v, want M005", err)
	}
}

func TestHandle_Unregistered(t *testing.T) {
	f := newBlog(t, Config{})
	f.app.SetRoutes(router.NewTable(
		router.MustCompile("/", router.KindPage, "index.templ"),
		router.MustCompile("/about", router.KindPage, "about.templ"),
	))

	_, err := f.app.Handle(context.Background(), httptest.NewRequest(http.MethodGet, "/about", nil))
	if merrors.CodeOf(err) != "M007" {
		t.Errorf("Handle error = %v, want M007", err)
	}
	if err := f.app.Validate(); merrors.CodeOf(err) != "M007" || !strings.Contains(err.Error(), "about.templ") {
		t.Errorf("Validate() = %v", err)
	}

	f.app.SetRoutes(router.NewTable(router.MustCompile("/", router.KindEndpoint, "index.templ")))
	if err := f.app.Validate(); err == nil {
		t.Error("Validate() should reject a page registered as an endpoint route")
	}
}

func TestHandle_EndpointMethodNotExported(t *testing.T) {
	f := newBlog(t, Config{})

	_, err := f.app.Handle(context.Background(), httptest.NewRequest(http.MethodPost, "/feed.xml", nil))
	if !errors.Is(err, endpoint.ErrHandlerNotFound) {
		t.Errorf("error = %v, want ErrHandlerNotFound", err)
	}

	rr := serve(f.app, http.MethodHead, "/feed.xml")
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes", rr.Code, rr.Body.Len())
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "xml") {
		t.Errorf("HEAD Content-Type = %q", rr.Header().Get("Content-Type"))
	}
}

func TestHandle_DynamicEndpointProps(t *testing.T) {
	app := New(Config{Logger: quietLogger()})
	app.Endpoint("posts/[slug].json.go", endpoint.MustNew("posts/[slug].json.go", endpoint.Module{
		"get": func(c *endpoint.Context) (any, error) {
			return map[string]any{"slug": c.Params["slug"], "words": c.Props["words"]}, nil
		},
	}), func(context.Context, staticpaths.Options) ([]staticpaths.Path, error) {
		return []staticpaths.Path{{Params: map[string]any{"slug": "a"}, Props: staticpaths.Props{"words": 120}}}, nil
	})
	app.SetRoutes(router.NewTable(router.MustCompile("/posts/[slug].json", router.KindEndpoint, "posts/[slug].json.go")))

	rr := serve(app, http.MethodGet, "/posts/a.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != `{"slug":"a","words":120}` {
		t.Errorf("body = %q", got)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestServeHTTP_PathHandling(t *testing.T) {
	f := newBlog(t, Config{})

	tests := []struct {
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"/blog//a", http.StatusPermanentRedirect, "/blog/a"},
		{"/blog/./a", http.StatusPermanentRedirect, "/blog/a"},
		{"/x/../blog/a?ref=rss", http.StatusPermanentRedirect, "/blog/a?ref=rss"},
		{"/../secret", http.StatusBadRequest, ""},
		{"/blog/a%00", http.StatusBadRequest, ""},
		{"/blog/a", http.StatusOK, ""},
	}

	for _, tt := range tests {
		rr := serve(f.app, http.MethodGet, tt.path)
		if rr.Code != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, rr.Code, tt.wantStatus)
			continue
		}
		if got := rr.Header().Get("Location"); got != tt.wantLocation {
			t.Errorf("GET %s Location = %q, want %q", tt.path, got, tt.wantLocation)
		}
	}

	_, err := f.app.Handle(context.Background(), httptest.NewRequest(http.MethodGet, "/../secret", nil))
	if !errors.Is(err, ErrBadPath) {
		t.Errorf("Handle error = %v, want ErrBadPath", err)
	}
}

func TestServeHTTP_DecodesParams(t *testing.T) {
	app := New(Config{SSR: true, Logger: quietLogger()})
	app.Page("hello/[name].templ", render.NewComponent("Hello", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
		ctx.SetHeader("X-Param", ctx.Params["name"])
		return render.Text("hi " + ctx.Params["name"]), nil
	}), nil)
	app.SetRoutes(router.NewTable(router.MustCompile("/hello/[name]", router.KindPage, "hello/[name].templ")))

	rr := serve(app, http.MethodGet, "/hello/hello%20world")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("X-Param"); got != "hello world" {
		t.Errorf("X-Param = %q, want %q", got, "hello world")
	}
}

func TestReload(t *testing.T) {
	f := newBlog(t, Config{})

	serve(f.app, http.MethodGet, "/blog/a")
	serve(f.app, http.MethodGet, "/blog/b")
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("generator calls = %d, want 1", n)
	}

	f.app.Reload()
	serve(f.app, http.MethodGet, "/blog/a")
	if n := f.calls.Load(); n != 2 {
		t.Errorf("generator calls after Reload = %d, want 2", n)
	}
}

func TestStaticPaths(t *testing.T) {
	f := newBlog(t, Config{})
	routes := f.app.Routes()

	params, err := f.app.StaticPaths(context.Background(), routes[0])
	if err != nil || params != nil {
		t.Errorf("static route params = %v, %v", params, err)
	}

	params, err = f.app.StaticPaths(context.Background(), routes[3])
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 2 || params[0]["slug"] != "a" || params[1]["slug"] != "b" {
		t.Errorf("params = %v", params)
	}

	missing := router.MustCompile("/tags/[tag]", router.KindPage, "tags/[tag].templ")
	if _, err := f.app.StaticPaths(context.Background(), missing); !errors.Is(err, staticpaths.ErrStaticPathsRequired) {
		t.Errorf("missing generator error = %v", err)
	}

	ssr := newBlog(t, Config{SSR: true})
	if params, err := ssr.app.StaticPaths(context.Background(), missing); err != nil || params != nil {
		t.Errorf("SSR without generator = %v, %v", params, err)
	}
}

type memSink struct {
	mu    sync.Mutex
	files map[string]string
}

func (m *memSink) Write(_ context.Context, name string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string]string)
	}
	m.files[name] = string(body)
	return nil
}

func TestExport(t *testing.T) {
	f := newBlog(t, Config{})
	f.app.SetRoutes(router.NewTable(
		router.MustCompile("/", router.KindPage, "index.templ"),
		router.MustCompile("/feed.xml", router.KindEndpoint, "feed.xml.go"),
		router.MustCompile("/blog/[slug]", router.KindPage, "blog/[slug].templ"),
	))

	sink := &memSink{}
	report, err := (&export.Exporter{Source: f.app, Sink: sink, Logger: quietLogger()}).Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if report.Pages != 4 {
		t.Errorf("pages = %d, want 4", report.Pages)
	}
	for _, name := range []string{"index.html", "feed.xml", "blog/a/index.html", "blog/b/index.html"} {
		if _, ok := sink.files[name]; !ok {
			t.Errorf("missing %s in %v", name, sink.files)
		}
	}
	if !strings.Contains(sink.files["blog/b/index.html"], "<title>Post B</title>") {
		t.Errorf("blog/b = %q", sink.files["blog/b/index.html"])
	}
}

func TestDevMode(t *testing.T) {
	f := newBlog(t, Config{DevMode: true})

	rr := serve(f.app, http.MethodGet, "/")
	if !strings.Contains(rr.Body.String(), dev.ReloadPath) {
		t.Error("dev page is missing the reload client")
	}

	rr = serve(f.app, http.MethodGet, "/blog/zzz")
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "M003") {
		t.Errorf("dev error = %d %q", rr.Code, rr.Body.String())
	}

	// a plain GET is not a websocket handshake
	rr = serve(f.app, http.MethodGet, dev.ReloadPath)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("reload socket status = %d, want 400", rr.Code)
	}
	if f.app.ReloadServer() == nil {
		t.Error("ReloadServer() = nil in dev mode")
	}

	prod := newBlog(t, Config{})
	if strings.Contains(serve(prod.app, http.MethodGet, "/").Body.String(), dev.ReloadPath) {
		t.Error("reload client outside dev mode")
	}
	if serve(prod.app, http.MethodGet, dev.ReloadPath).Code != http.StatusNotFound {
		t.Error("reload socket served outside dev mode")
	}
}

func TestMetricsAndTracing(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
	f := newBlog(t, Config{Metrics: metrics, TracerProvider: noop.NewTracerProvider()})

	handler := metrics.Middleware(f.app)
	serve(handler, http.MethodGet, "/blog/a")
	serve(handler, http.MethodGet, "/blog/zzz")

	expected := `
# HELP meridian_errors_total Total number of pipeline errors by route and error code
# TYPE meridian_errors_total counter
meridian_errors_total{code="M003",route="/blog/[slug]"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "meridian_errors_total"); err != nil {
		t.Error(err)
	}

	n, err := testutil.GatherAndCount(reg, "meridian_static_paths_computed_total")
	if err != nil || n != 1 {
		t.Errorf("computed series = %d, %v", n, err)
	}
}

func TestFunctionHandler(t *testing.T) {
	f := newBlog(t, Config{BinaryMediaTypes: []string{"application/xml", "text/xml"}})

	resp, err := f.app.FunctionHandler().Handle(context.Background(), adapter.Event{
		HTTPMethod: http.MethodGet,
		RawURL:     "https://example.com/feed.xml",
		Headers:    map[string]string{"host": "example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Errorf("response = %+v", resp)
	}
}

func TestConfigDefaults(t *testing.T) {
	app := New(Config{})
	cfg := app.Config()
	if cfg.TrailingSlash != router.TrailingIgnore || cfg.TracerName != "meridian" || cfg.Static.Prefix != "/" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.strict() {
		t.Error("StrictParams should default to true")
	}
	if app.Logger() == nil || app.Table().Len() != 0 {
		t.Error("new app should have a logger and an empty table")
	}
	if got := app.String(); got != "meridian app (static, 0 routes)" {
		t.Errorf("String() = %q", got)
	}

	res, err := app.Handle(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || res.Kind != result.KindResponse || res.Response.Status != http.StatusNotFound {
		t.Errorf("empty app = %+v, %v", res, err)
	}
}
