package meridian

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/router"
)

func newStaticApp(t *testing.T, static StaticConfig, devMode bool) *App {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"robots.txt":           "User-agent: *",
		"css/app.a1b2c3d4.css": "body{}",
		"css/site.css":         "main{}",
	}
	for name, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	static.Dir = dir

	app := New(Config{Static: static, DevMode: devMode, Logger: quietLogger()})
	app.Page("index.templ", render.NewComponent("Home", func(*render.Context, render.Props, *render.Slots) (render.Fragment, error) {
		return render.HTML("<p>home</p>"), nil
	}), nil)
	app.SetRoutes(router.NewTable(
		router.MustCompile("/", router.KindPage, "index.templ"),
		router.MustCompile("/robots.txt", router.KindPage, "index.templ"),
	))
	return app
}

func TestServeStatic(t *testing.T) {
	app := newStaticApp(t, StaticConfig{}, false)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"file", http.MethodGet, "/robots.txt", http.StatusOK, "User-agent: *"},
		{"nested", http.MethodGet, "/css/site.css", http.StatusOK, "main{}"},
		{"head", http.MethodHead, "/css/site.css", http.StatusOK, ""},
		{"post falls through", http.MethodPost, "/robots.txt", http.StatusOK, "<p>home</p>"},
		{"directory falls through", http.MethodGet, "/css", http.StatusNotFound, "Not found"},
		{"missing", http.MethodGet, "/missing.txt", http.StatusNotFound, "Not found"},
		{"root renders page", http.MethodGet, "/", http.StatusOK, "<p>home</p>"},
		{"encoded traversal", http.MethodGet, "/%2e%2e/etc/passwd", http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(app, tt.method, tt.path)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Body.String(); !strings.HasSuffix(got, tt.wantBody) || (tt.wantBody == "" && got != "") {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestServeStaticPrefix(t *testing.T) {
	app := newStaticApp(t, StaticConfig{Prefix: "/assets"}, false)

	if rr := serve(app, http.MethodGet, "/assets/css/site.css"); rr.Code != http.StatusOK || rr.Body.String() != "main{}" {
		t.Errorf("prefixed file = %d %q", rr.Code, rr.Body.String())
	}
	if rr := serve(app, http.MethodGet, "/css/site.css"); rr.Code != http.StatusNotFound {
		t.Errorf("unprefixed file status = %d, want 404", rr.Code)
	}
}

func TestStaticRelPath(t *testing.T) {
	app := newStaticApp(t, StaticConfig{Prefix: "/static"}, false)

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/static/app.css", "app.css", true},
		{"/static/css/app.css", "css/app.css", true},
		{"/static/", "", false},
		{"/static//etc/passwd", "", false},
		{"/static/../secret", "", false},
		{"/static/./app.css", "", false},
		{"/static/a\\b", "", false},
		{"/static/a\x00b", "", false},
		{"/other/app.css", "", false},
	}

	for _, tt := range tests {
		got, ok := app.staticRelPath(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("staticRelPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStaticCacheHeaders(t *testing.T) {
	tests := []struct {
		name    string
		cache   CacheControlStrategy
		devMode bool
		path    string
		want    string
	}{
		{"none", CacheControlNone, false, "/css/site.css", ""},
		{"none in dev", CacheControlNone, true, "/css/site.css", "no-store, no-cache, must-revalidate"},
		{"production fingerprinted", CacheControlProduction, false, "/css/app.a1b2c3d4.css", "public, max-age=31536000, immutable"},
		{"production plain", CacheControlProduction, false, "/css/site.css", "public, max-age=3600, must-revalidate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newStaticApp(t, StaticConfig{CacheControl: tt.cache}, tt.devMode)
			rr := serve(app, http.MethodGet, tt.path)
			if got := rr.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Cache-Control = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticCustomHeaders(t *testing.T) {
	app := newStaticApp(t, StaticConfig{Headers: map[string]string{"X-Content-Type-Options": "nosniff"}}, false)

	rr := serve(app, http.MethodGet, "/robots.txt")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}
