package meridian

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/vango-dev/meridian/pkg/assets"
)

// =============================================================================
// Static File Serving
// =============================================================================

// staticRelPath maps a request path under Static.Prefix to a slash
// separated path inside the static directory. Dot segments, empty
// segments, backslashes and NUL bytes are refused: the decoded URL path can
// still carry them after %2e or %5c escapes.
func (a *App) staticRelPath(urlPath string) (string, bool) {
	if a.staticFS == nil {
		return "", false
	}

	prefix := a.config.Static.Prefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	rel, ok := strings.CutPrefix(urlPath, prefix)
	if !ok || rel == "." || !fs.ValidPath(rel) {
		return "", false
	}
	if strings.ContainsAny(rel, "\\\x00") {
		return "", false
	}
	return rel, true
}

// serveStatic serves urlPath from the static directory. It reports false
// when there is no such file, leaving the request to the router.
func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	rel, ok := a.staticRelPath(r.URL.Path)
	if !ok {
		return false
	}

	f, err := a.staticFS.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	a.applyCacheHeaders(w, rel)
	for key, value := range a.config.Static.Headers {
		w.Header().Set(key, value)
	}

	http.ServeContent(w, r, rel, info.ModTime(), f)
	return true
}

// applyCacheHeaders applies cache control headers based on the configuration.
func (a *App) applyCacheHeaders(w http.ResponseWriter, filePath string) {
	switch a.config.Static.CacheControl {
	case CacheControlNone:
		if a.config.DevMode {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		}

	case CacheControlProduction:
		if assets.Fingerprinted(filePath) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}
