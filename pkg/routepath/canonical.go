package routepath

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	indexHTML     = regexp.MustCompile(`/index\.html$`)
	firstPage     = regexp.MustCompile(`/1/?$`)
	repeatedSlash = regexp.MustCompile(`/+`)
)

// CanonicalURL derives the canonical URL of a rendered page.
//
// A trailing /index.html and a trailing /1 (the first page of a paginated
// route) are dropped, a trailing slash is added unless the last segment
// has a file extension, and repeated slashes collapse. The result is
// resolved against site; a nil site yields a path-only URL.
func CanonicalURL(pathname string, site *url.URL) *url.URL {
	p := indexHTML.ReplaceAllString(pathname, "")
	p = firstPage.ReplaceAllString(p, "")
	if path.Ext(p) == "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	p = repeatedSlash.ReplaceAllString(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	ref := &url.URL{Path: p}
	if site == nil {
		return ref
	}
	base := *site
	if base.Path != "" && base.Path != "/" {
		ref.Path = strings.TrimSuffix(base.Path, "/") + p
	}
	return base.ResolveReference(ref)
}

// WithBase prefixes root-relative refs with base. Absolute URLs,
// protocol-relative refs and relative refs pass through unchanged.
func WithBase(base, ref string) string {
	if base == "" || base == "/" || !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return ref
	}
	base = "/" + strings.Trim(base, "/")
	if ref == base || strings.HasPrefix(ref, base+"/") {
		return ref
	}
	return base + ref
}
