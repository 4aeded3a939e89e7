package assets

import "strings"

// Resolver turns an asset specifier into the URL path a page links to.
type Resolver interface {
	// Asset resolves a specifier such as "css/site.css" to its public
	// path, e.g. "/css/site.3f9a2c1d.css".
	Asset(specifier string) string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver resolves specifiers through m and prepends prefix.
//
// Absolute URLs and paths ("https://...", "/x.css", "//cdn/x.css") pass
// through unchanged, as do specifiers the manifest does not know, which
// only get the prefix.
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   prefix,
	}
}

func (r *manifestResolver) Asset(specifier string) string {
	if external(specifier) {
		return specifier
	}
	return join(r.prefix, r.manifest.Resolve(specifier))
}

type passthrough struct {
	prefix string
}

// NewPassthroughResolver only applies prefix. Dev servers use it so that
// edited files are served under their own names.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: prefix}
}

func (p *passthrough) Asset(specifier string) string {
	if external(specifier) {
		return specifier
	}
	return join(p.prefix, specifier)
}

func external(s string) bool {
	return strings.HasPrefix(s, "/") || strings.Contains(s, "://")
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
