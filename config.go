package meridian

import (
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/meridian/pkg/middleware"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
type Config struct {
	// Site is the public origin, used for canonical URLs and endpoint
	// contexts. When nil the request's origin is used.
	Site *url.URL

	// SSR renders pages on demand. Dynamic pages may then omit static
	// paths, and pages may redirect.
	SSR bool

	// StrictParams makes an invalid static path param type fail the
	// route's generation instead of skipping the path. Nil means true.
	StrictParams *bool

	// TrailingSlash is the mode used when the app compiles routes itself,
	// for example in ScanPages. Default: TrailingIgnore.
	TrailingSlash router.TrailingSlash

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Resolve maps a specifier to a URL for render contexts. Default:
	// identity.
	Resolve func(specifier string) string

	// Head is added to every page before component assets.
	Head render.Assets

	// Static configures static file serving.
	Static StaticConfig

	// DevMode enables live reload: the app serves the reload socket and
	// adds the reload client to every page. Rendering errors are shown in
	// the response body.
	// SECURITY: never use in production.
	DevMode bool

	// BinaryMediaTypes extends the content types the function handler
	// returns base64 encoded.
	BinaryMediaTypes []string

	// Metrics, when set, observes the static path cache and counts
	// pipeline errors.
	Metrics *middleware.Metrics

	// Observer receives static path cache events. Defaults to Metrics
	// when that is set.
	Observer staticpaths.Observer

	// TracerName names the tracer for pipeline spans. Default: "meridian".
	TracerName string

	// TracerProvider provides the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider
}

// strict reports the effective StrictParams value.
func (c Config) strict() bool {
	return c.StrictParams == nil || *c.StrictParams
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g., "public").
	// Files in this directory are served at the URL prefix, ahead of
	// route matching.
	Dir string

	// Prefix is the URL prefix for static files.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone (no caching headers).
	CacheControl CacheControlStrategy

	// Headers are added to every static file response.
	Headers map[string]string
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone adds no caching headers.
	// Use in development for instant updates.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction uses appropriate caching:
	// - Fingerprinted files (*.abc123.css): immutable, 1 year max-age
	// - Other files: short cache with revalidation
	CacheControlProduction
)
