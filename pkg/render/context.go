package render

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/routepath"
	"github.com/vango-dev/meridian/pkg/router"
)

// ErrRedirectUnavailable is wrapped when a page redirects during a static
// render.
var ErrRedirectUnavailable = errors.New("render: redirect is only available in SSR mode")

// Prototype holds what every render context of an app shares.
type Prototype struct {
	// Site is the public origin used for canonical URLs. When nil the
	// request's origin is used.
	Site *url.URL

	// SSR enables Redirect.
	SSR bool

	// Resolve maps a specifier to a URL. Defaults to identity.
	Resolve func(string) string

	// Head is added to every page, before component assets.
	Head Assets

	Logger *slog.Logger
}

// Context is the per-render view a component gets of its request. It is
// built fresh for every render and never shared between requests.
type Context struct {
	// Request is the request being rendered. It may be synthetic during
	// static export.
	Request *http.Request

	// URL is the request URL.
	URL *url.URL

	// Canonical is the canonical URL of the page.
	Canonical *url.URL

	Params router.Params
	Props  Props

	// Response carries status and headers set while rendering.
	Response *result.Init

	// RequestID identifies this render in logs.
	RequestID string

	std    context.Context
	proto  *Prototype
	head   *HeadAssets
	slots  *Slots
	logger *slog.Logger
}

// NewContext builds a context for one render of req.
func (p *Prototype) NewContext(req *http.Request, params router.Params, props Props) *Context {
	if params == nil {
		params = router.Params{}
	}
	if props == nil {
		props = Props{}
	}

	id := uuid.NewString()
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx := &Context{
		Request:   req,
		URL:       req.URL,
		Canonical: routepath.CanonicalURL(req.URL.Path, p.siteFor(req)),
		Params:    params,
		Props:     props,
		Response:  result.NewInit(),
		RequestID: id,
		std:       req.Context(),
		proto:     p,
		head:      &HeadAssets{},
		logger:    logger.With("request_id", id),
	}
	ctx.head.Add(p.Head)
	ctx.slots = newSlots(ctx, nil)
	return ctx
}

func (p *Prototype) siteFor(req *http.Request) *url.URL {
	if p.Site != nil {
		return p.Site
	}
	if req.Host == "" {
		return nil
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: req.Host}
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.std
}

// Logger returns a logger tagged with the request ID.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Head returns the page's head asset set.
func (c *Context) Head() *HeadAssets {
	return c.head
}

// Slots returns the page-level slots. Pages have none unless rendered
// as a nested component.
func (c *Context) Slots() *Slots {
	return c.slots
}

// SSR reports whether the page is rendered on demand.
func (c *Context) SSR() bool {
	return c.proto.SSR
}

// Site returns the configured site URL, or nil.
func (c *Context) Site() *url.URL {
	return c.proto.Site
}

// Resolve maps a specifier through the app's resolver.
func (c *Context) Resolve(specifier string) string {
	if c.proto.Resolve == nil {
		return specifier
	}
	return c.proto.Resolve(specifier)
}

// Redirect returns a redirect response to be returned as the render
// error, which ends the page. Status defaults to 302. Outside SSR mode it
// returns a coded error instead, since a static file cannot redirect.
func (c *Context) Redirect(location string, status int) error {
	if !c.proto.SSR {
		return merrors.New("M005").WithDetail(location).Wrap(ErrRedirectUnavailable)
	}
	return result.Redirect(location, status)
}

// SetStatus sets the response status.
func (c *Context) SetStatus(code int) {
	c.Response.Status = code
}

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) {
	c.Response.Header.Set(key, value)
}
