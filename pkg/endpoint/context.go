package endpoint

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/router"
)

// Context is what a handler sees of its request.
type Context struct {
	Request *http.Request
	Params  router.Params
	Props   map[string]any
	URL     *url.URL

	// Site is the configured public origin, or nil.
	Site *url.URL

	component string
	logger    *slog.Logger
	warned    *sync.Map // shared by every context of an Invoker
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// Logger returns the endpoint's logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Redirect returns a redirect response. Status defaults to 302.
func (c *Context) Redirect(location string, status int) *result.Response {
	return result.Redirect(location, status)
}

// Get looks key up on the context's own fields first and then in
// Params. Reading a param through Get logs a deprecation warning once per
// endpoint; new code should read c.Params.
func (c *Context) Get(key string) (any, bool) {
	switch key {
	case "request":
		return c.Request, true
	case "params":
		return c.Params, true
	case "props":
		return c.Props, true
	case "url":
		return c.URL, true
	case "site":
		if c.Site == nil {
			return nil, false
		}
		return c.Site, true
	}

	v, ok := c.Params[key]
	if !ok {
		return nil, false
	}
	c.deprecated(key)
	return v, true
}

func (c *Context) deprecated(key string) {
	if c.warned != nil {
		if _, loaded := c.warned.LoadOrStore(c.component, struct{}{}); loaded {
			return
		}
	}
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("reading params from the endpoint context is deprecated, use ctx.Params",
		"component", c.component,
		"param", key,
	)
}
