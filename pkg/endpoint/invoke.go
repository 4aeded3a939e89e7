package endpoint

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/router"
)

const defaultContentType = "text/plain; charset=utf-8"

// Invoker calls endpoint handlers.
type Invoker struct {
	Site   *url.URL
	Logger *slog.Logger

	// warned holds the endpoints that already logged the Context.Get
	// deprecation warning.
	warned sync.Map
}

// Invoke dispatches req to the handler for its method, exactly once.
//
// A *result.Response, returned or used as the error, passes through
// untouched. Any other value becomes a simple body. Other handler errors
// are returned unmodified.
func (inv *Invoker) Invoke(req *http.Request, ep *Endpoint, route *router.Route, params router.Params) (result.Result, error) {
	return inv.InvokeWithProps(req, ep, route, params, nil)
}

// InvokeWithProps is Invoke with the props resolved from the route's
// static paths.
func (inv *Invoker) InvokeWithProps(req *http.Request, ep *Endpoint, route *router.Route, params router.Params, props map[string]any) (result.Result, error) {
	h, _, ok := ep.Handler(req.Method)
	if !ok {
		return result.Result{}, merrors.New("M006").
			WithDetailf("%s has no %q or %q export", ep.Name, strings.ToLower(req.Method), MethodAll).
			Wrap(ErrHandlerNotFound)
	}

	logger := inv.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if params == nil {
		params = router.Params{}
	}
	if props == nil {
		props = map[string]any{}
	}
	ctx := &Context{
		Request:   req,
		Params:    params,
		Props:     props,
		URL:       req.URL,
		Site:      inv.Site,
		component: ep.Name,
		logger:    logger,
		warned:    &inv.warned,
	}

	out, err := h(ctx)
	if err != nil {
		var resp *result.Response
		if errors.As(err, &resp) {
			return result.FromResponse(resp), nil
		}
		return result.Result{}, err
	}
	return normalize(out, contentTypeFor(route, req.URL.Path))
}

// normalize turns handler output into a result.
func normalize(out any, contentType string) (result.Result, error) {
	switch v := out.(type) {
	case *result.Response:
		if v == nil {
			return result.FromBody(result.Body{ContentType: contentType}), nil
		}
		return result.FromResponse(v), nil
	case result.Body:
		if v.ContentType == "" {
			v.ContentType = contentType
		}
		return result.FromBody(v), nil
	case *result.Body:
		if v == nil {
			return result.FromBody(result.Body{ContentType: contentType}), nil
		}
		return normalize(*v, contentType)
	case nil:
		return result.FromBody(result.Body{ContentType: contentType}), nil
	case string:
		return result.FromBody(result.Body{Body: v, ContentType: contentType}), nil
	case []byte:
		return result.FromBody(result.Body{
			Body:        base64.StdEncoding.EncodeToString(v),
			Encoding:    "base64",
			ContentType: contentType,
		}), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return result.Result{}, fmt.Errorf("endpoint: encode %T: %w", out, err)
		}
		return result.FromBody(result.Body{Body: string(b), ContentType: "application/json"}), nil
	}
}

// contentTypeFor derives a content type from the route's pathname, or
// from its template for dynamic routes, falling back to the request path.
func contentTypeFor(route *router.Route, requestPath string) string {
	p := requestPath
	if route != nil {
		p = route.Template
		if route.Pathname != "" {
			p = route.Pathname
		}
	}
	ext := path.Ext(p)
	if ext == "" || strings.ContainsAny(ext, "[]") {
		return defaultContentType
	}
	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return defaultContentType
	}
	if mediaType, _, err := mime.ParseMediaType(typ); err == nil {
		typ = mediaType
	}
	return typ + "; charset=utf-8"
}
