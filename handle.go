package meridian

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/meridian/internal/dev"
	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/adapter"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/routepath"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

// ErrBadPath is wrapped when a request path is rejected before matching.
var ErrBadPath = errors.New("meridian: rejected request path")

// =============================================================================
// Pipeline
// =============================================================================

// Handle runs the pipeline for req without writing anything: clean the
// path, match, resolve params and props, then render the page or invoke
// the endpoint.
//
// An unmatched path yields the fixed 404 response. Errors are returned
// for the host to map: ErrBadPath for rejected paths, coded errors for
// authoring mistakes, and render or handler errors unmodified.
func (a *App) Handle(ctx context.Context, req *http.Request) (result.Result, error) {
	ctx, span := a.tracer.Start(ctx, "meridian.handle",
		trace.WithAttributes(attribute.String("url.path", req.URL.Path)))
	defer span.End()

	res, err := a.handle(ctx, req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (a *App) handle(ctx context.Context, req *http.Request) (result.Result, error) {
	cleaned, err := routepath.Clean(req.URL.EscapedPath())
	if err != nil {
		return result.Result{}, fmt.Errorf("%w: %w", ErrBadPath, err)
	}

	route := a.Table().Match(cleaned.Path)
	if route == nil {
		return result.FromResponse(adapter.NotFound()), nil
	}
	router.RecordMatch(ctx, route)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("http.route", route.String()),
		attribute.String("meridian.component", route.Component),
		attribute.String("meridian.kind", string(route.Kind)),
	)

	if route.Kind == router.KindEndpoint {
		return a.invoke(ctx, req, route, cleaned.Path)
	}
	return a.renderPage(ctx, req, route, cleaned.Path)
}

func (a *App) resolve(ctx context.Context, route *router.Route, pathname string, gen staticpaths.Generator) (staticpaths.Resolved, error) {
	ctx, span := a.tracer.Start(ctx, "meridian.static_paths")
	defer span.End()

	resolved, err := a.resolver.Resolve(ctx, route, pathname, gen)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return resolved, err
}

func (a *App) renderPage(ctx context.Context, req *http.Request, route *router.Route, pathname string) (result.Result, error) {
	page, ok := a.page(route.Component)
	if !ok || page.component == nil {
		return result.Result{}, merrors.New("M007").WithDetailf("page %s", route.Component)
	}

	resolved, err := a.resolve(ctx, route, pathname, page.paths)
	if err != nil {
		return result.Result{}, err
	}

	ctx, span := a.tracer.Start(ctx, "meridian.render",
		trace.WithAttributes(attribute.String("meridian.component", route.Component)))
	defer span.End()

	rctx := a.proto.NewContext(req.WithContext(ctx), resolved.Params, render.Props(resolved.Props))
	res, err := render.RenderPage(rctx, page.component)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return result.Result{}, err
	}
	span.SetAttributes(attribute.String("meridian.result", res.Kind.String()))
	return res, nil
}

func (a *App) invoke(ctx context.Context, req *http.Request, route *router.Route, pathname string) (result.Result, error) {
	mod, ok := a.endpoint(route.Component)
	if !ok || mod.endpoint == nil {
		return result.Result{}, merrors.New("M007").WithDetailf("endpoint %s", route.Component)
	}

	resolved, err := a.resolve(ctx, route, pathname, mod.paths)
	if err != nil {
		return result.Result{}, err
	}

	ctx, span := a.tracer.Start(ctx, "meridian.endpoint",
		trace.WithAttributes(
			attribute.String("meridian.component", route.Component),
			attribute.String("http.request.method", req.Method),
		))
	defer span.End()

	res, err := a.invoker.InvokeWithProps(req.WithContext(ctx), mod.endpoint, route, resolved.Params, resolved.Props)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler. Rejected paths get 400 and
// non-canonical ones a 308 to their cleaned form. Static files are served
// next, then the pipeline runs: unmatched paths get 404, and any other
// pipeline error is logged and answered with 500.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.reload != nil && r.URL.Path == dev.ReloadPath {
		a.reload.ServeHTTP(w, r)
		return
	}

	cleaned, err := routepath.Clean(r.URL.EscapedPath())
	if err != nil {
		a.handleError(w, r, "unmatched", fmt.Errorf("%w: %w", ErrBadPath, err))
		return
	}
	if cleaned.Changed {
		location := cleaned.Path
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, location, http.StatusPermanentRedirect)
		return
	}

	if a.staticFS != nil && a.serveStatic(w, r) {
		return
	}

	ctx, rec := router.WithMatchRecorder(r.Context())
	r = r.WithContext(ctx)

	res, err := a.Handle(ctx, r)
	if err == nil {
		err = adapter.WriteHTTP(w, r, res)
		if err == nil {
			return
		}
	}
	a.handleError(w, r, rec.Label(), err)
}

// handleError logs err and writes the matching status.
func (a *App) handleError(w http.ResponseWriter, r *http.Request, route string, err error) {
	if errors.Is(err, ErrBadPath) {
		a.logger.Debug("rejected request path", "path", r.URL.Path, "error", err)
		adapter.WriteResponse(w, r, result.Text(http.StatusBadRequest, "Bad request"))
		return
	}

	if a.config.Metrics != nil {
		a.config.Metrics.RecordError(route, err)
	}
	if r.Context().Err() != nil {
		a.logger.Debug("request canceled", "path", r.URL.Path, "route", route, "error", err)
		return
	}

	attrs := []any{"method", r.Method, "path", r.URL.Path, "route", route, "error", err}
	if code := merrors.CodeOf(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	a.logger.Error("request failed", attrs...)

	body := "Internal server error"
	if a.config.DevMode {
		body = err.Error()
		if a.reload != nil {
			a.reload.NotifyError(err)
		}
	}
	adapter.WriteResponse(w, r, result.Text(http.StatusInternalServerError, body))
}
