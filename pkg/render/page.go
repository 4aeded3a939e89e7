package render

import (
	"errors"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/result"
)

// ErrNilComponent is returned when a page has no component to render.
var ErrNilComponent = errors.New("render: nil component")

// RenderPage renders page c into a complete HTML document.
//
// The component's assets and every nested component's assets are
// collected while the body renders, then injected at the first HeadMarker
// (or prepended). The result always starts with a doctype. If rendering
// returns a *result.Response as its error, that response is the result.
func RenderPage(ctx *Context, c *Component) (result.Result, error) {
	if c == nil || c.Render == nil {
		return result.Result{}, merrors.New("M007").Wrap(ErrNilComponent)
	}
	ctx.head.Add(c.Head)

	html, err := renderPageBody(ctx, c)
	if err != nil {
		var resp *result.Response
		if errors.As(err, &resp) {
			return result.FromResponse(resp), nil
		}
		return result.Result{}, err
	}

	html = injectHead(html, ctx.head.Render())
	html = ensureDoctype(html)
	return result.FromHTML(html, ctx.Response), nil
}

func renderPageBody(ctx *Context, c *Component) (string, error) {
	f, err := c.Render(ctx, ctx.Props, ctx.slots)
	if err != nil {
		return "", err
	}
	return ctx.renderToString(f)
}

// RenderString renders a standalone fragment with no head injection or
// doctype. Useful for partials and tests.
func RenderString(ctx *Context, f Fragment) (string, error) {
	return ctx.renderToString(f)
}
