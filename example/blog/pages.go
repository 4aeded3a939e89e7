package blog

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

const siteCSS = `body{font:16px/1.5 system-ui,sans-serif;max-width:40rem;margin:2rem auto;padding:0 1rem}` +
	`nav a{margin-right:1rem}time{color:#666}`

var siteHead = render.Assets{Styles: []render.Element{render.InlineStyle(siteCSS)}}

// layout wraps body in the site's document.
func layout(ctx *render.Context, title string, body render.Fragment) render.Fragment {
	ctx.Head().AddLink(render.Element{Props: map[string]string{
		"rel":  "icon",
		"type": "image/svg+xml",
		"href": ctx.Resolve("favicon.svg"),
	}})
	return render.List(
		render.HTML(`<html lang="en"><head><meta charset="utf-8"><title>`),
		render.Text(title),
		render.HTML(`</title>`),
		render.HeadSlot(),
		render.HTML(`</head><body><nav><a href="/">Home</a><a href="/archive">Archive</a><a href="/about">About</a></nav><main>`),
		body,
		render.HTML(`</main></body></html>`),
	)
}

var teaser = render.NewComponent("Teaser", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	p, _ := props["post"].(Post)
	return render.List(
		render.HTML(`<article><h2><a href="/blog/`), render.Text(p.Slug), render.HTML(`">`), render.Text(p.Title), render.HTML(`</a></h2>`),
		render.HTML(`<time>`), render.Text(p.Date.Format("2 January 2006")), render.HTML(`</time><p>`), render.Text(p.Summary), render.HTML(`</p></article>`),
	), nil
})

var homePage = render.NewComponent("Home", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	recent := Posts
	if len(recent) > 3 {
		recent = recent[:3]
	}
	items := make([]render.Fragment, 0, len(recent))
	for _, p := range recent {
		items = append(items, render.Render(teaser, render.Props{"post": p}, nil))
	}
	return layout(ctx, "Meridian blog", render.List(render.HTML("<h1>Recent posts</h1>"), render.List(items...))), nil
}).WithHead(siteHead)

var postPage = render.NewComponent("Post", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	p, ok := props["post"].(Post)
	if !ok {
		// SSR requests for undeclared slugs have no props.
		found, exists := Find(ctx.Params["slug"])
		if !exists {
			ctx.SetStatus(http.StatusNotFound)
			return layout(ctx, "Not found", render.HTML("<h1>Post not found</h1>")), nil
		}
		p = found
	}
	ctx.Head().AddLink(render.Element{Props: map[string]string{"rel": "canonical", "href": ctx.Canonical.String()}})
	return layout(ctx, p.Title, render.List(
		render.HTML("<h1>"), render.Text(p.Title), render.HTML("</h1><time>"),
		render.Text(p.Date.Format("2 January 2006")), render.HTML("</time><p>"), render.Text(p.Summary), render.HTML("</p>"),
	)), nil
}).WithHead(siteHead)

var archivePage = render.NewComponent("Archive", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	page, ok := props["page"].(staticpaths.Page[Post])
	if !ok {
		return nil, fmt.Errorf("archive: missing page prop")
	}
	items := make([]render.Fragment, 0, len(page.Data))
	for _, p := range page.Data {
		items = append(items, render.Render(teaser, render.Props{"post": p}, nil))
	}

	nav := []render.Fragment{render.HTML("<footer>")}
	if page.URL.Prev != "" {
		nav = append(nav, render.HTML(`<a rel="prev" href="`), render.Text(page.URL.Prev), render.HTML(`">Newer</a>`))
	}
	nav = append(nav, render.HTML(fmt.Sprintf(" Page %d of %d ", page.CurrentPage, page.LastPage)))
	if page.URL.Next != "" {
		nav = append(nav, render.HTML(`<a rel="next" href="`), render.Text(page.URL.Next), render.HTML(`">Older</a>`))
	}
	nav = append(nav, render.HTML("</footer>"))

	title := fmt.Sprintf("Archive, page %d", page.CurrentPage)
	return layout(ctx, title, render.List(render.HTML("<h1>Archive</h1>"), render.List(items...), render.List(nav...))), nil
}).WithHead(siteHead)

// aboutBody is written directly against templ's component interface.
var aboutBody = templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, "<h1>About</h1><p>"+templ.EscapeString("Pages & endpoints, rendered on demand or ahead of time.")+"</p>")
	return err
})

var aboutPage = render.NewComponent("About", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	return layout(ctx, "About", render.Templ(aboutBody)), nil
}).WithHead(siteHead)
