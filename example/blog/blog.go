// Package blog is a small site built on meridian: a home page, one page
// per post, a paginated archive, an RSS feed and a JSON endpoint per post.
//
// The meridian command serves it when a project has neither a route
// manifest nor a pages directory, and the package tests use it end to end.
package blog

import (
	"context"
	"time"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

// ArchivePageSize is the number of posts per archive page.
const ArchivePageSize = 2

// Post is one blog post.
type Post struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
	Date    time.Time `json:"date"`
}

// Posts are the site's posts, newest first.
var Posts = []Post{
	{Slug: "static-paths", Title: "Static paths, once", Summary: "Generators run once per process, however many requests race for them.", Date: date(2026, 9, 30)},
	{Slug: "trailing-slashes", Title: "On trailing slashes", Summary: "Ignore, always or never, and what each does to matching.", Date: date(2026, 9, 12)},
	{Slug: "endpoints", Title: "Endpoints", Summary: "Routes that return bytes instead of pages.", Date: date(2026, 8, 21)},
	{Slug: "head-assets", Title: "Head assets", Summary: "Styles and scripts collected while rendering, injected at the end.", Date: date(2026, 8, 2)},
	{Slug: "hello-world", Title: "Hello, world", Summary: "The first post.", Date: date(2026, 7, 14)},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Routes returns the site's route table.
func Routes() *router.Table {
	return router.NewTable(
		router.MustCompile("/", router.KindPage, "index.templ"),
		router.MustCompile("/about", router.KindPage, "about.templ"),
		router.MustCompile("/feed.xml", router.KindEndpoint, "feed.xml.go"),
		router.MustCompile("/posts/[slug].json", router.KindEndpoint, "posts/[slug].json.go"),
		router.MustCompile("/blog/[slug]", router.KindPage, "blog/[slug].templ"),
		router.MustCompile("/archive/[...page]", router.KindPage, "archive/[...page].templ"),
	)
}

// Register adds the site's pages and endpoints to app.
func Register(app *meridian.App) {
	app.Page("index.templ", homePage, nil)
	app.Page("about.templ", aboutPage, nil)
	app.Page("blog/[slug].templ", postPage, postPaths)
	app.Page("archive/[...page].templ", archivePage, archivePaths)
	app.Endpoint("feed.xml.go", feed, nil)
	app.Endpoint("posts/[slug].json.go", postJSON, postPaths)
}

// postPaths declares one path per post with the post as its prop.
func postPaths(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
	paths := make([]staticpaths.Path, 0, len(Posts))
	for _, p := range Posts {
		paths = append(paths, staticpaths.Path{
			Params: map[string]any{"slug": p.Slug},
			Props:  staticpaths.Props{"post": p},
		})
	}
	return paths, nil
}

func archivePaths(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
	return staticpaths.Paginate(opts.Route, Posts, staticpaths.PaginateOptions{PageSize: ArchivePageSize})
}

// Find returns the post with slug.
func Find(slug string) (Post, bool) {
	for _, p := range Posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return Post{}, false
}
