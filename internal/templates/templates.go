package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/vango-dev/meridian/internal/errors"
)

// DefaultPort is the port generated servers listen on.
const DefaultPort = 3000

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// ModulePath is the Go module path. Defaults to ProjectName.
	ModulePath string

	// Description is a short project description.
	Description string

	// Site is the deployed origin, e.g. "https://example.com".
	Site string

	// Port is the port the generated server listens on.
	Port int
}

func (c Config) withDefaults() Config {
	if c.ModulePath == "" {
		c.ModulePath = c.ProjectName
	}
	if c.Description == "" {
		c.Description = "A meridian site"
	}
	if c.Site == "" {
		c.Site = "http://localhost"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	return c
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"blog":    blogTemplate(),
	"api":     apiTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("M011").
			WithDetail("Template '" + name + "' not found").
			WithHint("Available templates: " + strings.Join(List(), ", "))
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the relative paths the template writes, sorted.
func (t *Template) Paths() []string {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create generates a project from the template. Existing files are
// overwritten.
func (t *Template) Create(dir string, cfg Config) error {
	cfg = cfg.withDefaults()

	for _, relPath := range t.Paths() {
		tmpl, err := template.New(relPath).Parse(t.Files[relPath])
		if err != nil {
			return errors.Newf(errors.CategoryConfig, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryConfig, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Conflicts returns the template's files that already exist in dir.
func (t *Template) Conflicts(dir string) []string {
	var existing []string
	for _, relPath := range t.Paths() {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(relPath))); err == nil {
			existing = append(existing, relPath)
		}
	}
	return existing
}

const goMod = `module {{.ModulePath}}

go 1.24
`

const gitignore = `/dist/
`

const readme = `# {{.ProjectName}}

{{.Description}}

    go mod tidy
    go run .                  # serve on :{{.Port}}
    go run . -export dist     # render every page to dist/
`

// mainGo is shared by all templates. Each template supplies routes(),
// register(app) and ssr.
const mainGo = `package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/pkg/export"
)

func main() {
	port := flag.Int("port", {{.Port}}, "port to listen on")
	out := flag.String("export", "", "render every page to this directory and exit")
	flag.Parse()

	site, err := url.Parse({{printf "%q" .Site}})
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := meridian.New(meridian.Config{
		Site:   site,
		SSR:    ssr,
		Logger: logger,
	})
	register(app)
	app.SetRoutes(routes())
	if err := app.Validate(); err != nil {
		log.Fatal(err)
	}

	if *out != "" {
		report, err := (&export.Exporter{
			Source: app,
			Sink:   export.DirSink{Dir: *out},
			Site:   site,
			Logger: logger,
		}).Export(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("exported", "pages", report.Pages, "dir", *out)
		return
	}

	addr := ":" + strconv.Itoa(*port)
	logger.Info("serving", "project", {{printf "%q" .ProjectName}}, "addr", addr)
	log.Fatal(http.ListenAndServe(addr, app))
}
`

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "One static page",
		Files: map[string]string{
			"go.mod":     goMod,
			".gitignore": gitignore,
			"README.md":  readme,
			"main.go":    mainGo,
			"pages.go": `package main

import (
	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/router"
)

const ssr = false

func routes() *router.Table {
	return router.NewTable(
		router.MustCompile("/", router.KindPage, "index"),
	)
}

func register(app *meridian.App) {
	app.Page("index", home, nil)
}

var home = render.NewComponent("Home", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	return render.List(
		render.HTML("<html><head><title>"),
		render.Text({{printf "%q" .ProjectName}}),
		render.HTML("</title>"),
		render.HeadSlot(),
		render.HTML("</head><body><h1>"),
		render.Text({{printf "%q" .ProjectName}}),
		render.HTML("</h1><p>"),
		render.Text({{printf "%q" .Description}}),
		render.HTML("</p></body></html>"),
	), nil
}).WithHead(render.Assets{Styles: []render.Element{
	render.InlineStyle("body{font-family:system-ui,sans-serif;max-width:800px;margin:0 auto;padding:2rem}"),
}})
`,
		},
	}
}

// blogTemplate returns the blog template.
func blogTemplate() *Template {
	return &Template{
		Name:        "blog",
		Description: "Dynamic pages with static paths, pagination and a JSON feed",
		Files: map[string]string{
			"go.mod":     goMod,
			".gitignore": gitignore,
			"README.md":  readme,
			"main.go":    mainGo,
			"pages.go": `package main

import (
	"context"
	"fmt"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/pkg/endpoint"
	"github.com/vango-dev/meridian/pkg/render"
	"github.com/vango-dev/meridian/pkg/router"
	"github.com/vango-dev/meridian/pkg/staticpaths"
)

const ssr = false

type post struct {
	Slug  string ` + "`json:\"slug\"`" + `
	Title string ` + "`json:\"title\"`" + `
	Body  string ` + "`json:\"body\"`" + `
}

var posts = []post{
	{Slug: "second", Title: "Second post", Body: "Written after the first."},
	{Slug: "first", Title: "First post", Body: "Hello from " + {{printf "%q" .ProjectName}} + "."},
}

func routes() *router.Table {
	return router.NewTable(
		router.MustCompile("/", router.KindPage, "index"),
		router.MustCompile("/posts.json", router.KindEndpoint, "posts.json"),
		router.MustCompile("/blog/[slug]", router.KindPage, "blog/[slug]"),
		router.MustCompile("/page/[...page]", router.KindPage, "page/[...page]"),
	)
}

func register(app *meridian.App) {
	app.Page("index", index, nil)
	app.Page("blog/[slug]", postPage, postPaths)
	app.Page("page/[...page]", listPage, listPaths)
	app.Endpoint("posts.json", feed, nil)
}

func layout(title string, body render.Fragment) render.Fragment {
	return render.List(
		render.HTML("<html><head><title>"), render.Text(title), render.HTML("</title>"),
		render.HeadSlot(),
		render.HTML("</head><body>"), body, render.HTML("</body></html>"),
	)
}

var index = render.NewComponent("Index", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	title := {{printf "%q" .ProjectName}}
	return layout(title, render.List(
		render.HTML("<h1>"), render.Text(title), render.HTML("</h1><a href=\"/page\">All posts</a>"),
	)), nil
})

func postPaths(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
	paths := make([]staticpaths.Path, 0, len(posts))
	for _, p := range posts {
		paths = append(paths, staticpaths.Path{
			Params: map[string]any{"slug": p.Slug},
			Props:  staticpaths.Props{"post": p},
		})
	}
	return paths, nil
}

var postPage = render.NewComponent("Post", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	p := props["post"].(post)
	return layout(p.Title, render.List(
		render.HTML("<h1>"), render.Text(p.Title), render.HTML("</h1><p>"), render.Text(p.Body), render.HTML("</p>"),
	)), nil
})

func listPaths(ctx context.Context, opts staticpaths.Options) ([]staticpaths.Path, error) {
	return staticpaths.Paginate(opts.Route, posts, staticpaths.PaginateOptions{PageSize: 10})
}

var listPage = render.NewComponent("List", func(ctx *render.Context, props render.Props, slots *render.Slots) (render.Fragment, error) {
	page := props["page"].(staticpaths.Page[post])
	items := make([]render.Fragment, 0, len(page.Data))
	for _, p := range page.Data {
		items = append(items, render.HTML("<li><a href=\"/blog/"+p.Slug+"\">"), render.Text(p.Title), render.HTML("</a></li>"))
	}
	title := fmt.Sprintf("Page %d of %d", page.CurrentPage, page.LastPage)
	return layout(title, render.List(render.HTML("<ul>"), render.List(items...), render.HTML("</ul>"))), nil
})

var feed = endpoint.MustNew("posts.json", endpoint.Module{
	"get": func(c *endpoint.Context) (any, error) {
		return posts, nil
	},
})
`,
		},
	}
}

// apiTemplate returns the API template.
func apiTemplate() *Template {
	return &Template{
		Name:        "api",
		Description: "JSON endpoints rendered on demand",
		Files: map[string]string{
			"go.mod":     goMod,
			".gitignore": gitignore,
			"README.md":  readme,
			"main.go":    mainGo,
			"endpoints.go": `package main

import (
	"time"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/pkg/endpoint"
	"github.com/vango-dev/meridian/pkg/router"
)

const ssr = true

func routes() *router.Table {
	return router.NewTable(
		router.MustCompile("/health", router.KindEndpoint, "health"),
		router.MustCompile("/api/hello/[name]", router.KindEndpoint, "api/hello/[name]"),
	)
}

func register(app *meridian.App) {
	app.Endpoint("health", health, nil)
	app.Endpoint("api/hello/[name]", hello, nil)
}

var health = endpoint.MustNew("health", endpoint.Module{
	"get": func(c *endpoint.Context) (any, error) {
		return map[string]any{"status": "ok", "time": time.Now().UTC()}, nil
	},
})

var hello = endpoint.MustNew("api/hello/[name]", endpoint.Module{
	"get": func(c *endpoint.Context) (any, error) {
		return map[string]string{"message": "Hello, " + c.Params["name"] + "!"}, nil
	},
})
`,
		},
	}
}
