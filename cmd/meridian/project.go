package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/example/blog"
	"github.com/vango-dev/meridian/internal/config"
)

// Route sources, in the order loadProject tries them.
const (
	sourceManifest = "manifest"
	sourcePages    = "pages"
	sourceBuiltin  = "built-in"
)

// project is a loaded config and the app built from it.
type project struct {
	cfg    *config.Config
	app    *meridian.App
	source string
}

// loadConfig reads the config named by --config, or the one in the project
// root above --dir. Without either the defaults are used.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}
	root, err := config.FindProjectRoot(opts.dir)
	if err != nil {
		cfg := config.New()
		cfg.SetBaseDir(opts.dir)
		return cfg, nil
	}
	return config.Load(root)
}

// loadProject builds the app. edit may adjust the app config before the
// app is created.
func loadProject(ctx context.Context, opts *rootOptions, cfg *config.Config, edit func(*meridian.Config)) (*project, error) {
	logger := slog.New(loggerFromContext(ctx))

	appCfg, err := cfg.ToAppConfig(logger)
	if err != nil {
		return nil, err
	}
	if edit != nil {
		edit(&appCfg)
	}

	app := meridian.New(appCfg)
	blog.Register(app)

	p := &project{cfg: cfg, app: app}
	if err := p.loadRoutes(); err != nil {
		return nil, err
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("project loaded", "routes", app.Table().Len(), "source", p.source, "output", cfg.Output)
	return p, nil
}

// loadRoutes picks the route source: the configured manifest, then the
// pages directory, then the example site's table.
func (p *project) loadRoutes() error {
	if path := p.cfg.ManifestPath(); path != "" {
		p.source = sourceManifest
		return p.app.LoadManifest(path)
	}

	pages := p.cfg.PagesPath()
	if info, err := os.Stat(pages); err == nil && info.IsDir() {
		p.source = sourcePages
		return p.app.ScanPages(os.DirFS(pages), ".")
	}

	p.source = sourceBuiltin
	p.app.SetRoutes(blog.Routes())
	return nil
}
