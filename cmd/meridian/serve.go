package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/internal/config"
	"github.com/vango-dev/meridian/internal/dev"
	"github.com/vango-dev/meridian/pkg/middleware"
)

const metricsPath = "/_meridian/metrics"

type serveOptions struct {
	host      string
	port      int
	devMode   bool
	ssr       bool
	publicDir string
	metrics   bool
	watch     bool
}

func serveCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		Long: `Serve the site over HTTP.

SIGHUP clears the static path cache, so generators run again on the next
request. In dev mode data files are watched and connected browsers
reload after every change.

Examples:
  meridian serve
  meridian serve --dev --port=3000
  meridian serve --ssr --public=public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			return runServe(cmd.Context(), root, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "host to bind to (default from config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on (default from config)")
	cmd.Flags().BoolVar(&opts.devMode, "dev", false, "enable dev mode: live reload and detailed errors")
	cmd.Flags().BoolVar(&opts.ssr, "ssr", false, "render pages on demand (server output)")
	cmd.Flags().StringVar(&opts.publicDir, "public", "", "directory of static files served before routes (default from config)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics at "+metricsPath)
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "in dev mode, reload when project files change")

	return cmd
}

// apply overrides cfg with the flags that were set.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if cmd.Flags().Changed("dev") {
		cfg.Dev = o.devMode
	}
	if o.ssr {
		cfg.Output = config.OutputServer
	}
	if o.publicDir != "" {
		cfg.Assets.Public = o.publicDir
	}
}

func runServe(ctx context.Context, root *rootOptions, cfg *config.Config, opts *serveOptions) error {
	log := loggerFromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

	p, err := loadProject(ctx, root, cfg, func(c *meridian.Config) {
		c.Metrics = metrics
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           newRouter(p.app, metrics, reg, opts.metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reloadOnHangup(ctx, p.app)
	if cfg.Dev && opts.watch {
		go watchProject(ctx, p, slog.New(log.With("component", "watcher")))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success(os.Stdout, "Serving %s on http://%s", p.app, srv.Addr)
	info(os.Stdout, "routes from %s, %s output", p.source, cfg.Output)
	if cfg.Dev {
		info(os.Stdout, "dev mode: live reload at %s", dev.ReloadPath)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rs := p.app.ReloadServer(); rs != nil {
		rs.Close()
	}
	return srv.Shutdown(shutdownCtx)
}

// newRouter mounts the app behind the request middleware stack.
func newRouter(app *meridian.App, metrics *middleware.Metrics, reg *prometheus.Registry, exposeMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != metricsPath
	})))

	if exposeMetrics {
		r.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	r.Handle("/*", app)
	return r
}

// reloadOnHangup clears the static path cache on every SIGHUP.
func reloadOnHangup(ctx context.Context, app *meridian.App) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			app.Reload()
		}
	}
}

// watchProject reloads the app when project files change. Manifest
// changes also reload the route table; config and Go source changes need
// a restart.
func watchProject(ctx context.Context, p *project, log *slog.Logger) {
	paths := dev.WatchPaths(p.cfg.Dir(), p.cfg.Pages, "data", p.cfg.Manifest, p.cfg.Path())
	cfg := dev.WatcherConfig{Paths: paths}
	if m := p.cfg.ManifestPath(); m != "" {
		cfg.Manifests = []string{m}
	}
	w := dev.NewWatcher(cfg)
	w.OnChange(func(c dev.Change) {
		switch c.Type {
		case dev.ChangeManifest:
			if err := p.app.LoadManifest(c.Path); err != nil {
				log.Error("manifest reload failed", "path", c.Path, "error", err)
				if rs := p.app.ReloadServer(); rs != nil {
					rs.NotifyError(err)
				}
				return
			}
			p.app.Reload()
		case dev.ChangeConfig, dev.ChangeSource:
			log.Warn("restart to apply change", "path", c.Path, "type", c.Type)
		default:
			p.app.Reload()
		}
	})

	log.Debug("watching", "paths", paths)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("watcher stopped", "error", err)
	}
}
