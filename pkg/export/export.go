// Package export renders every page of an app ahead of time and writes the
// output to a Sink: a local directory or an S3 bucket.
package export

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/meridian/pkg/adapter"
	"github.com/vango-dev/meridian/pkg/result"
	"github.com/vango-dev/meridian/pkg/router"
)

// Source is what the exporter needs from an app.
type Source interface {
	// Routes returns the routes in table order.
	Routes() []*router.Route

	// StaticPaths returns the declared params of a dynamic route.
	StaticPaths(ctx context.Context, route *router.Route) ([]router.Params, error)

	// Handle runs the pipeline for req.
	Handle(ctx context.Context, req *http.Request) (result.Result, error)
}

// Report summarizes an export.
type Report struct {
	Pages    int
	Files    int
	Skipped  int
	Bytes    int64
	Duration time.Duration
}

// Exporter writes every route of a Source to a Sink.
type Exporter struct {
	Source Source
	Sink   Sink

	// Site is the origin of the synthetic requests. Defaults to
	// http://localhost.
	Site *url.URL

	// Concurrency bounds parallel renders. Defaults to 4.
	Concurrency int

	// Public, when set, is copied to the sink as is. A rendered page
	// with the same output name wins.
	Public fs.FS

	Logger *slog.Logger
}

type job struct {
	route    *router.Route
	pathname string
}

// Export renders and writes every page. It stops at the first error.
func (e *Exporter) Export(ctx context.Context) (Report, error) {
	start := time.Now()
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs, err := e.plan(ctx)
	if err != nil {
		return Report{}, err
	}

	var pages, files, skipped atomic.Int32
	var written atomic.Int64

	rendered := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		rendered[OutputPath(j.pathname)] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := e.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for _, j := range jobs {
		g.Go(func() error {
			resp, err := e.render(gctx, j.pathname)
			if err != nil {
				return fmt.Errorf("export %s (%s): %w", j.pathname, j.route, err)
			}
			if resp.Status != http.StatusOK {
				logger.Warn("skipping non-200 page", "path", j.pathname, "status", resp.Status)
				skipped.Add(1)
				return nil
			}

			ct := resp.Header.Get("Content-Type")
			if err := e.Sink.Write(gctx, OutputPath(j.pathname), resp.Body, ct); err != nil {
				return fmt.Errorf("export %s: %w", j.pathname, err)
			}
			pages.Add(1)
			written.Add(int64(len(resp.Body)))
			logger.Debug("exported page", "path", j.pathname, "bytes", len(resp.Body))
			return nil
		})
	}

	if e.Public != nil {
		err := fs.WalkDir(e.Public, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || rendered[name] {
				return err
			}
			g.Go(func() error {
				body, err := fs.ReadFile(e.Public, name)
				if err != nil {
					return fmt.Errorf("export %s: %w", name, err)
				}
				if err := e.Sink.Write(gctx, name, body, contentType(name)); err != nil {
					return fmt.Errorf("export %s: %w", name, err)
				}
				files.Add(1)
				written.Add(int64(len(body)))
				return nil
			})
			return nil
		})
		if err != nil {
			g.Wait()
			return Report{}, fmt.Errorf("export public files: %w", err)
		}
	}

	err = g.Wait()
	report := Report{
		Pages:    int(pages.Load()),
		Files:    int(files.Load()),
		Skipped:  int(skipped.Load()),
		Bytes:    written.Load(),
		Duration: time.Since(start),
	}
	if err != nil {
		return report, err
	}
	logger.Info("export complete", "pages", report.Pages, "files", report.Files, "skipped", report.Skipped, "bytes", report.Bytes)
	return report, nil
}

// plan lists the pathnames to render, in table order.
func (e *Exporter) plan(ctx context.Context) ([]job, error) {
	var jobs []job
	for _, r := range e.Source.Routes() {
		if r.IsStatic() {
			jobs = append(jobs, job{route: r, pathname: r.Pathname})
			continue
		}
		params, err := e.Source.StaticPaths(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", r, err)
		}
		for _, p := range params {
			pathname, err := r.Generate(p)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", r, err)
			}
			jobs = append(jobs, job{route: r, pathname: pathname})
		}
	}
	return jobs, nil
}

func (e *Exporter) render(ctx context.Context, pathname string) (*result.Response, error) {
	site := e.Site
	if site == nil {
		site = &url.URL{Scheme: "http", Host: "localhost"}
	}
	target := site.ResolveReference(&url.URL{Path: pathname})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	res, err := e.Source.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return adapter.ToResponse(res)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
