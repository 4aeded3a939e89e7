package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian/internal/config"
	"github.com/vango-dev/meridian/pkg/export"
)

func exportCmd(root *rootOptions) *cobra.Command {
	var (
		dir         string
		bucket      string
		prefix      string
		concurrency int
		clean       bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every page ahead of time",
		Long: `Render every page ahead of time and write the output.

Static routes render once; dynamic routes render once per declared
static path. Output goes to a directory, or to an S3 bucket when one is
configured. S3 credentials come from AWS_ACCESS_KEY_ID and
AWS_SECRET_ACCESS_KEY.

Examples:
  meridian export
  meridian export --out=public_html --clean
  meridian export --bucket=my-site --prefix=v2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := loggerFromContext(ctx)

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if dir != "" {
				if cfg.Export.Dir, err = filepath.Abs(dir); err != nil {
					return err
				}
			}
			if bucket != "" {
				cfg.Export.Bucket = bucket
			}
			if prefix != "" {
				cfg.Export.Prefix = prefix
			}
			if concurrency > 0 {
				cfg.Export.Concurrency = concurrency
			}

			p, err := loadProject(ctx, root, cfg, nil)
			if err != nil {
				return err
			}

			sink, target, err := newSink(cfg, clean)
			if err != nil {
				return err
			}

			site, err := cfg.SiteURL()
			if err != nil {
				return err
			}
			if site == nil {
				site = &url.URL{Scheme: "http", Host: "localhost"}
			}

			log.Info("exporting", "routes", p.app.Table().Len(), "to", target)
			exporter := &export.Exporter{
				Source:      p.app,
				Sink:        sink,
				Site:        site,
				Concurrency: cfg.Export.Concurrency,
				Logger:      p.app.Logger(),
			}
			if public := p.app.Config().Static.Dir; public != "" {
				exporter.Public = os.DirFS(public)
			}
			report, err := exporter.Export(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Exported %d pages to %s in %s", report.Pages, target, report.Duration.Round(time.Millisecond))
			if report.Files > 0 {
				info(out, "%d public files copied", report.Files)
			}
			info(out, "%s written", formatBytes(report.Bytes))
			if report.Skipped > 0 {
				info(out, "%d pages skipped (non-200)", report.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to upload to instead of a directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix within the bucket")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel renders (default from config)")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory first")

	return cmd
}

// newSink returns the configured sink and a description of its target.
func newSink(cfg *config.Config, clean bool) (export.Sink, string, error) {
	if cfg.Export.Bucket != "" {
		client := export.NewS3Client(cfg.Export.Region, cfg.Export.Endpoint)
		target := "s3://" + cfg.Export.Bucket
		if cfg.Export.Prefix != "" {
			target += "/" + cfg.Export.Prefix
		}
		return export.NewS3Sink(client, cfg.Export.Bucket, cfg.Export.Prefix), target, nil
	}

	dir := cfg.ExportPath()
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return nil, "", fmt.Errorf("export: clean %s: %w", dir, err)
		}
	}
	return export.DirSink{Dir: dir}, dir, nil
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
