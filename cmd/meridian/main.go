// Command meridian serves, exports and inspects a meridian site.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	merrors "github.com/vango-dev/meridian/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		merrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every command.
type rootOptions struct {
	verbose    bool
	configPath string
	dir        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "meridian",
		Short: "Serve and export route-based sites",
		Long: `Meridian renders route-based sites with Go.

Routes come from a manifest, a pages directory or the built-in example
site. Pages render on demand in server output, or are resolved against
the static paths their routes declare in static output:

  • serve: run the site over HTTP, with live reload in dev mode
  • export: render every page to a directory or an S3 bucket
  • routes, match: inspect the route table
  • manifest: write the route table for a later run
  • assets: fingerprint the public directory
  • init: create a new site from a template`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: meridian.toml or meridian.json in the project root)")
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "project directory")

	root.AddCommand(
		serveCmd(opts),
		exportCmd(opts),
		routesCmd(opts),
		matchCmd(opts),
		manifestCmd(opts),
		assetsCmd(opts),
		initCmd(opts),
		versionCmd(),
	)
	return root
}

// newLogger creates the CLI logger. It doubles as the slog handler the
// app logs through.
func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *charmlog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return l
	}
	return charmlog.Default()
}

// success prints a success line.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

// info prints an indented detail line.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}
