package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian/pkg/router"
)

func manifestCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "manifest [file]",
		Short: "Write the route table as a manifest",
		Long: `Write the route table as a manifest that serve, export and the
library's LoadManifest read back. The format follows the file extension
(.json, or .msgpack and .mpk); without a file the manifest goes to
stdout in --format.

Examples:
  meridian manifest routes.json
  meridian manifest routes.msgpack
  meridian manifest --format=json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			// Writing the manifest that is configured as the source would only
			// copy it.
			cfg.Manifest = ""
			p, err := loadProject(cmd.Context(), root, cfg, nil)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return router.EncodeManifest(cmd.OutOrStdout(), p.app.Table(), router.Format(format))
			}
			if err := router.WriteManifest(args[0], p.app.Table()); err != nil {
				return err
			}
			fi, _ := os.Stat(args[0])
			var size int64
			if fi != nil {
				size = fi.Size()
			}
			success(cmd.OutOrStdout(), "Wrote %d routes to %s (%s)", p.app.Table().Len(), args[0], formatBytes(size))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(router.FormatJSON), "stdout format: json or msgpack")
	return cmd
}
