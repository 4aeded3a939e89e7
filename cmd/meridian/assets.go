package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian/internal/config"
	"github.com/vango-dev/meridian/pkg/assets"
)

// defaultAssetManifest is written when the config names no asset manifest.
const defaultAssetManifest = "assets.json"

func assetsCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Fingerprint the public directory",
		Long: `Copy every file of the public directory to a name carrying a hash
of its content and write the asset manifest. Pages that link assets
through Resolve then get the fingerprinted names, which the static
server caches as immutable.

Files that already carry a fingerprint are left alone, so running the
command again only adds copies for changed files.

Examples:
  meridian assets
  meridian assets --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFromContext(cmd.Context())

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			public := cfg.PublicPath()
			manifestPath := cfg.AssetManifestPath()
			if manifestPath == "" {
				manifestPath = filepath.Join(public, defaultAssetManifest)
			}

			m, err := buildAssets(cfg, manifestPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries := m.All()
			sources := make([]string, 0, len(entries))
			for src := range entries {
				sources = append(sources, src)
			}
			sort.Strings(sources)

			for _, src := range sources {
				if !dryRun {
					if err := copyFile(filepath.Join(public, src), filepath.Join(public, entries[src])); err != nil {
						return err
					}
				}
				info(out, "%-32s %s", src, entries[src])
			}
			if dryRun {
				success(out, "%d assets would be fingerprinted", m.Len())
				return nil
			}
			if err := m.WriteFile(manifestPath); err != nil {
				return err
			}
			log.Debug("asset manifest written", "path", manifestPath)
			success(out, "Fingerprinted %d assets into %s", m.Len(), manifestPath)
			if cfg.Assets.Manifest == "" {
				info(out, "set assets.manifest = %q to resolve through it", defaultAssetManifest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the fingerprints without writing files")
	return cmd
}

// buildAssets fingerprints the public directory, leaving out the asset
// manifest itself.
func buildAssets(cfg *config.Config, manifestPath string) (*assets.Manifest, error) {
	public := cfg.PublicPath()
	if info, err := os.Stat(public); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("assets: no public directory at %s", public)
	}
	m, err := assets.Build(os.DirFS(public), ".")
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	if rel, err := filepath.Rel(public, manifestPath); err == nil {
		m.Delete(filepath.ToSlash(rel))
	}
	return m, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
