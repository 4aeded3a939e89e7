package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian/internal/templates"
)

func initCmd(root *rootOptions) *cobra.Command {
	var (
		template string
		module   string
		site     string
		list     bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new site from a template",
		Long: `Create a new site in a directory named after the project, below
--dir. The generated main.go registers the pages and endpoints, serves
them, and exports them with -export.

Examples:
  meridian init my-site
  meridian init my-blog --template=blog --site=https://blog.example
  meridian init --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range templates.List() {
					tmpl, _ := templates.Get(name)
					info(out, "%-10s %s", name, tmpl.Description)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("init: a project name is required")
			}

			tmpl, err := templates.Get(template)
			if err != nil {
				return err
			}
			name := args[0]
			dir := filepath.Join(root.dir, name)
			if conflicts := tmpl.Conflicts(dir); len(conflicts) > 0 && !force {
				return fmt.Errorf("init: %s already has %s (use --force to overwrite)", dir, strings.Join(conflicts, ", "))
			}
			if module == "" {
				module = filepath.Base(name)
			}

			err = tmpl.Create(dir, templates.Config{
				ProjectName: filepath.Base(name),
				ModulePath:  module,
				Site:        site,
			})
			if err != nil {
				return err
			}

			success(out, "Created %s from the %s template", dir, tmpl.Name)
			for _, p := range tmpl.Paths() {
				info(out, "%s", p)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  cd %s && go mod tidy && go run .\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "minimal", "project template")
	cmd.Flags().StringVar(&module, "module", "", "Go module path (default: the project name)")
	cmd.Flags().StringVar(&site, "site", "", "deployed origin of the site")
	cmd.Flags().BoolVar(&list, "list", false, "list the available templates")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	return cmd
}
