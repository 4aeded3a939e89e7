package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/meridian/pkg/router"
)

func routesCmd(root *rootOptions) *cobra.Command {
	var paths bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table in match order",
		Long: `List the route table in match order.

With --paths every dynamic route's generator runs and the declared
pathnames are listed under it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			p, err := loadProject(ctx, root, cfg, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			routes := p.app.Routes()
			fmt.Fprintln(out, styleTitle.Render(fmt.Sprintf("%d routes", len(routes)))+styleDim.Render(" from "+p.source))
			fmt.Fprintln(out, routeTable(routes))

			if !paths {
				return nil
			}
			for _, r := range routes {
				if !r.IsDynamic() {
					continue
				}
				params, err := p.app.StaticPaths(ctx, r)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, styleTitle.Render(r.String()))
				for _, ps := range params {
					pathname, err := r.Generate(ps)
					if err != nil {
						return err
					}
					info(out, "%-32s %s", pathname, formatParams(r, ps))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&paths, "paths", false, "list the static paths of dynamic routes")
	return cmd
}

func matchCmd(root *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Show which route a path matches",
		Long: `Show which route a path matches and the params it extracts.

The first matching route wins; --all lists every route that matches, in
order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			p, err := loadProject(cmd.Context(), root, cfg, nil)
			if err != nil {
				return err
			}

			var matched []*router.Route
			if all {
				matched = p.app.Table().MatchAll(args[0])
			} else if r := p.app.Table().Match(args[0]); r != nil {
				matched = []*router.Route{r}
			}
			if len(matched) == 0 {
				return fmt.Errorf("no route matches %s", args[0])
			}

			out := cmd.OutOrStdout()
			for _, r := range matched {
				params, err := r.ExtractParams(args[0])
				if err != nil {
					return err
				}
				success(out, "%s %s", r, styleDim.Render("("+string(r.Kind)+" "+r.Component+")"))
				for _, name := range r.ParamNames {
					name = strings.TrimPrefix(name, router.RestPrefix)
					v, ok := params[name]
					if !ok {
						v = styleDim.Render("<absent>")
					}
					info(out, "%s = %s", name, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every matching route")
	return cmd
}

// formatParams renders params as name=value pairs in route order.
func formatParams(r *router.Route, params router.Params) string {
	pairs := make([]string, 0, len(r.ParamNames))
	for _, name := range r.ParamNames {
		name = strings.TrimPrefix(name, router.RestPrefix)
		if v, ok := params[name]; ok {
			pairs = append(pairs, name+"="+v)
		}
	}
	return strings.Join(pairs, " ")
}
