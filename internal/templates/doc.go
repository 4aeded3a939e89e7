// Package templates provides project scaffolding templates.
//
// Each template writes a meridian.toml, a go.mod and a main.go that
// registers pages and endpoints with a meridian.App and mounts it on an
// HTTP server.
//
// # Available Templates
//
//   - minimal: one static page
//   - blog: dynamic pages with static paths, pagination and a feed
//   - api: JSON endpoints rendered on demand
//
// # Usage
//
//	tmpl, err := templates.Get("blog")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tmpl.Create(projectDir, templates.Config{ProjectName: "site"}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Template Variables
//
//	{{.ProjectName}}  - Name of the project
//	{{.ModulePath}}   - Go module path
//	{{.Description}}  - Project description
//	{{.Site}}         - Deployed origin, written to meridian.toml
//	{{.Port}}         - Port the generated server listens on
package templates
