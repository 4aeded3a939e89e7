package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Hint     string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Route integrity (M001-M004)
	// ============================================

	"M001": {
		Category: CategoryRoute,
		Message:  "Invalid static paths result",
		Hint:     "Return a list of path objects, each with a params field.",
		DocURL:   "https://meridian.dev/docs/errors/M001",
	},
	"M002": {
		Category: CategoryRoute,
		Message:  "Invalid static path param type",
		Hint:     "Param values must be strings, numbers or nil (for an optional rest param).",
		DocURL:   "https://meridian.dev/docs/errors/M002",
	},
	"M003": {
		Category: CategoryRoute,
		Message:  "Route pattern matched, but no matching static path found",
		Hint:     "Add the missing params to the route's static paths, or enable server output.",
		DocURL:   "https://meridian.dev/docs/errors/M003",
	},
	"M004": {
		Category: CategoryRoute,
		Message:  "Static paths function required",
		Hint:     "Dynamic pages built ahead of time must declare a StaticPaths generator.",
		DocURL:   "https://meridian.dev/docs/errors/M004",
	},

	// ============================================
	// Render (M005, M007)
	// ============================================

	"M005": {
		Category: CategoryRender,
		Message:  "Redirect is not available in static output",
		Hint:     "Redirects need a request at runtime; enable server output to use them.",
		DocURL:   "https://meridian.dev/docs/errors/M005",
	},
	"M007": {
		Category: CategoryRender,
		Message:  "Component not registered",
		Hint:     "Register the component referenced by the route table with App.Page or App.Endpoint.",
		DocURL:   "https://meridian.dev/docs/errors/M007",
	},

	// ============================================
	// Endpoint (M006)
	// ============================================

	"M006": {
		Category: CategoryEndpoint,
		Message:  "Endpoint handler not found",
		Hint:     "Export a handler named after the request method, or an \"all\" handler.",
		DocURL:   "https://meridian.dev/docs/errors/M006",
	},

	// ============================================
	// Manifest and config (M008-M010)
	// ============================================

	"M008": {
		Category: CategoryManifest,
		Message:  "Invalid route definition",
		DocURL:   "https://meridian.dev/docs/errors/M008",
	},
	"M009": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Hint:     "Check meridian.json (or meridian.toml) in the project root.",
		DocURL:   "https://meridian.dev/docs/errors/M009",
	},
	"M010": {
		Category: CategoryManifest,
		Message:  "Invalid route manifest",
		Hint:     "Regenerate the manifest with `meridian manifest`.",
		DocURL:   "https://meridian.dev/docs/errors/M010",
	},

	// ============================================
	// Scaffolding (M011)
	// ============================================

	"M011": {
		Category: CategoryConfig,
		Message:  "Unknown project template",
		Hint:     "Run `meridian init --list` to see the available templates.",
		DocURL:   "https://meridian.dev/docs/errors/M011",
	},
}

// AllCodes returns all registered error codes, sorted.
func AllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
