// Package errors provides structured, coded errors for Meridian.
//
// Every failure the rendering pipeline reports on purpose carries a code
// (e.g. "M003") that maps to a short message, a longer explanation and a
// documentation URL. The underlying cause is kept as the wrapped error, so
// errors.Is and errors.As keep working against the public sentinels exported
// by the owning packages (staticpaths, endpoint, render, router).
//
// # Error Categories
//
//   - route: a route's own declaration is malformed (static paths, params)
//   - render: a page could not be rendered as requested
//   - endpoint: an API route could not dispatch the request
//   - manifest: the route table could not be loaded
//   - config: the project configuration is invalid
//
// # Usage
//
//	err := errors.New("M003").
//	    WithDetail(fmt.Sprintf("no static path for %s", pathname)).
//	    Wrap(staticpaths.ErrNoMatchingStaticPath)
//
//	fmt.Fprint(os.Stderr, err.Format())
package errors
