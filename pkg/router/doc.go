// Package router implements the route table and matcher for Meridian.
//
// A route couples a compiled pattern with the ordered parameter names it
// captures, the component that renders it, and its kind (page or
// endpoint). Routes come from three places:
//
//   - Compile, which turns a template such as /blog/[slug] into a Route
//   - a build manifest, decoded from JSON or msgpack
//   - a Scanner walking a directory tree of page files
//
// # Templates
//
// Dynamic segments use bracket or colon syntax:
//
//	/blog/[slug]       → /blog/:slug
//	/docs/[...path]    → /docs/*path (rest, consumes the remainder)
//	/posts/[id]-[lang] → two params within one segment
//
// A rest parameter matches zero or more segments. When it matches nothing
// the parameter is absent from Params, which is distinct from an empty
// string.
//
// # Matching
//
// Table.Match returns the first route in declaration order whose pattern
// matches the pathname. The table never re-sorts; ordering by specificity
// is the job of whoever builds the table (the Scanner does this).
//
//	table := router.NewTable(routes...)
//	route := table.Match("/blog/hello-world")
//	params, err := route.ExtractParams("/blog/hello-world")
package router
