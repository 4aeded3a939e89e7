// Package render turns page components into HTML documents.
//
// A component's Render function returns a Fragment, a closed set of
// values the renderer knows how to drain:
//
//   - Text is escaped, HTML is trusted
//   - List renders its items in order
//   - Func is invoked and its result rendered
//   - Go starts work immediately and is awaited in place; its function
//     gets a context canceled with the request
//   - Value renders primitives (nil, false and "" render nothing, 0 renders "0")
//   - Render nests another component with its own props and slots
//   - Templ renders a templ.Component
//
// Rendering is depth-first and order-preserving: a Go fragment that
// finishes after a later sibling still appears before it.
//
// # Head assets
//
// Components declare the links, styles and scripts they need. Every
// component rendered for a page contributes to one de-duplicated set. Once
// the body is complete the set is rendered and spliced in at the first
// HeadMarker, or prepended when the page has none:
//
//	html := render.List(
//	    render.HTML("<html><head>"), render.HeadSlot(), render.HTML("</head><body>"),
//	    render.Text(props["title"]),
//	    render.HTML("</body></html>"),
//	)
//
// # Responses
//
// A render function may return a *result.Response as its error. This is
// not a failure: the page stops and the response is sent as-is. Any other
// error propagates unchanged.
package render
