// Package meridian renders route-based sites on the server.
//
// An App holds a route table (from a manifest, a pages directory, or
// built in code) and the page components and endpoints the routes name.
// For each request it cleans the path, matches the first route, resolves
// the route's params and props against the static paths its generator
// declares, and renders the page or invokes the endpoint:
//
//	app := meridian.New(meridian.Config{SSR: true})
//	app.Page("index.templ", home, nil)
//	app.Page("blog/[slug].templ", post, postPaths)
//	app.Endpoint("feed.xml.go", feed, nil)
//	app.SetRoutes(router.NewTable(
//	    router.MustCompile("/", router.KindPage, "index.templ"),
//	    router.MustCompile("/feed.xml", router.KindEndpoint, "feed.xml.go"),
//	    router.MustCompile("/blog/[slug]", router.KindPage, "blog/[slug].templ"),
//	))
//	http.ListenAndServe(":4321", app)
//
// Static path generators run at most once per process per route. Reload
// clears them, for example after the data they read changed.
//
// The same App serves net/http (ServeHTTP), function hosts
// (FunctionHandler), and static export (pkg/export), which uses Routes,
// StaticPaths and Handle.
package meridian
