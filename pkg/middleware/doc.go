// Package middleware provides net/http middleware for Meridian applications.
//
// This package includes:
//   - Prometheus request metrics, labelled by route template
//   - A Prometheus observer for the static path cache
//   - OpenTelemetry request tracing
//
// # Prometheus Metrics
//
// Request metrics are labelled with the matched route's template rather
// than the raw path, which keeps label cardinality bounded:
//
//	mux := chi.NewRouter()
//	mux.Use(middleware.Prometheus())
//	mux.Handle("/metrics", promhttp.Handler())
//	mux.Handle("/*", app)
//
// The same Metrics value observes the static path cache:
//
//	app := meridian.New(meridian.Config{Observer: middleware.Default()})
//
// # OpenTelemetry Middleware
//
// The tracing middleware starts a server span per request and names it
// after the route template once the app has matched:
//
//	mux.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("blog"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// Both middlewares learn the matched route through a router.MatchRecorder on
// the request context. When they are stacked they share one recorder.
package middleware
