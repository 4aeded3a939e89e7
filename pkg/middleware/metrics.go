package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "meridian").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "meridian",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the request and static path metrics. It implements
// staticpaths.Observer.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	lookupsTotal    *prometheus.CounterVec
	computedTotal   *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	pathsDeclared   *prometheus.GaugeVec
	fallbacksTotal  *prometheus.CounterVec
}

// NewMetrics registers the metrics on the configured registry.
// Registering twice on the same registry panics; use Default for the
// process-wide instance.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of requests by route template, method and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of pipeline errors by route and error code",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "code"}),

		lookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_paths_lookups_total",
			Help:        "Static path cache lookups by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		computedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_paths_computed_total",
			Help:        "Static path generator runs by component and status",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "status"}),

		computeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_paths_compute_duration_seconds",
			Help:        "Static path generator duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		pathsDeclared: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_paths_declared",
			Help:        "Number of valid static paths cached per component",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		fallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "static_paths_fallbacks_total",
			Help:        "Static path lookups that needed a linear scan",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),
	}
}

var (
	defaultMetrics   *Metrics
	defaultMetricsMu sync.Mutex
)

// Default returns the process-wide metrics, creating them with opts on
// first use. Later options are ignored.
func Default(opts ...MetricsOption) *Metrics {
	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = NewMetrics(opts...)
	}
	return defaultMetrics
}

// Prometheus returns middleware recording request metrics on the
// process-wide metrics.
//
// Metrics collected:
//   - meridian_requests_total: Counter by route template, method, status
//   - meridian_request_duration_seconds: Histogram by route template, method
//
// The route label is the matched route's template, or "unmatched". It is
// read from a router.MatchRecorder that the middleware places on the
// request context.
//
//	mux.Use(middleware.Prometheus())
//	mux.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	return Default(opts...).Middleware
}

// Middleware records request count and duration.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, rec := router.WithMatchRecorder(r.Context())
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))
		duration := time.Since(start).Seconds()

		route := rec.Label()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(duration)
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

// RecordError counts a pipeline error under its structured code, or
// "internal" for uncoded errors.
func (m *Metrics) RecordError(route string, err error) {
	if err == nil {
		return
	}
	code := merrors.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	m.errorsTotal.WithLabelValues(route, code).Inc()
}

// Lookup implements staticpaths.Observer.
func (m *Metrics) Lookup(component string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

// Computed implements staticpaths.Observer.
func (m *Metrics) Computed(component string, paths int, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.computedTotal.WithLabelValues(component, status).Inc()
	m.computeDuration.WithLabelValues(component).Observe(took.Seconds())
	if err == nil {
		m.pathsDeclared.WithLabelValues(component).Set(float64(paths))
	}
}

// Fallback implements staticpaths.Observer.
func (m *Metrics) Fallback(component string) {
	m.fallbacksTotal.WithLabelValues(component).Inc()
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
