package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
)

type metrics struct {
	BookmarksSaved         *prometheus.CounterVec
	Classifications        *prometheus.CounterVec
	MetadataFetches        *prometheus.CounterVec
	MetadataFetchDuration  *prometheus.HistogramVec
	RequestDuration        *prometheus.HistogramVec
	DBPoolActive           prometheus.GaugeFunc
	DBPoolIdle             prometheus.GaugeFunc
	RequestsInFlight       prometheus.Gauge
	CacheHits              prometheus.Counter
	CacheMisses            prometheus.Counter
	AutoCategorizeDuration prometheus.Histogram
}

// Metrics holds all Prometheus collectors for the BookMyWebs backend. The
// collectors exist from package init; InitMetrics registers them.
var Metrics = newMetrics()

func newMetrics() *metrics {
	return &metrics{
		BookmarksSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmywebs_bookmarks_saved_total",
				Help: "Total bookmarks saved, by source (create, import).",
			},
			[]string{"source"},
		),
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmywebs_classifications_total",
				Help: "Total classifier decisions, by resulting category.",
			},
			[]string{"category"},
		),
		MetadataFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmywebs_metadata_fetches_total",
				Help: "Metadata fetch attempts, by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		),
		MetadataFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookmywebs_metadata_fetch_duration_seconds",
				Help:    "Duration of metadata fetch attempts, by strategy.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookmywebs_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by endpoint and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookmywebs_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bookmywebs_cache_hits_total",
				Help: "Total metadata cache hits.",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bookmywebs_cache_misses_total",
				Help: "Total metadata cache misses.",
			},
		),
		AutoCategorizeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookmywebs_auto_categorize_duration_seconds",
				Help:    "Duration of bulk auto-categorisation runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool) {
	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "bookmywebs_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "bookmywebs_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.BookmarksSaved,
		Metrics.Classifications,
		Metrics.MetadataFetches,
		Metrics.MetadataFetchDuration,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
		Metrics.AutoCategorizeDuration,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings before c.Next(): Fiber
		// returns slices backed by the fasthttp buffer which handlers may
		// reuse (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case path == "/api/bookmarks/auto-categorize":
		return path
	case strings.HasPrefix(path, "/api/bookmarks/") && strings.HasSuffix(path, "/category"):
		return "/api/bookmarks/:id/category"
	case strings.HasPrefix(path, "/api/bookmarks/"):
		return "/api/bookmarks/:id"
	case path == "/api/categories/definitions":
		return path
	case strings.HasPrefix(path, "/api/categories/"):
		return "/api/categories/:name"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

type fetchObserver struct{}

// MetadataObserver reports metadata fetch outcomes and cache lookups to
// Metrics.
func MetadataObserver() metadata.Observer {
	return fetchObserver{}
}

func (fetchObserver) ObserveFetch(strategy string, ok bool, elapsed time.Duration) {
	outcome := "error"
	if ok {
		outcome = "success"
	}
	Metrics.MetadataFetches.WithLabelValues(strategy, outcome).Inc()
	Metrics.MetadataFetchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

func (fetchObserver) ObserveCache(hit bool) {
	if hit {
		Metrics.CacheHits.Inc()
		return
	}
	Metrics.CacheMisses.Inc()
}
