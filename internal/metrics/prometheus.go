package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podfacts_query_duration_seconds",
			Help:    "Query engine operation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podfacts_query_total",
			Help: "Total number of query engine operations",
		},
		[]string{"operation", "status"},
	)

	ResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podfacts_results_returned",
			Help:    "Number of records returned per list operation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"operation"},
	)

	OrphanedFactsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "podfacts_orphaned_facts_dropped_total",
			Help: "Facts dropped from listings because their episode does not exist",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podfacts_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podfacts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podfacts_websocket_connections",
			Help: "Open WebSocket connections",
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(ResultsReturned)
	prometheus.MustRegister(OrphanedFactsDropped)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(WebSocketConnections)
}

// ObserveQuery records the outcome of one query engine operation.
func ObserveQuery(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	QueryTotal.WithLabelValues(operation, status).Inc()
}

func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		code := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
		}

		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(code)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
