package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsbot_http_requests_total",
			Help: "Total number of HTTP requests processed by the bridge.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nsbot_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	ingestEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsbot_ingest_events_total",
			Help: "Total number of ingested message events by outcome.",
		},
		[]string{"result"},
	)
	ingestQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsbot_ingest_queue_depth",
			Help: "Number of message events waiting in the ingest queue.",
		},
	)
	gatewayEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsbot_gateway_events_total",
			Help: "Total number of gateway dispatch events by type.",
		},
		[]string{"type"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nsbot_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ingestEventsTotal,
		ingestQueueDepth,
		gatewayEventsTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncIngestEvent counts one processed ingest event by outcome
// ("stored", "duplicate", "normalize_error", "store_error", "dropped").
func IncIngestEvent(result string) {
	ingestEventsTotal.WithLabelValues(result).Inc()
}

// SetIngestQueueDepth reports the current queue backlog.
func SetIngestQueueDepth(depth int) {
	ingestQueueDepth.Set(float64(depth))
}

// IncGatewayEvent counts one gateway dispatch by event type.
func IncGatewayEvent(eventType string) {
	gatewayEventsTotal.WithLabelValues(eventType).Inc()
}

// IncAMQPPublishError counts one failed audit publish.
func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
