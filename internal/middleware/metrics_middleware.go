package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts requests to the local view surface.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests to the client gateway",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks latency of local view-surface requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight gauges concurrent local requests.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// BackendRequestsTotal counts calls to the Tsviyo backend API.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total requests to the Tsviyo backend API",
		},
		[]string{"endpoint", "status"},
	)

	// BackendRequestDuration tracks backend call latency.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Tsviyo backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RealtimeEventsTotal counts push events by type and how the state
	// machine disposed of them.
	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Realtime push events by type and outcome",
		},
		[]string{"event", "outcome"},
	)

	// MapsRequestsTotal counts calls to the Mapbox API.
	MapsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maps_requests_total",
			Help: "Total requests to the Mapbox API",
		},
		[]string{"endpoint", "status", "cached"},
	)
)

// PrometheusMiddleware collects metrics for the local view surface.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// TrackBackendRequest records one backend API call.
func TrackBackendRequest(endpoint, status string, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(endpoint, status).Inc()
	BackendRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// TrackRealtimeEvent records one push event and its disposition.
func TrackRealtimeEvent(event, outcome string) {
	RealtimeEventsTotal.WithLabelValues(event, outcome).Inc()
}

// TrackMapsRequest records one Mapbox API call.
func TrackMapsRequest(endpoint, status string, cached bool) {
	MapsRequestsTotal.WithLabelValues(endpoint, status, strconv.FormatBool(cached)).Inc()
}
