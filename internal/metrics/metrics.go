// README: Prometheus collectors for HTTP traffic and trip lifecycle activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	TripTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_transitions_total",
			Help: "Trip state changes by outcome",
		},
		[]string{"to", "result"},
	)

	FareQuotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_quotes_total",
			Help: "Total number of fare quotes served",
		},
	)

	SurgeMultiplier = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fare_surge_multiplier",
			Help:    "Surge multiplier applied to quoted fares",
			Buckets: []float64{1, 1.1, 1.25, 1.5, 2, 3, 5},
		},
	)

	TripEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_events_published_total",
			Help: "Trip status messages published to RabbitMQ",
		},
		[]string{"status"},
	)

	RankingCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_cache_requests_total",
			Help: "Trending driver cache lookups by result",
		},
		[]string{"result"},
	)
)

func RecordHTTP(method, path string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordTransition(to string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	TripTransitionsTotal.WithLabelValues(to, result).Inc()
}

func RecordPublish(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TripEventsPublished.WithLabelValues(status).Inc()
}

// RecordPublishDropped counts notifications discarded before reaching the broker.
func RecordPublishDropped() {
	TripEventsPublished.WithLabelValues("dropped").Inc()
}
