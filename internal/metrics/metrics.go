// Package metrics provides Prometheus metrics for paydash.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paydash"

var (
	// RunsTotal counts pipeline runs by outcome and error kind.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Total number of refresh runs",
		},
		[]string{"status", "error_kind"},
	)

	// RunDuration measures pipeline run duration.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// RecordsLoaded tracks the number of retained payment records.
	RecordsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Number of payment records in the current snapshot",
		},
	)

	// TotalAmount tracks the summed payments in the current snapshot.
	TotalAmount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payments_total_amount",
			Help:      "Sum of payment amounts in the current snapshot",
		},
	)

	// LastSuccess is the unix time of the last successful refresh.
	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful refresh",
		},
	)

	// EventsPublished counts refresh events by sink and outcome.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of refresh events published",
		},
		[]string{"sink", "status"},
	)

	// HTTPRequests counts served requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "code"},
	)

	// WebsocketClients tracks connected dashboard sockets.
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		},
	)

	// CacheLookups counts rendered-partial cache lookups.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_cache_lookups_total",
			Help:      "Rendered partial cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordRunSuccess records a successful refresh.
func RecordRunSuccess(d time.Duration, records int, total float64, at time.Time) {
	RunsTotal.WithLabelValues("success", "").Inc()
	RunDuration.WithLabelValues("success").Observe(d.Seconds())
	RecordsLoaded.Set(float64(records))
	TotalAmount.Set(total)
	LastSuccess.Set(float64(at.Unix()))
}

// RecordRunFailure records a failed refresh.
func RecordRunFailure(d time.Duration, errorKind string) {
	RunsTotal.WithLabelValues("error", errorKind).Inc()
	RunDuration.WithLabelValues("error").Observe(d.Seconds())
}

// RecordPublish records a refresh event publish.
func RecordPublish(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(sink, status).Inc()
}

// RecordHTTP records a served request.
func RecordHTTP(method string, code int) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
