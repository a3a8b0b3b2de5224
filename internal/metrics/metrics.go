// Package metrics exposes Prometheus metrics for the scheduling service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Custom registry to avoid the default Go collectors.
var registry = prometheus.NewRegistry()

var (
	eligibilityEvaluations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Subsystem: "engine",
		Name:      "eligibility_evaluations_total",
		Help:      "Eligibility evaluations by resulting reason",
	}, []string{"reason"})

	activityRecords = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Subsystem: "ledger",
		Name:      "activity_records_total",
		Help:      "Activity ledger records written, by kind",
	}, []string{"kind"})

	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code",
	}, []string{"method", "code"})

	httpDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cadence",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// EligibilityEvaluated records one evaluation outcome.
func EligibilityEvaluated(reason string) {
	eligibilityEvaluations.WithLabelValues(reason).Inc()
}

// ActivityRecorded records one ledger write.
func ActivityRecorded(kind string) {
	activityRecords.WithLabelValues(kind).Inc()
}

// Handler serves the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request count and latency collection.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
