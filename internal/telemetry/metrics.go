package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SubmissionsReceived = prometheus.NewCounter(prometheus.CounterOpts{Name: "submissions_received_total", Help: "Submissions accepted by the orchestrator"})
	Delivered           = prometheus.NewCounter(prometheus.CounterOpts{Name: "submissions_delivered_total", Help: "Submissions delivered on first attempt"})
	DeliveryFailures    = prometheus.NewCounter(prometheus.CounterOpts{Name: "submissions_failed_total", Help: "First-attempt delivery failures queued for retry"})
	RetryAttempts       = prometheus.NewCounter(prometheus.CounterOpts{Name: "retry_attempts_total", Help: "Replay attempts made by the retry scheduler"})
	RetryFailures       = prometheus.NewCounter(prometheus.CounterOpts{Name: "retry_failures_total", Help: "Replay attempts that failed again"})
	RetryCycles         = prometheus.NewCounter(prometheus.CounterOpts{Name: "retry_cycles_total", Help: "Completed drain cycles"})
	RateLimitRejects    = prometheus.NewCounter(prometheus.CounterOpts{Name: "rate_limit_rejects_total", Help: "Submissions rejected by the rate limiter"})
	PendingDepth        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "pending_retry_depth", Help: "Entries currently in the pending-retry queue"})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"handler", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds", Buckets: prometheus.DefBuckets},
		[]string{"handler", "method"},
	)
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsReceived,
			Delivered,
			DeliveryFailures,
			RetryAttempts,
			RetryFailures,
			RetryCycles,
			RateLimitRejects,
			PendingDepth,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
	return promhttp.Handler()
}

// Instrument wraps an HTTP handler with request counting and latency tracking.
func Instrument(name string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		handler(wrapped, r)
		httpRequestDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(name, r.Method, strconv.Itoa(wrapped.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
