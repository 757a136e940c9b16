package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ingestBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Bytes consumed by connection parsers.",
		},
	)
	ingestMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Decoded messages by schema.",
		},
		[]string{"type"},
	)
	ingestConnErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "ingest",
			Name:      "connection_errors_total",
			Help:      "Connections closed on a fatal error, by error class.",
		},
		[]string{"class"},
	)
	ingestConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "edgewire",
			Subsystem: "ingest",
			Name:      "active_connections",
			Help:      "Open ingest connections.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgewire",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ingestBytes, ingestMessages, ingestConnErrors, ingestConns, httpRequests, httpDuration)
	})
}

func RecordBytes(n int) {
	RegisterMetrics()
	ingestBytes.Add(float64(n))
}

func RecordMessage(msgType string) {
	RegisterMetrics()
	ingestMessages.WithLabelValues(msgType).Inc()
}

func RecordConnError(class string) {
	RegisterMetrics()
	ingestConnErrors.WithLabelValues(class).Inc()
}

func ConnOpened() {
	RegisterMetrics()
	ingestConns.Inc()
}

func ConnClosed() {
	RegisterMetrics()
	ingestConns.Dec()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
