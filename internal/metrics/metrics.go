// Package metrics provides Prometheus metrics for the simviewer server.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simviewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simviewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simviewer_scans_total",
			Help: "Total directory scans",
		},
		[]string{"status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simviewer_scan_duration_seconds",
			Help:    "Time to walk a root and collect sim-requests files",
			Buckets: prometheus.DefBuckets,
		},
	)

	scanFilesFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simviewer_scan_files_found",
			Help:    "Number of sim-requests files returned per scan",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	filesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simviewer_files_skipped_total",
			Help: "Files or directories skipped during discovery",
		},
		[]string{"reason"},
	)

	// File read metrics
	fileReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simviewer_file_reads_total",
			Help: "Total sim-requests file reads",
		},
		[]string{"status"},
	)

	fileBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simviewer_file_bytes_served_total",
			Help: "Total bytes served from the file endpoint",
		},
	)

	// Event stream metrics
	eventStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simviewer_event_streams_active",
			Help: "Number of open change event streams",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simviewer_events_total",
			Help: "Total change events published",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordScan records a completed directory scan.
func RecordScan(found int, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	scansTotal.WithLabelValues(status).Inc()
	if success {
		scanDuration.Observe(duration.Seconds())
		scanFilesFound.Observe(float64(found))
	}
}

// RecordFileSkipped records a path skipped during discovery.
func RecordFileSkipped(reason string) {
	filesSkipped.WithLabelValues(reason).Inc()
}

// RecordFileRead records a file endpoint result.
func RecordFileRead(bytes int64, status string) {
	fileReadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		fileBytesServed.Add(float64(bytes))
	}
}

// StreamOpened increments the active event stream gauge.
func StreamOpened() {
	eventStreamsActive.Inc()
}

// StreamClosed decrements the active event stream gauge.
func StreamClosed() {
	eventStreamsActive.Dec()
}

// RecordEvent records a published change event.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// Route collapses request paths into a bounded label set.
func Route(path string) string {
	if strings.HasPrefix(path, "/api/") {
		switch path {
		case "/api/scan", "/api/file", "/api/events", "/api/health":
			return path
		}
	}
	return "static"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, Route(r.URL.Path), rw.statusCode, time.Since(start))
	})
}
