package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "spacenexus",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacenexus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spacenexus",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	recordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacenexus",
			Subsystem: "records",
			Name:      "created_total",
			Help:      "Total number of records created per resource.",
		},
		[]string{"resource"},
	)

	uploadsStaged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacenexus",
			Subsystem: "uploads",
			Name:      "staged_total",
			Help:      "Total number of staged upload files per resource.",
		},
		[]string{"resource"},
	)

	uploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacenexus",
			Subsystem: "uploads",
			Name:      "rejected_total",
			Help:      "Total number of uploads rejected by policy per resource.",
		},
		[]string{"resource"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		recordsCreated,
		uploadsStaged,
		uploadsRejected,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordCreated counts a successful record creation.
func RecordCreated(resource string) {
	recordsCreated.WithLabelValues(resource).Inc()
}

// RecordUploadStaged counts a staged upload file.
func RecordUploadStaged(resource string) {
	uploadsStaged.WithLabelValues(resource).Inc()
}

// RecordUploadRejected counts an upload rejected by policy.
func RecordUploadRejected(resource string) {
	uploadsRejected.WithLabelValues(resource).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses record ids so the path label stays low
// cardinality.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] == "uploads" {
		return "/uploads"
	}
	if parts[0] != "api" || len(parts) < 2 {
		return "/" + parts[0]
	}
	resource := parts[1]
	if len(parts) == 2 {
		return "/api/" + resource
	}
	if _, err := strconv.Atoi(parts[2]); err == nil {
		rest := ""
		if len(parts) > 3 {
			rest = "/" + strings.Join(parts[3:], "/")
		}
		return "/api/" + resource + "/:id" + rest
	}
	return "/api/" + resource + "/" + parts[2]
}
