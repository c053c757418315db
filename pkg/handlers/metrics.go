// Prometheus instrumentation for the HTTP surface. The catalog client
// exports its own upstream counter; this file covers inbound requests.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Inbound HTTP requests by path, method and status.",
		},
		[]string{"path", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Inbound HTTP request latency by path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsPath normalizes a request path into a label value: the ID
// segment of the parameterized routes is replaced with a placeholder so
// the label cardinality stays bounded.
func metricsPath(p string) string {
	for _, prefix := range []string{"/api/artists/", "/api/profiles/"} {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || rest == "" {
			continue
		}
		if _, sub, found := strings.Cut(rest, "/"); found && sub != "" {
			return prefix + ":id/" + sub
		}
		return prefix + ":id"
	}
	return p
}

// Metrics wraps a handler with request counting and latency recording,
// labelled by the normalized route path.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := metricsPath(r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := prometheus.NewTimer(httpDuration.WithLabelValues(path))
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()
		httpRequests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
