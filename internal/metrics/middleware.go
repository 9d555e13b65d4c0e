package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, so raw paths never become label values.
const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = histogramVec("http_request_duration_seconds", "HTTP request duration in seconds",
		[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		"method", "route", "status")

	httpRequestsTotal = counterVec("http_requests_total", "Total number of HTTP requests",
		"method", "route", "status")

	// uploaded log text dominates request sizes
	httpRequestSize = histogramVec("http_request_size_bytes", "HTTP request body size in bytes",
		prometheus.ExponentialBuckets(256, 4, 9), // 256B .. 16MiB
		"route")
)

var httpGroup = group{collectors: []prometheus.Collector{httpRequestDuration, httpRequestsTotal, httpRequestSize}}

// RegisterHTTPMetrics registers the HTTP collectors. Safe to call repeatedly.
func RegisterHTTPMetrics() { httpGroup.register() }

// Middleware records duration, count and body size per chi route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routeLabel(r)
			status := strconv.Itoa(statusOf(ww))
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			if r.ContentLength > 0 {
				httpRequestSize.WithLabelValues(route).Observe(float64(r.ContentLength))
			}
		})
	}
}

func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww chiMiddleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
