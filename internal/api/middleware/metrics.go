// metrics.go — Prometheus HTTP метрики Feedback Portal.
// Регистрирует метрики: fp_http_requests_total, fp_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_http_requests_total",
			Help: "Общее количество HTTP-запросов к Feedback Portal",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fp_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Feedback Portal в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware собирает количество и длительность запросов по endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath заменяет идентификатор отзыва на {id} и сворачивает
// статику и неизвестные пути для ограничения кардинальности метрик.
// /feedback/42/moderate → /feedback/{id}/moderate
func normalizePath(path string) string {
	switch path {
	case "/", "/submit", "/dashboard", "/dashboard/refresh",
		"/notification/dismiss", "/set-language",
		"/health/live", "/health/ready", "/metrics":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	if rest, ok := strings.CutPrefix(path, "/feedback/"); ok {
		if i := strings.LastIndex(rest, "/"); i > 0 {
			switch suffix := rest[i:]; suffix {
			case "/edit", "/delete", "/moderate":
				return "/feedback/{id}" + suffix
			}
		}
		return "/feedback/{id}"
	}

	return "other"
}
