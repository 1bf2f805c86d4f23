// metrics.go — Prometheus-метрики исходящих запросов к API отзывов.
package feedbackapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы запроса (значения лейбла outcome).
const (
	outcomeSuccess        = "success"
	outcomeStatusError    = "status_error"
	outcomeTransportError = "transport_error"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_feedback_api_requests_total",
			Help: "Общее количество запросов к API отзывов",
		},
		[]string{"operation", "outcome"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fp_feedback_api_request_duration_seconds",
			Help:    "Длительность запросов к API отзывов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func observe(op, outcome string, start time.Time) {
	apiRequestsTotal.WithLabelValues(op, outcome).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
