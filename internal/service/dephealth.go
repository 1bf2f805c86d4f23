// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Feedback Portal мониторит одну зависимость:
//   - feedback-api — HTTP checker к внешнему API отзывов (FP_DEPHEALTH_HEALTH_PATH)
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для API отзывов
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// feedbackAPIDep — имя зависимости в метриках.
	feedbackAPIDep = "feedback-api"

	apiKeyHeader = "x-api-key"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     healthSource
	logger *slog.Logger
}

// healthSource — подмножество dephealth.DepHealth.
type healthSource interface {
	Start(ctx context.Context) error
	Stop()
	Health() map[string]bool
}

// NewDephealthService создаёт сервис мониторинга API отзывов.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения ("feedback-portal")
//   - group — имя группы в метриках (FP_DEPHEALTH_GROUP)
//   - apiBaseURL — базовый URL API отзывов
//   - healthPath — path проверки относительно хоста API
//   - apiKey — значение заголовка x-api-key (API Gateway отклоняет запросы без него)
//   - checkInterval — интервал проверки (FP_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	apiBaseURL string,
	healthPath string,
	apiKey string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, apiBaseURL, healthPath, apiKey, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	apiBaseURL string,
	healthPath string,
	apiKey string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, apiBaseURL, healthPath, apiKey, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	apiBaseURL string,
	healthPath string,
	apiKey string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(apiBaseURL),
		dephealth.WithHTTPHealthPath(apiHealthPath(apiBaseURL, healthPath)),
		dephealth.CheckInterval(checkInterval),
		// API отзывов некритичен для readiness: без него UI продолжает
		// отдавать страницы и показывает ошибку соединения.
		dephealth.Critical(false),
	}
	if apiKey != "" {
		depOpts = append(depOpts, dephealth.WithHTTPHeaders(map[string]string{apiKeyHeader: apiKey}))
	}

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(feedbackAPIDep, depOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание dephealth: %w", err)
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// apiHealthPath дополняет path проверки префиксом пути базового URL
// (например, стадией API Gateway "/prod").
func apiHealthPath(apiBaseURL, healthPath string) string {
	rest := apiBaseURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	prefix := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		prefix = strings.TrimRight(rest[i:], "/")
	}
	return prefix + healthPath
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (feedback-api)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CheckReady реализует проверку готовности для /health/ready.
// Недоступный API отзывов даёт "degraded": страницы продолжают работать.
func (ds *DephealthService) CheckReady() (status string, message string) {
	health := ds.dh.Health()
	if len(health) == 0 {
		return "ok", "проверки ещё не выполнялись"
	}

	var failed []string
	for name, ok := range health {
		if !ok {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return "ok", ""
	}
	sort.Strings(failed)
	return "degraded", "недоступны: " + strings.Join(failed, ", ")
}
