// Пакет config — загрузка и валидация конфигурации Feedback Portal
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Feedback Portal.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration

	// --- Feedback API ---

	// Базовый URL внешнего API отзывов (без завершающего /)
	APIBaseURL string
	// Статический ключ, передаётся в заголовке x-api-key
	APIKey string
	// Таймаут одного запроса к API
	APITimeout time.Duration
	// Путь к CA-сертификату API (пустая строка — системный пул)
	APICACertPath string

	// --- UI-сессии ---

	// Секрет шифрования session cookie (пустой — случайный ключ на процесс)
	SessionSecret string
	// Время жизни состояния сессии без обращений
	SessionTTL time.Duration
	// Максимальное количество одновременно хранимых сессий
	SessionMax int
	// Secure flag для session cookie
	SecureCookie bool

	// --- Хранилище изображений (S3) ---

	// Bucket для изображений. Пустой — загрузка изображений отключена.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	// Публичный базовый URL объектов (если пусто — вычисляется из endpoint/region)
	S3PublicURL string
	S3KeyPrefix string
	// Максимальный размер одного изображения в байтах
	ImageMaxBytes int64

	// --- topologymetrics ---

	DephealthEnabled       bool
	DephealthGroup         string
	DephealthCheckInterval time.Duration
	DephealthHealthPath    string
}

// ImagesEnabled сообщает, настроено ли хранилище изображений.
func (c *Config) ImagesEnabled() bool {
	return c.S3Bucket != ""
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("FP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FP_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FP_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("FP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FP_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("FP_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("FP_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("FP_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("FP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Feedback API ---

	baseURL, err := getEnvRequired("FP_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("FP_API_BASE_URL: некорректный URL %q", baseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(baseURL, "/")

	cfg.APIKey, err = getEnvRequired("FP_API_KEY")
	if err != nil {
		return nil, err
	}

	cfg.APITimeout, err = getEnvDuration("FP_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_API_TIMEOUT: %w", err)
	}
	cfg.APICACertPath = os.Getenv("FP_API_CA_CERT_PATH")

	// --- UI-сессии ---

	cfg.SessionSecret = os.Getenv("FP_SESSION_SECRET")
	cfg.SessionTTL, err = getEnvDuration("FP_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FP_SESSION_TTL: %w", err)
	}
	cfg.SessionMax, err = getEnvInt("FP_SESSION_MAX", 10000)
	if err != nil {
		return nil, fmt.Errorf("FP_SESSION_MAX: %w", err)
	}
	if cfg.SessionMax <= 0 {
		return nil, fmt.Errorf("FP_SESSION_MAX: значение должно быть > 0")
	}
	cfg.SecureCookie, err = getEnvBool("FP_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("FP_SECURE_COOKIE: %w", err)
	}

	// --- S3 ---

	cfg.S3Bucket = os.Getenv("FP_S3_BUCKET")
	cfg.S3Region = getEnvDefault("FP_S3_REGION", "us-east-1")
	cfg.S3Endpoint = strings.TrimRight(os.Getenv("FP_S3_ENDPOINT"), "/")
	cfg.S3AccessKey = os.Getenv("FP_S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("FP_S3_SECRET_KEY")
	if (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
		return nil, fmt.Errorf("FP_S3_ACCESS_KEY и FP_S3_SECRET_KEY задаются только вместе")
	}
	cfg.S3PublicURL = strings.TrimRight(os.Getenv("FP_S3_PUBLIC_URL"), "/")
	cfg.S3KeyPrefix = getEnvDefault("FP_S3_KEY_PREFIX", "feedback-images/")

	maxBytes, err := getEnvInt("FP_IMAGE_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("FP_IMAGE_MAX_BYTES: %w", err)
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("FP_IMAGE_MAX_BYTES: значение должно быть > 0")
	}
	cfg.ImageMaxBytes = int64(maxBytes)

	// --- topologymetrics ---

	cfg.DephealthEnabled, err = getEnvBool("FP_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("FP_DEPHEALTH_ENABLED: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("FP_DEPHEALTH_GROUP", "pottd")
	cfg.DephealthCheckInterval, err = getEnvDuration("FP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthHealthPath = getEnvDefault("FP_DEPHEALTH_HEALTH_PATH", "/fetch")
	if !strings.HasPrefix(cfg.DephealthHealthPath, "/") {
		return nil, fmt.Errorf("FP_DEPHEALTH_HEALTH_PATH: путь должен начинаться с /")
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
