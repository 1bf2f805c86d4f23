// Пакет feedbackapi — HTTP-клиент внешнего API отзывов.
// Операции: List (GET /fetch), Create (POST /submit), Update (PUT /put),
// Remove (DELETE /delete), Moderate (POST /admin).
// Каждый запрос несёт заголовки Content-Type: application/json и x-api-key.
// Повторов нет: любая ошибка завершает операцию.
package feedbackapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
)

// Имена операций (используются в логах, метриках и ошибках).
const (
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpRemove   = "remove"
	OpModerate = "moderate"
)

// Пути endpoints относительно базового URL.
const (
	pathFetch  = "/fetch"
	pathSubmit = "/submit"
	pathPut    = "/put"
	pathDelete = "/delete"
	pathAdmin  = "/admin"
)

// Максимальный размер тела ошибки, попадающего в лог.
const maxErrorBody = 4 << 10

// Client — HTTP-клиент API отзывов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string //nolint:gosec // G101: поле структуры, значение из конфигурации
	logger     *slog.Logger
}

// Options — параметры создания клиента.
type Options struct {
	// BaseURL — базовый URL API (например, https://xxx.execute-api.eu-west-2.amazonaws.com/prod)
	BaseURL string
	// APIKey — статический ключ для заголовка x-api-key
	APIKey string
	// Timeout — таймаут одного запроса (0 — без таймаута клиента)
	Timeout time.Duration
	// CACertPath — путь к CA-сертификату (пустая строка — системный пул)
	CACertPath string
	// HTTPClient — готовый клиент (для тестов); имеет приоритет над Timeout и CACertPath
	HTTPClient *http.Client
}

// New создаёт клиент API отзывов.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("feedbackapi: пустой базовый URL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}

		if opts.CACertPath != "" {
			tlsConfig, err := buildTLSConfig(opts.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
			}
			httpClient.Transport = &http.Transport{
				TLSClientConfig: tlsConfig,
			}
			logger.Info("CA-сертификат API добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		logger:     logger.With(slog.String("component", "feedback_api")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("CA-сертификат %s не содержит PEM-блоков", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// --- Тела запросов ---

// submitRequest — тело POST /submit и PUT /put.
type submitRequest struct {
	ID           *model.RecordID `json:"id,omitempty"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Category     model.Category  `json:"category"`
	Rating       int             `json:"rating"`
	Feedback     string          `json:"feedback"`
	UploadImages []string        `json:"uploadImages"`
}

func newSubmitRequest(id *model.RecordID, s model.Submission) submitRequest {
	images := s.Images
	if images == nil {
		images = []string{}
	}
	return submitRequest{
		ID:           id,
		Name:         s.Name,
		Email:        s.Email,
		Category:     s.Category,
		Rating:       s.Rating,
		Feedback:     s.Feedback,
		UploadImages: images,
	}
}

// idRequest — тело DELETE /delete.
type idRequest struct {
	ID model.RecordID `json:"id"`
}

// moderateRequest — тело POST /admin.
type moderateRequest struct {
	ID     model.RecordID `json:"id"`
	Action model.Action   `json:"action"`
}

// listEnvelope — альтернативная форма ответа GET /fetch.
type listEnvelope struct {
	Feedback []json.RawMessage `json:"feedback"`
}

// --- Операции ---

// List запрашивает всю коллекцию отзывов.
// GET /fetch — ответ либо массив, либо объект с полем feedback.
func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, pathFetch, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	records, err := c.decodeList(body)
	if err != nil {
		c.logger.Error("Некорректный ответ GET /fetch",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: декодирование ответа: %w", OpList, err)
	}

	c.logger.Debug("Коллекция отзывов получена", slog.Int("count", len(records)))
	return records, nil
}

// Create отправляет новый отзыв. Сервер назначает id, status и createdAt.
// POST /submit — успех 200 или 201.
func (c *Client) Create(ctx context.Context, s model.Submission) error {
	_, err := c.do(ctx, OpCreate, http.MethodPost, pathSubmit,
		newSubmitRequest(nil, s), http.StatusOK, http.StatusCreated)
	return err
}

// Update заменяет существующий отзыв; id передаётся в теле.
// PUT /put — успех 200.
func (c *Client) Update(ctx context.Context, id model.RecordID, s model.Submission) error {
	_, err := c.do(ctx, OpUpdate, http.MethodPut, pathPut,
		newSubmitRequest(&id, s), http.StatusOK)
	return err
}

// Remove удаляет отзыв; id передаётся в теле.
// DELETE /delete — успех 200.
func (c *Client) Remove(ctx context.Context, id model.RecordID) error {
	_, err := c.do(ctx, OpRemove, http.MethodDelete, pathDelete,
		idRequest{ID: id}, http.StatusOK)
	return err
}

// Moderate выполняет действие модерации (approve, reject, flag).
// POST /admin — успех 200.
func (c *Client) Moderate(ctx context.Context, id model.RecordID, action model.Action) error {
	if !action.Valid() {
		return fmt.Errorf("%s: недопустимое действие %q", OpModerate, action)
	}
	_, err := c.do(ctx, OpModerate, http.MethodPost, pathAdmin,
		moderateRequest{ID: id, Action: action}, http.StatusOK)
	return err
}

// do выполняет один запрос и возвращает тело ответа при успешном статусе.
// payload == nil — запрос без тела.
func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	payload any,
	okStatuses ...int,
) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: сериализация запроса: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: создание запроса: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		observe(op, outcomeTransportError, start)
		c.logger.Error("Ошибка соединения с API отзывов",
			slog.String("operation", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(op, outcomeTransportError, start)
		return nil, fmt.Errorf("%s: чтение ответа: %w: %w", op, ErrUnavailable, err)
	}

	for _, ok := range okStatuses {
		if resp.StatusCode == ok {
			observe(op, outcomeSuccess, start)
			return body, nil
		}
	}

	observe(op, outcomeStatusError, start)
	statusErr := &StatusError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body), maxErrorBody),
	}
	c.logger.Error("API отзывов вернул ошибку",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("body", statusErr.Body),
	)
	return nil, statusErr
}

// decodeList разбирает ответ GET /fetch: массив или {"feedback": [...]}.
// Объект без поля feedback трактуется как пустая коллекция.
// Записи декодируются по одной: нераспознанная запись пропускается с предупреждением.
func (c *Client) decodeList(body []byte) ([]model.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("пустое тело ответа")
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
	case '{':
		var env listEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		items = env.Feedback
	case 'n':
		if string(trimmed) == "null" {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("неожиданная форма ответа: %q", truncate(string(trimmed), 64))
	default:
		return nil, fmt.Errorf("неожиданная форма ответа: %q", truncate(string(trimmed), 64))
	}

	records := make([]model.Record, 0, len(items))
	for i, raw := range items {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn("Запись отзыва пропущена",
				slog.Int("index", i),
				slog.String("error", err.Error()),
				slog.String("raw", truncate(string(raw), 128)),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
