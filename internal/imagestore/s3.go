// Пакет imagestore — загрузка изображений отзывов в S3-совместимое хранилище.
// Объект сохраняется под ключом <prefix><uuid><ext>; в черновик попадает
// постоянный публичный URL объекта.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/bigkaa/pottd-feedback/internal/config"
)

// Ошибки загрузки.
var (
	// ErrNotImage — тип содержимого не image/*.
	ErrNotImage = errors.New("файл не является изображением")
	// ErrTooLarge — файл превышает допустимый размер.
	ErrTooLarge = errors.New("файл слишком большой")
	// ErrEmpty — пустой файл.
	ErrEmpty = errors.New("пустой файл")
)

// Uploader сохраняет изображение и возвращает его постоянный URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// putObjectAPI — подмножество S3-клиента, используемое хранилищем.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store — Uploader поверх S3.
type S3Store struct {
	client    putObjectAPI
	bucket    string
	prefix    string
	publicURL string
	maxBytes  int64
	newKey    func() string
	logger    *slog.Logger
}

// NewS3Store создаёт хранилище из конфигурации.
// Возвращает nil без ошибки, если бакет не задан (загрузка изображений отключена).
func NewS3Store(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Store, error) {
	if !cfg.ImagesEnabled() {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("загрузка конфигурации AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO и другие совместимые хранилища не поддерживают virtual-host адресацию
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = defaultPublicURL(cfg.S3Endpoint, cfg.S3Bucket, cfg.S3Region)
	}

	logger.Info("Хранилище изображений S3 инициализировано",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
		slog.String("endpoint", cfg.S3Endpoint),
		slog.String("public_url", publicURL),
	)

	return newS3Store(client, cfg.S3Bucket, cfg.S3KeyPrefix, publicURL, cfg.ImageMaxBytes, logger), nil
}

func newS3Store(client putObjectAPI, bucket, prefix, publicURL string, maxBytes int64, logger *slog.Logger) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		newKey:    func() string { return uuid.New().String() },
		logger:    logger.With(slog.String("component", "imagestore")),
	}
}

// defaultPublicURL строит базовый URL объектов бакета.
// С кастомным endpoint используется path-style: <endpoint>/<bucket>.
func defaultPublicURL(endpoint, bucket, region string) string {
	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

// Upload проверяет тип и размер файла, сохраняет его и возвращает публичный URL.
// size < 0 — размер неизвестен; тогда файл читается целиком с ограничением maxBytes.
func (s *S3Store) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%s (%q): %w", filename, contentType, ErrNotImage)
	}
	if size == 0 {
		return "", fmt.Errorf("%s: %w", filename, ErrEmpty)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", fmt.Errorf("%s: %d байт при лимите %d: %w", filename, size, s.maxBytes, ErrTooLarge)
	}

	body := r
	if size < 0 {
		data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
		if err != nil {
			return "", fmt.Errorf("чтение %s: %w", filename, err)
		}
		if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
			return "", fmt.Errorf("%s: %w", filename, ErrTooLarge)
		}
		if len(data) == 0 {
			return "", fmt.Errorf("%s: %w", filename, ErrEmpty)
		}
		size = int64(len(data))
		body = bytes.NewReader(data)
	}

	key := s.prefix + s.newKey() + extension(filename, mediaType)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(mediaType),
	})
	if err != nil {
		s.logger.Error("Ошибка загрузки изображения в S3",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("загрузка %s в S3: %w", filename, err)
	}

	s.logger.Info("Изображение загружено",
		slog.String("key", key),
		slog.Int64("size", size),
		slog.String("content_type", mediaType),
	)
	return s.objectURL(key), nil
}

// objectURL экранирует сегменты ключа.
func (s *S3Store) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + strings.Join(segments, "/")
}

// extension берёт расширение из имени файла, иначе из типа содержимого.
func extension(filename, mediaType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
