// Точка входа Feedback Portal — веб-интерфейс сбора и модерации отзывов Pottd.
// Загружает конфигурацию, каталоги переводов, создаёт клиент внешнего API
// отзывов и хранилище изображений, запускает topologymetrics
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/pottd-feedback/internal/api/handlers"
	"github.com/bigkaa/pottd-feedback/internal/config"
	"github.com/bigkaa/pottd-feedback/internal/feedbackapi"
	"github.com/bigkaa/pottd-feedback/internal/imagestore"
	"github.com/bigkaa/pottd-feedback/internal/server"
	"github.com/bigkaa/pottd-feedback/internal/service"
	uihandlers "github.com/bigkaa/pottd-feedback/internal/ui/handlers"
	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
	"github.com/bigkaa/pottd-feedback/internal/ui/session"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Feedback Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	// 3. Каталоги переводов UI
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Клиент внешнего API отзывов
	apiClient, err := feedbackapi.New(feedbackapi.Options{
		BaseURL:    cfg.APIBaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.APITimeout,
		CACertPath: cfg.APICACertPath,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API отзывов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Хранилище изображений (опционально, если FP_S3_BUCKET задан)
	var uploader imagestore.Uploader
	s3Store, err := imagestore.NewS3Store(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка создания хранилища изображений", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if s3Store != nil {
		uploader = s3Store
		logger.Info("Загрузка изображений включена",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	} else {
		logger.Info("Загрузка изображений отключена (FP_S3_BUCKET не задан)")
	}

	// 6. topologymetrics — мониторинг API отзывов
	var dephealthSvc *service.DephealthService
	var apiChecker handlers.ReadinessChecker
	if cfg.DephealthEnabled {
		if os.Getenv("FP_DEPHEALTH_GROUP") == "" {
			logger.Warn("FP_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
				slog.String("default", cfg.DephealthGroup),
			)
		}

		svc, dhErr := service.NewDephealthService(
			"feedback-portal",
			cfg.DephealthGroup,
			cfg.APIBaseURL,
			cfg.DephealthHealthPath,
			cfg.APIKey,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dhErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dhErr.Error()),
			)
		} else if startErr := svc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			dephealthSvc = svc
			apiChecker = svc
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	} else {
		logger.Info("topologymetrics отключён (FP_DEPHEALTH_ENABLED=false)")
	}
	healthHandler := handlers.NewHealthHandler(apiChecker)

	// 7. UI-сессии: cookie + LRU контроллеров состояния
	sessionMgr, err := session.NewManager(cfg.SessionSecret, cfg.SecureCookie, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("FP_SESSION_SECRET не задан, UI-сессии не сохраняются между рестартами")
	}

	sessionStore := session.NewStore(cfg.SessionMax, cfg.SessionTTL, func() *service.Controller {
		return service.NewController(apiClient, uploader, nil, logger)
	})

	uiComponents := &server.UIComponents{
		SessionManager:   sessionMgr,
		SessionStore:     sessionStore,
		FormHandler:      uihandlers.NewFormHandler(cfg.ImageMaxBytes, logger),
		DashboardHandler: uihandlers.NewDashboardHandler(logger),
	}

	// 8. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, healthHandler, uiComponents)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	cancel()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Feedback Portal остановлен")
}
