// Пакет server — HTTP-сервер Feedback Portal с graceful shutdown.
// Без TLS: TLS termination выполняется на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/pottd-feedback/internal/api/handlers"
	"github.com/bigkaa/pottd-feedback/internal/api/middleware"
	"github.com/bigkaa/pottd-feedback/internal/config"
	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
	uihandlers "github.com/bigkaa/pottd-feedback/internal/ui/handlers"
	"github.com/bigkaa/pottd-feedback/internal/ui/session"
	"github.com/bigkaa/pottd-feedback/internal/ui/static"
)

// UIComponents — компоненты UI, передаваемые в сервер.
type UIComponents struct {
	SessionManager   *session.Manager
	SessionStore     *session.Store
	FormHandler      *uihandlers.FormHandler
	DashboardHandler *uihandlers.DashboardHandler
}

// Server — HTTP-сервер Feedback Portal.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, health *handlers.HealthHandler, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, health, ui),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты: health и metrics без сессии,
// статика без сессии, страницы UI с сессией и языком.
func NewRouter(logger *slog.Logger, health *handlers.HealthHandler, ui *UIComponents) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(session.Middleware(ui.SessionManager, ui.SessionStore, logger))

		r.Get("/", uihandlers.HandleIndex(logger))
		r.Get("/submit", ui.FormHandler.HandleForm)
		r.Post("/submit", ui.FormHandler.HandleSubmit)
		r.Get("/dashboard", ui.DashboardHandler.HandleDashboard)
		r.Post("/dashboard/refresh", ui.DashboardHandler.HandleRefresh)

		r.Route("/feedback/{id}", func(r chi.Router) {
			r.Post("/edit", ui.DashboardHandler.HandleEdit)
			r.Get("/delete", ui.DashboardHandler.HandleDeleteConfirm)
			r.Post("/delete", ui.DashboardHandler.HandleDelete)
			r.Post("/moderate", ui.DashboardHandler.HandleModerate)
		})

		r.Post("/notification/dismiss", uihandlers.HandleDismiss(logger))
		r.Post("/set-language", uihandlers.HandleSetLanguage)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
