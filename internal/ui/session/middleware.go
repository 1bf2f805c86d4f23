// middleware.go — привязка запроса к контроллеру сессии.
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/pottd-feedback/internal/service"
)

type contextKey string

const contextKeyController contextKey = "session_controller"

// Middleware читает session cookie (при отсутствии или повреждении выдаёт новую)
// и помещает контроллер сессии в контекст запроса.
func Middleware(m *Manager, store *Store, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "ui_session"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := m.Load(r)
			if err != nil {
				logger.Debug("Недействительный session cookie, выдаётся новый",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
			}
			if data == nil {
				data, err = m.Issue(w)
				if err != nil {
					logger.Error("Ошибка создания сессии", slog.String("error", err.Error()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			ctx := WithController(r.Context(), store.Controller(data.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithController помещает контроллер в контекст.
func WithController(ctx context.Context, c *service.Controller) context.Context {
	return context.WithValue(ctx, contextKeyController, c)
}

// ControllerFromContext извлекает контроллер сессии (nil вне Middleware).
func ControllerFromContext(ctx context.Context) *service.Controller {
	c, _ := ctx.Value(contextKeyController).(*service.Controller)
	return c
}
