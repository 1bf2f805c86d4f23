// Пакет handlers — HTTP-обработчики UI Feedback Portal.
// Все изменения состояния выполняются POST-запросами с ответом 303 See Other
// на страницу активной вкладки (post/redirect/get).
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/pottd-feedback/internal/service"
	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
	"github.com/bigkaa/pottd-feedback/internal/ui/pages"
	"github.com/bigkaa/pottd-feedback/internal/ui/session"
)

// tabPath возвращает адрес страницы вкладки.
func tabPath(tab service.Tab) string {
	if tab == service.TabDashboard {
		return "/dashboard"
	}
	return "/submit"
}

// redirectToTab перенаправляет на страницу активной вкладки.
func redirectToTab(w http.ResponseWriter, r *http.Request, ctl *service.Controller) {
	http.Redirect(w, r, tabPath(ctl.ActiveTab()), http.StatusSeeOther)
}

// controller извлекает контроллер сессии; при отсутствии отвечает 500.
func controller(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*service.Controller, bool) {
	ctl := session.ControllerFromContext(r.Context())
	if ctl == nil {
		logger.Error("Контроллер сессии отсутствует в контексте",
			slog.String("path", r.URL.Path),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return ctl, true
}

// layout собирает данные каркаса страницы.
func layout(r *http.Request, tab service.Tab, n *service.Notification) pages.LayoutData {
	return pages.LayoutData{
		ActiveTab:    tab,
		Lang:         i18n.LangFromContext(r.Context()),
		Languages:    i18n.Languages,
		Notification: n,
		ReturnTo:     r.URL.RequestURI(),
	}
}

// renderPage рендерит страницу; ошибка логируется с именем страницы.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := page.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// recordID возвращает идентификатор записи из пути.
func recordID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	// chi маршрутизирует по RawPath, если он задан: только тогда параметр экранирован.
	if r.URL.RawPath == "" {
		return raw
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// safeReturnTo допускает только локальные пути; иначе возвращает fallback.
func safeReturnTo(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}

// HandleIndex обрабатывает GET / — перенаправляет на активную вкладку.
func HandleIndex(logger *slog.Logger) http.HandlerFunc {
	logger = logger.With(slog.String("component", "ui.index"))
	return func(w http.ResponseWriter, r *http.Request) {
		ctl, ok := controller(w, r, logger)
		if !ok {
			return
		}
		http.Redirect(w, r, tabPath(ctl.ActiveTab()), http.StatusFound)
	}
}
