// dashboard.go — обработчики дашборда модерации.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
	"github.com/bigkaa/pottd-feedback/internal/service"
	"github.com/bigkaa/pottd-feedback/internal/ui/pages"
)

// DashboardHandler — обработчик дашборда и действий над записями.
type DashboardHandler struct {
	logger *slog.Logger
}

// NewDashboardHandler создаёт DashboardHandler.
func NewDashboardHandler(logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		logger: logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /dashboard.
// Параметры q, category, status заменяют фильтры, если присутствует
// хотя бы один из них. При первом открытии коллекция загружается.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Has("q") || query.Has("category") || query.Has("status") {
		ctl.SetFilters(service.Filters{
			Search:   query.Get("q"),
			Category: query.Get("category"),
			Status:   query.Get("status"),
		})
	}

	ctl.SetTab(service.TabDashboard)
	ctl.EnsureLoaded(r.Context())
	view := ctl.View()

	data := pages.DashboardData{
		Layout:     layout(r, view.Tab, view.Notification),
		View:       view,
		Categories: model.Categories,
		Statuses:   model.Statuses,
	}
	renderPage(w, r, h.logger, "dashboard", pages.DashboardPage(data))
}

// HandleRefresh обрабатывает POST /dashboard/refresh — перезапрос коллекции.
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}
	ctl.SetTab(service.TabDashboard)
	_ = ctl.Refresh(r.Context())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleEdit обрабатывает POST /feedback/{id}/edit — открывает форму в режиме Edit.
func (h *DashboardHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}
	if err := ctl.Edit(recordID(r)); err != nil {
		h.logger.Debug("Редактирование недоступно", slog.String("error", err.Error()))
	}
	redirectToTab(w, r, ctl)
}

// HandleDeleteConfirm обрабатывает GET /feedback/{id}/delete — страница подтверждения.
func (h *DashboardHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}

	record, err := ctl.Record(recordID(r))
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	view := ctl.View()
	data := pages.DeleteConfirmData{
		Layout: layout(r, service.TabDashboard, view.Notification),
		Record: record,
	}
	renderPage(w, r, h.logger, "delete_confirm", pages.DeleteConfirmPage(data))
}

// HandleDelete обрабатывает POST /feedback/{id}/delete.
// Без confirm=yes запрос не выполняется, показывается подтверждение.
func (h *DashboardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}

	id := recordID(r)
	err := ctl.Delete(r.Context(), id, r.FormValue("confirm") == "yes")
	if errors.Is(err, service.ErrConfirmationRequired) {
		http.Redirect(w, r, r.URL.EscapedPath(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleModerate обрабатывает POST /feedback/{id}/moderate — approve, reject или flag.
func (h *DashboardHandler) HandleModerate(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}

	action := model.Action(r.FormValue("action"))
	_ = ctl.Moderate(r.Context(), recordID(r), action)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
