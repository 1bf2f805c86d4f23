// notification.go — закрытие уведомления.
package handlers

import (
	"log/slog"
	"net/http"
)

// HandleDismiss обрабатывает POST /notification/dismiss.
// Скрывает уведомление и возвращает на страницу из return_to.
func HandleDismiss(logger *slog.Logger) http.HandlerFunc {
	logger = logger.With(slog.String("component", "ui.notification"))
	return func(w http.ResponseWriter, r *http.Request) {
		ctl, ok := controller(w, r, logger)
		if !ok {
			return
		}
		ctl.DismissNotification()
		target := safeReturnTo(r.FormValue("return_to"), tabPath(ctl.ActiveTab()))
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
