// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
)

// langCookieMaxAge — срок жизни cookie языка (1 год).
const langCookieMaxAge = 365 * 24 * time.Hour

// HandleSetLanguage обрабатывает POST /set-language.
// Устанавливает cookie "lang" и перенаправляет на return_to.
// Неподдерживаемый язык заменяется языком по умолчанию.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(langCookieMaxAge),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, safeReturnTo(r.FormValue("return_to"), "/"), http.StatusSeeOther)
}
