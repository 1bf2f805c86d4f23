// Пакет pages — HTML-страницы UI Feedback Portal.
// Страницы — templ.Component поверх встроенных html/template шаблонов;
// функции перевода привязываются к контексту запроса при каждом рендеринге.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
	"github.com/bigkaa/pottd-feedback/internal/service"
	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// base — разобранные шаблоны; функции-заглушки заменяются в render.
var base = template.Must(template.New("pages").Funcs(funcs(context.Background())).ParseFS(templateFS, "templates/*.html"))

// LayoutData — общие данные каркаса страницы.
type LayoutData struct {
	ActiveTab    service.Tab
	Lang         string
	Languages    []i18n.Language
	Notification *service.Notification
	// ReturnTo — путь возврата после смены языка или закрытия уведомления
	ReturnTo string
}

// FormData — данные страницы формы.
type FormData struct {
	Layout     LayoutData
	View       service.View
	Categories []model.Category
}

// DashboardData — данные дашборда.
type DashboardData struct {
	Layout     LayoutData
	View       service.View
	Categories []model.Category
	Statuses   []model.Status
}

// DeleteConfirmData — данные страницы подтверждения удаления.
type DeleteConfirmData struct {
	Layout LayoutData
	Record model.Record
}

// FormPage — форма отзыва (режимы Create и Edit).
func FormPage(data FormData) templ.Component {
	return render("form", data)
}

// DashboardPage — дашборд модерации.
func DashboardPage(data DashboardData) templ.Component {
	return render("dashboard", data)
}

// DeleteConfirmPage — подтверждение удаления.
func DeleteConfirmPage(data DeleteConfirmData) templ.Component {
	return render("delete_confirm", data)
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := base.Clone()
		if err != nil {
			return fmt.Errorf("клонирование шаблонов: %w", err)
		}
		if err := t.Funcs(funcs(ctx)).ExecuteTemplate(w, name, data); err != nil {
			return fmt.Errorf("рендеринг %s: %w", name, err)
		}
		return nil
	})
}

// funcs — функции шаблонов для языка из ctx.
func funcs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": func(key string) string {
			return i18n.T(ctx, key)
		},
		"tf": func(key string, args ...any) string {
			return i18n.Tf(ctx, key, args...)
		},
		"notification": func(n *service.Notification) string {
			if n == nil {
				return ""
			}
			return i18n.Message(ctx, n.Key, n.Text, n.Args...)
		},
		"category": func(c model.Category) string {
			if c == "" {
				return ""
			}
			return i18n.Message(ctx, "category."+string(c), string(c))
		},
		"status": func(s model.Status) string {
			return i18n.Message(ctx, "status."+string(s), string(s))
		},
		"date": func(ts model.Timestamp) string {
			if ts.IsZero() {
				return i18n.T(ctx, "dashboard.date_na")
			}
			return ts.Local().Format("2006-01-02")
		},
		"pathid": func(id model.RecordID) string {
			return url.PathEscape(id.String())
		},
		"stars": func() []int {
			return []int{1, 2, 3, 4, 5}
		},
		"inc": func(i int) int {
			return i + 1
		},
		"actions": func() []model.Action {
			return model.Actions
		},
	}
}
