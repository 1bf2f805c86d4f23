// form.go — обработчики формы отзыва (режимы Create и Edit).
package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
	"github.com/bigkaa/pottd-feedback/internal/service"
	"github.com/bigkaa/pottd-feedback/internal/ui/pages"
)

// Действия формы (значение поля action).
const (
	formActionSubmit      = "submit"
	formActionAttach      = "attach"
	formActionCancel      = "cancel"
	formActionRemoveImage = "remove-image"
	formActionSave        = "save"
)

// multipartMemory — объём multipart-формы в памяти, остальное во временных файлах.
const multipartMemory = 8 << 20

// FormHandler — обработчик страницы формы.
type FormHandler struct {
	// maxBody — ограничение размера тела POST /submit
	maxBody int64
	logger  *slog.Logger
}

// NewFormHandler создаёт FormHandler.
// imageMaxBytes — ограничение на одно изображение; тело запроса
// допускает до maxImagesPerRequest изображений плюс поля формы.
func NewFormHandler(imageMaxBytes int64, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		maxBody: imageMaxBytes*maxImagesPerRequest + 1<<20,
		logger:  logger.With(slog.String("component", "ui.form")),
	}
}

// maxImagesPerRequest — количество изображений в одном запросе прикрепления.
const maxImagesPerRequest = 10

// HandleForm обрабатывает GET /submit — отображает форму.
func (h *FormHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}
	ctl.SetTab(service.TabSubmit)
	view := ctl.View()

	data := pages.FormData{
		Layout:     layout(r, view.Tab, view.Notification),
		View:       view,
		Categories: model.Categories,
	}
	renderPage(w, r, h.logger, "form", pages.FormPage(data))
}

// HandleSubmit обрабатывает POST /submit.
// Поле action выбирает действие: submit (по умолчанию), attach, cancel,
// remove-image (из query) или save.
func (h *FormHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctl, ok := controller(w, r, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Превышен размер формы",
				slog.Int64("limit", tooLarge.Limit),
			)
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("Некорректная форма", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	in := draftInput(r)
	ctx := r.Context()

	action := r.FormValue("action")
	if action == "" {
		action = formActionSubmit
	}

	switch action {
	case formActionSubmit:
		// Ошибка уже отражена уведомлением и сохранённым черновиком
		_ = ctl.Submit(ctx, in)
	case formActionAttach:
		h.attach(r, ctl, in)
	case formActionCancel:
		ctl.CancelEdit()
	case formActionRemoveImage:
		index, err := strconv.Atoi(r.FormValue("image_index"))
		if err != nil {
			index = -1
		}
		ctl.RemoveImage(in, index)
	case formActionSave:
		ctl.SaveDraft(in)
	default:
		ctl.SaveDraft(in)
		h.logger.Debug("Неизвестное действие формы", slog.String("action", action))
	}

	redirectToTab(w, r, ctl)
}

// attach загружает выбранные файлы в хранилище изображений.
func (h *FormHandler) attach(r *http.Request, ctl *service.Controller, in service.DraftInput) {
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			// Браузер отправляет пустую часть, если файл не выбран
			if fh.Filename == "" && fh.Size == 0 {
				continue
			}
			headers = append(headers, fh)
		}
	}
	if len(headers) > maxImagesPerRequest {
		headers = headers[:maxImagesPerRequest]
	}
	if len(headers) == 0 && ctl.ImagesEnabled() {
		ctl.SaveDraft(in)
		return
	}

	files := make([]service.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("Ошибка чтения файла формы",
				slog.String("filename", fh.Filename),
				slog.String("error", err.Error()),
			)
			continue
		}
		defer f.Close()

		files = append(files, service.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	// Ошибка уже отражена уведомлением
	_ = ctl.AttachImages(r.Context(), in, files)
}

// parseForm разбирает multipart или urlencoded тело формы.
func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// draftInput извлекает поля формы.
func draftInput(r *http.Request) service.DraftInput {
	return service.DraftInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Category: r.FormValue("category"),
		Rating:   r.FormValue("rating"),
		Feedback: r.FormValue("feedback"),
	}
}
