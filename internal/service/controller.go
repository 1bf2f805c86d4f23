// Пакет service — состояние UI одной сессии Feedback Portal.
//
// Controller владеет вкладкой, черновиком формы, фильтрами, уведомлением
// и кэшем коллекции. Состояние меняется только через методы-действия.
// Мьютекс не удерживается во время сетевых вызовов: запросы одной сессии
// могут выполняться параллельно, а устаревшие ответы GET /fetch отбрасываются
// по номеру запроса.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
	"github.com/bigkaa/pottd-feedback/internal/feedbackapi"
	"github.com/bigkaa/pottd-feedback/internal/imagestore"
)

// FeedbackAPI — операции внешнего API, используемые контроллером.
type FeedbackAPI interface {
	List(ctx context.Context) ([]model.Record, error)
	Create(ctx context.Context, s model.Submission) error
	Update(ctx context.Context, id model.RecordID, s model.Submission) error
	Remove(ctx context.Context, id model.RecordID) error
	Moderate(ctx context.Context, id model.RecordID, action model.Action) error
}

// Tab — активная вкладка.
type Tab string

const (
	TabSubmit    Tab = "submit"
	TabDashboard Tab = "dashboard"
)

// DraftInput — значения полей формы в том виде, в каком их прислал браузер.
type DraftInput struct {
	Name     string
	Email    string
	Category string
	Rating   string
	Feedback string
}

// ImageFile — файл, выбранный пользователем для прикрепления.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// State — состояние сессии.
type State struct {
	Tab        Tab
	Draft      model.Draft
	Records    []model.Record
	Filters    Filters
	Loaded     bool
	Submitting bool
	Fetching   bool
}

// Controller — контроллер состояния одной сессии.
type Controller struct {
	mu       sync.Mutex
	state    State
	api      FeedbackAPI
	images   imagestore.Uploader
	notifier *Notifier
	logger   *slog.Logger

	// fetchSeq — номер последнего выданного GET /fetch
	fetchSeq uint64
	// loadStarted — первичная загрузка уже запускалась
	loadStarted bool
}

// NewController создаёт контроллер сессии.
// images == nil — загрузка изображений отключена; now == nil — системные часы.
func NewController(api FeedbackAPI, images imagestore.Uploader, now func() time.Time, logger *slog.Logger) *Controller {
	return &Controller{
		state: State{
			Tab:     TabSubmit,
			Filters: DefaultFilters(),
		},
		api:      api,
		images:   images,
		notifier: NewNotifier(now),
		logger:   logger.With(slog.String("component", "controller")),
	}
}

// ImagesEnabled сообщает, доступна ли загрузка изображений.
func (c *Controller) ImagesEnabled() bool {
	return c.images != nil
}

// --- Форма ---

// applyInput переносит поля формы в черновик. Вызывается под мьютексом.
// Пустая оценка — 0 (не заполнено), нечисловая — -1 (недопустимо).
func (c *Controller) applyInput(in DraftInput) {
	d := &c.state.Draft
	d.Name = in.Name
	d.Email = in.Email
	d.Category = model.Category(strings.TrimSpace(in.Category))
	d.Feedback = in.Feedback

	rating := strings.TrimSpace(in.Rating)
	switch n, err := strconv.Atoi(rating); {
	case rating == "":
		d.Rating = 0
	case err != nil:
		d.Rating = -1
	default:
		d.Rating = n
	}
}

// SaveDraft сохраняет введённые значения без отправки.
func (c *Controller) SaveDraft(in DraftInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyInput(in)
}

// Submit валидирует черновик и отправляет его: Create — POST /submit,
// Edit — PUT /put с исходным id. При успехе черновик сбрасывается,
// открывается дашборд и коллекция перезапрашивается.
// При ошибке черновик и вкладка сохраняются для повторной попытки.
func (c *Controller) Submit(ctx context.Context, in DraftInput) error {
	c.mu.Lock()
	c.applyInput(in)
	draft := c.state.Draft.Clone()

	if err := draft.Validate(); err != nil {
		if errors.Is(err, model.ErrMissingFields) {
			c.notify(KindError, msgMissingFields)
		} else {
			c.notify(KindError, msgInvalidFields)
		}
		c.mu.Unlock()
		return err
	}
	c.state.Submitting = true
	c.mu.Unlock()

	editing := draft.Editing()
	var err error
	if editing {
		err = c.api.Update(ctx, draft.EditingID, draft.Submission())
	} else {
		err = c.api.Create(ctx, draft.Submission())
	}

	c.mu.Lock()
	c.state.Submitting = false
	if err != nil {
		if editing {
			c.notifyFailure(err, msgUpdateFailed)
		} else {
			c.notifyFailure(err, msgSubmitFailed)
		}
		c.mu.Unlock()
		c.logger.Warn("Отзыв не сохранён",
			slog.Bool("editing", editing),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.state.Draft = model.Draft{}
	c.state.Tab = TabDashboard
	if editing {
		c.notify(KindSuccess, msgUpdated)
	} else {
		c.notify(KindSuccess, msgSubmitted)
	}
	c.mu.Unlock()

	c.logger.Info("Отзыв сохранён",
		slog.Bool("editing", editing),
		slog.String("id", draft.EditingID.String()),
	)
	_ = c.Refresh(ctx)
	return nil
}

// Edit загружает запись из кэша в черновик и открывает форму в режиме Edit.
func (c *Controller) Edit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.findLocked(id)
	if r == nil {
		c.notify(KindError, msgNotFound)
		return fmt.Errorf("edit %s: %w", id, ErrNotFound)
	}
	c.state.Draft = model.DraftFromRecord(r)
	c.state.Tab = TabSubmit
	return nil
}

// CancelEdit сбрасывает черновик в пустое состояние Create.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft = model.Draft{}
}

// AttachImages загружает файлы в хранилище и добавляет их постоянные URL
// в черновик. Файлы, не прошедшие проверку, пропускаются с уведомлением.
func (c *Controller) AttachImages(ctx context.Context, in DraftInput, files []ImageFile) error {
	c.mu.Lock()
	c.applyInput(in)
	if c.images == nil {
		c.notify(KindInfo, msgImagesDisabled)
		c.mu.Unlock()
		return ErrImagesDisabled
	}
	c.mu.Unlock()

	urls := make([]string, 0, len(files))
	var firstErr error
	for _, f := range files {
		u, err := c.images.Upload(ctx, f.Filename, f.ContentType, f.Body, f.Size)
		if err != nil {
			c.logger.Warn("Изображение не загружено",
				slog.String("filename", f.Filename),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		urls = append(urls, u)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft.Images = append(c.state.Draft.Images, urls...)
	if firstErr != nil {
		c.notify(KindError, msgImageRejected)
	}
	return firstErr
}

// RemoveImage удаляет изображение черновика по позиции.
// Индекс вне диапазона игнорируется.
func (c *Controller) RemoveImage(in DraftInput, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyInput(in)

	images := c.state.Draft.Images
	if index < 0 || index >= len(images) {
		return
	}
	c.state.Draft.Images = append(images[:index:index], images[index+1:]...)
}

// SetTab переключает вкладку. Переход на дашборд отменяет режим Edit.
func (c *Controller) SetTab(tab Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tab != TabSubmit && tab != TabDashboard {
		return
	}
	if tab == TabDashboard && c.state.Draft.Editing() {
		c.state.Draft = model.Draft{}
	}
	c.state.Tab = tab
}

// --- Дашборд ---

// SetFilters заменяет фильтры дашборда.
func (c *Controller) SetFilters(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Filters = f.Normalize()
}

// EnsureLoaded запускает первичную загрузку коллекции один раз за сессию.
func (c *Controller) EnsureLoaded(ctx context.Context) {
	c.mu.Lock()
	if c.loadStarted {
		c.mu.Unlock()
		return
	}
	c.loadStarted = true
	c.mu.Unlock()

	_ = c.Refresh(ctx)
}

// Refresh перезапрашивает коллекцию целиком.
// Ответ применяется, только если после него не был выдан более новый запрос.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loadStarted = true
	c.fetchSeq++
	seq := c.fetchSeq
	c.state.Fetching = true
	c.mu.Unlock()

	records, err := c.api.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	latest := seq == c.fetchSeq
	if latest {
		c.state.Fetching = false
	}

	if err != nil {
		if latest {
			c.notifyFailure(err, msgFetchFailed)
		}
		return err
	}
	if !latest {
		c.logger.Debug("Устаревший ответ GET /fetch отброшен",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", c.fetchSeq),
		)
		return nil
	}

	c.state.Records = records
	c.state.Loaded = true
	return nil
}

// Delete удаляет запись после явного подтверждения.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	recordID, err := c.resolve(id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	if err := c.api.Remove(ctx, recordID); err != nil {
		c.mu.Lock()
		c.notifyFailure(err, msgDeleteFailed)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.notify(KindSuccess, msgDeleted)
	c.mu.Unlock()

	c.logger.Info("Отзыв удалён", slog.String("id", recordID.String()))
	_ = c.Refresh(ctx)
	return nil
}

// Moderate выполняет действие модерации без подтверждения.
func (c *Controller) Moderate(ctx context.Context, id string, action model.Action) error {
	if !action.Valid() {
		c.mu.Lock()
		c.notify(KindError, msgModerateInvalid)
		c.mu.Unlock()
		return fmt.Errorf("moderate %q: %w", action, model.ErrInvalidField)
	}

	recordID, err := c.resolve(id)
	if err != nil {
		return fmt.Errorf("moderate %s: %w", id, err)
	}

	if err := c.api.Moderate(ctx, recordID, action); err != nil {
		c.mu.Lock()
		if feedbackapi.IsUnavailable(err) {
			c.notify(KindError, msgConnection)
		} else {
			c.notifier.Show(KindError, keyModerateFailed,
				fmt.Sprintf(textModerateFailed, action), string(action))
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.notify(KindSuccess, moderationSuccess[action])
	c.mu.Unlock()

	c.logger.Info("Отзыв промодерирован",
		slog.String("id", recordID.String()),
		slog.String("action", string(action)),
	)
	_ = c.Refresh(ctx)
	return nil
}

// DismissNotification скрывает текущее уведомление.
func (c *Controller) DismissNotification() {
	c.notifier.Dismiss()
}

// Record возвращает копию записи из кэша.
func (c *Controller) Record(id string) (model.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.findLocked(id)
	if r == nil {
		return model.Record{}, ErrNotFound
	}
	return *r, nil
}

// resolve находит исходный id записи по его текстовому представлению.
func (c *Controller) resolve(id string) (model.RecordID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.findLocked(id)
	if r == nil {
		c.notify(KindError, msgNotFound)
		return model.RecordID{}, ErrNotFound
	}
	return r.ID, nil
}

func (c *Controller) findLocked(id string) *model.Record {
	if id == "" {
		return nil
	}
	for i := range c.state.Records {
		if c.state.Records[i].ID.String() == id {
			return &c.state.Records[i]
		}
	}
	return nil
}

// notify показывает уведомление без аргументов.
func (c *Controller) notify(kind Kind, m message) {
	c.notifier.Show(kind, m.key, m.text)
}

// notifyFailure выбирает сообщение по виду ошибки:
// отказ транспорта — «Error connecting to server», иначе сообщение операции.
func (c *Controller) notifyFailure(err error, m message) {
	if feedbackapi.IsUnavailable(err) {
		c.notify(KindError, msgConnection)
		return
	}
	c.notify(KindError, m)
}
