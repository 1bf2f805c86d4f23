// Пакет model — доменные модели Feedback Portal.
// Record — копия отзыва, принадлежащего внешнему API (клиент только читает).
package model

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Category — категория отзыва (фиксированное перечисление).
type Category string

const (
	CategoryProductQuality  Category = "Product Quality"
	CategoryUserExperience  Category = "User Experience"
	CategoryCustomerService Category = "Customer Service"
	CategoryShipping        Category = "Shipping"
	CategoryWebsite         Category = "Website"
	CategoryGeneral         Category = "General"
)

// Categories — все допустимые категории в порядке отображения.
var Categories = []Category{
	CategoryProductQuality,
	CategoryUserExperience,
	CategoryCustomerService,
	CategoryShipping,
	CategoryWebsite,
	CategoryGeneral,
}

// Valid проверяет принадлежность категории перечислению.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Status — статус модерации отзыва.
// Пустое значение означает, что сервер статус не прислал.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusFlagged  Status = "flagged"
)

// Statuses — все статусы в порядке отображения фильтра.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusFlagged}

// Valid проверяет принадлежность статуса перечислению.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Action — действие модерации.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionFlag    Action = "flag"
)

// Actions — все действия модерации.
var Actions = []Action{ActionApprove, ActionReject, ActionFlag}

// Valid проверяет принадлежность действия перечислению.
func (a Action) Valid() bool {
	return slices.Contains(Actions, a)
}

// MinRating и MaxRating — границы оценки.
const (
	MinRating = 1
	MaxRating = 5
)

// Record — отзыв в том виде, в каком его вернул GET /fetch.
type Record struct {
	// ID — непрозрачный идентификатор, назначается сервером
	ID RecordID `json:"id"`
	// Name — имя автора
	Name string `json:"name"`
	// Email — email автора
	Email string `json:"email"`
	// Category — категория отзыва
	Category Category `json:"category"`
	// Rating — оценка 1-5
	Rating int `json:"rating"`
	// Feedback — текст отзыва
	Feedback string `json:"feedback"`
	// Images — URL изображений (опционально)
	Images []string `json:"images,omitempty"`
	// Status — статус модерации; пустой, если сервер его не прислал
	Status Status `json:"status,omitempty"`
	// CreatedAt — время создания на сервере
	CreatedAt Timestamp `json:"createdAt"`
}

// DisplayStatus возвращает статус для отображения и фильтрации:
// отсутствующий статус считается pending. Хранимое значение не меняется.
func (r *Record) DisplayStatus() Status {
	if r.Status == "" {
		return StatusPending
	}
	return r.Status
}

// UnmarshalJSON дополнительно принимает ключ uploadImages, если images отсутствует:
// сервер хранит изображения под тем именем, под которым их прислали.
// Нераспознанные rating и createdAt обнуляются, а не делают запись недоступной.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		Rating       json.RawMessage `json:"rating"`
		CreatedAt    json.RawMessage `json:"createdAt"`
		UploadImages []string        `json:"uploadImages"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	r.Rating = lenientRating(aux.Rating)

	var ts Timestamp
	if len(aux.CreatedAt) > 0 && ts.UnmarshalJSON(aux.CreatedAt) == nil {
		r.CreatedAt = ts
	}

	if r.Images == nil && aux.UploadImages != nil {
		r.Images = aux.UploadImages
	}
	return nil
}

// lenientRating принимает число (дробное округляется) или числовую строку;
// всё остальное даёт 0.
func lenientRating(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(math.Round(n))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(math.Round(f))
	}
	return 0
}
