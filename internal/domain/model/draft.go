// draft.go — черновик формы отзыва (локальное состояние UI).
package model

import (
	"errors"
	"slices"
	"strings"
)

// Ошибки валидации черновика.
var (
	// ErrMissingFields — не заполнено обязательное поле.
	ErrMissingFields = errors.New("не заполнены обязательные поля")
	// ErrInvalidField — значение вне допустимого множества.
	ErrInvalidField = errors.New("недопустимое значение поля")
)

// Draft — черновик отзыва. EditingID задан в режиме редактирования.
type Draft struct {
	Name      string
	Email     string
	Category  Category
	Rating    int
	Feedback  string
	Images    []string
	EditingID RecordID
}

// Editing сообщает, что черновик заменяет существующую запись.
func (d *Draft) Editing() bool {
	return !d.EditingID.IsZero()
}

// Clone возвращает копию черновика с независимым срезом изображений.
func (d Draft) Clone() Draft {
	d.Images = slices.Clone(d.Images)
	return d
}

// DraftFromRecord заполняет черновик точными значениями записи (режим Edit).
func DraftFromRecord(r *Record) Draft {
	return Draft{
		Name:      r.Name,
		Email:     r.Email,
		Category:  r.Category,
		Rating:    r.Rating,
		Feedback:  r.Feedback,
		Images:    slices.Clone(r.Images),
		EditingID: r.ID,
	}
}

// Validate проверяет обязательные поля и допустимые значения.
// Пустая строка из одних пробелов считается незаполненной.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" ||
		strings.TrimSpace(d.Email) == "" ||
		d.Category == "" ||
		d.Rating == 0 ||
		strings.TrimSpace(d.Feedback) == "" {
		return ErrMissingFields
	}
	if !d.Category.Valid() || d.Rating < MinRating || d.Rating > MaxRating {
		return ErrInvalidField
	}
	return nil
}

// Submission — тело запроса создания/обновления отзыва.
type Submission struct {
	Name     string
	Email    string
	Category Category
	Rating   int
	Feedback string
	Images   []string
}

// Submission формирует тело запроса из черновика.
// Имя и email отправляются без пробелов по краям: валидация их уже не учитывает.
func (d *Draft) Submission() Submission {
	images := slices.Clone(d.Images)
	if images == nil {
		images = []string{}
	}
	return Submission{
		Name:     strings.TrimSpace(d.Name),
		Email:    strings.TrimSpace(d.Email),
		Category: d.Category,
		Rating:   d.Rating,
		Feedback: d.Feedback,
		Images:   images,
	}
}
