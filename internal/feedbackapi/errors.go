// errors.go — ошибки клиента API отзывов.
package feedbackapi

import (
	"errors"
	"fmt"
)

// ErrUnavailable — соединение с API не установлено или прервано.
var ErrUnavailable = errors.New("API отзывов недоступен")

// StatusError — API ответил неуспешным статусом.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API отзывов вернул статус %d", e.Operation, e.StatusCode)
}

// IsUnavailable сообщает, что ошибка вызвана отказом транспорта.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
