// errors.go — ошибки сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — запись отсутствует в кэше текущей сессии.
	ErrNotFound = errors.New("отзыв не найден")
	// ErrConfirmationRequired — удаление без явного подтверждения пользователя.
	ErrConfirmationRequired = errors.New("требуется подтверждение удаления")
	// ErrImagesDisabled — хранилище изображений не настроено.
	ErrImagesDisabled = errors.New("загрузка изображений отключена")
)
