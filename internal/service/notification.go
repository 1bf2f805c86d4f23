// notification.go — одноместное временное уведомление пользователя.
// Новое уведомление всегда заменяет предыдущее; истекает через NotificationTTL.
package service

import (
	"sync"
	"time"
)

// NotificationTTL — время жизни уведомления.
const NotificationTTL = 5 * time.Second

// Kind — вид уведомления.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification — сообщение пользователю.
type Notification struct {
	Kind Kind
	// Key — ключ перевода; Args — аргументы для форматирования
	Key  string
	Args []any
	// Text — каноническое английское сообщение
	Text    string
	ShownAt time.Time
}

// ExpiresAt возвращает момент автоматического скрытия.
func (n Notification) ExpiresAt() time.Time {
	return n.ShownAt.Add(NotificationTTL)
}

// Notifier хранит текущее уведомление. Истечение вычисляется при чтении.
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	now     func() time.Time
}

// NewNotifier создаёт Notifier. now == nil — системные часы.
func NewNotifier(now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{now: now}
}

// Show показывает уведомление, заменяя текущее.
func (n *Notifier) Show(kind Kind, key, text string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &Notification{
		Kind:    kind,
		Key:     key,
		Args:    args,
		Text:    text,
		ShownAt: n.now(),
	}
}

// Current возвращает активное уведомление, если оно ещё не истекло.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	if !n.now().Before(n.current.ExpiresAt()) {
		n.current = nil
		return Notification{}, false
	}
	return *n.current, true
}

// Dismiss скрывает уведомление.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}
