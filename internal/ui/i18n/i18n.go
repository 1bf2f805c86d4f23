// Пакет i18n — интернационализация UI Feedback Portal.
// T(ctx, key) и Tf(ctx, key, args...) возвращают переведённые строки
// для языка из контекста HTTP-запроса.
// Поддерживаемые языки: English (en), Русский (ru).
// Язык определяется middleware: cookie "lang" → Accept-Language → default "en".
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и fallback для отсутствующих ключей.
const DefaultLang = "en"

// Language — язык интерфейса для переключателя.
type Language struct {
	Code string
	Name string
}

// Languages — поддерживаемые языки в порядке отображения.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "ru", Name: "Русский"},
}

// matcher — языковой matcher для Accept-Language (порядок совпадает с Languages).
var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Russian,
})

// Supported сообщает, поддерживается ли язык.
func Supported(lang string) bool {
	return slices.ContainsFunc(Languages, func(l Language) bool { return l.Code == lang })
}

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// lookup ищет ключ в языке, затем в DefaultLang.
func (b *Bundle) lookup(lang, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg, true
	}
	if lang != DefaultLang {
		if msg, ok := b.catalogs[DefaultLang][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// Translate возвращает перевод; ненайденный ключ возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	if msg, ok := b.lookup(lang, key); ok {
		return msg
	}
	return key
}

// Translatef возвращает перевод с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// --- Глобальный Bundle ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init инициализирует глобальный Bundle. Вызывается один раз при старте.
func Init(logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(logger)
	})
	return globalBundle
}

// --- Функции для шаблонов ---

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста. Default: "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод по ключу для языка из контекста.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf возвращает перевод по ключу с аргументами.
func Tf(ctx context.Context, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(LangFromContext(ctx), key, args...)
}

// Message переводит уведомление: при отсутствии ключа в каталогах
// возвращает fallback (канонический английский текст).
func Message(ctx context.Context, key, fallback string, args ...any) string {
	if globalBundle == nil {
		return fallback
	}
	msg, ok := globalBundle.lookup(LangFromContext(ctx), key)
	if !ok {
		return fallback
	}
	if len(args) == 0 {
		return msg
	}
	return formatFunc(msg, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят
// из JSON-каталогов, статическая printf-проверка к ним неприменима.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// MatchLanguage определяет лучший язык из Accept-Language заголовка.
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx >= 0 && idx < len(Languages) {
		return Languages[idx].Code
	}
	return DefaultLang
}
