// Пакет session — сессии браузера Feedback Portal.
// Cookie содержит только идентификатор сессии, зашифрованный AES-256-GCM;
// состояние UI хранится на сервере в Store.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName — имя cookie сессии.
const CookieName = "pottd_session"

// Data — содержимое session cookie.
type Data struct {
	// ID — идентификатор сессии (UUID)
	ID string `json:"id"`
	// IssuedAt — время выдачи (Unix timestamp)
	IssuedAt int64 `json:"iat"`
}

// Manager шифрует и дешифрует Data в HTTP cookies.
type Manager struct {
	gcm    cipher.AEAD
	secure bool
	maxAge time.Duration
	now    func() time.Time
}

// NewManager создаёт менеджер сессий.
// key — base64 32-байтовый ключ либо произвольная строка (хешируется SHA-256).
// Пустой key — случайный ключ, сессии не переживают рестарт.
func NewManager(key string, secure bool, maxAge time.Duration) (*Manager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Manager{
		gcm:    gcm,
		secure: secure,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// Encrypt шифрует Data в base64-строку (nonce prepended к ciphertext).
func (m *Manager) Encrypt(data *Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	return base64.URLEncoding.EncodeToString(m.gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

// Decrypt дешифрует строку cookie в Data.
func (m *Manager) Decrypt(encrypted string) (*Data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := m.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if _, err := uuid.Parse(data.ID); err != nil {
		return nil, fmt.Errorf("некорректный идентификатор сессии: %w", err)
	}
	return &data, nil
}

// Load извлекает сессию из запроса. Возвращает nil, nil если cookie нет.
// Сессия старше maxAge считается недействительной.
func (m *Manager) Load(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	data, err := m.Decrypt(cookie.Value)
	if err != nil {
		return nil, err
	}
	if m.maxAge > 0 && m.now().Sub(time.Unix(data.IssuedAt, 0)) > m.maxAge {
		return nil, errors.New("сессия истекла")
	}
	return data, nil
}

// Issue создаёт новую сессию и устанавливает cookie.
func (m *Manager) Issue(w http.ResponseWriter) (*Data, error) {
	data := &Data{
		ID:       uuid.NewString(),
		IssuedAt: m.now().Unix(),
	}

	encrypted, err := m.Encrypt(data)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return data, nil
}
