// store.go — LRU-хранилище контроллеров сессий с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/pottd-feedback/internal/service"
)

var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "fp_ui_sessions_active",
	Help: "Количество сессий UI в хранилище.",
})

// Factory создаёт контроллер для новой сессии.
type Factory func() *service.Controller

// Store хранит контроллер каждой сессии.
// Время жизни продлевается при каждом обращении; при переполнении
// вытесняется самая давно использованная сессия.
type Store struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *service.Controller]
	factory Factory
}

// NewStore создаёт хранилище на maxSize сессий с временем жизни ttl.
func NewStore(maxSize int, ttl time.Duration, factory Factory) *Store {
	return &Store{
		cache:   expirable.NewLRU[string, *service.Controller](maxSize, nil, ttl),
		factory: factory,
	}
}

// Controller возвращает контроллер сессии, создавая его при первом обращении.
func (s *Store) Controller(id string) *service.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cache.Get(id)
	if !ok {
		c = s.factory()
	}
	// Повторное добавление продлевает TTL
	s.cache.Add(id, c)
	sessionsActive.Set(float64(s.cache.Len()))
	return c
}

// Len возвращает количество сессий.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Remove удаляет сессию.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
	sessionsActive.Set(float64(s.cache.Len()))
}
