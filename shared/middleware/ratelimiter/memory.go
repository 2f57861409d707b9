package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// window is one key's counter. Its own mutex serialises hits on that key.
type window struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Expired windows are dropped by
// the go-cache janitor.
type MemoryStore struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
		now:   time.Now,
	}
}

func (m *MemoryStore) getWindow(key string, length time.Duration) *window {
	w := &window{resetAt: m.now().Add(length)}
	if err := m.cache.Add(key, w, length); err == nil {
		return w
	}
	if existing, ok := m.cache.Get(key); ok {
		return existing.(*window)
	}
	// expired between Add and Get
	m.cache.Set(key, w, length)
	return w
}

func (m *MemoryStore) Incr(ctx context.Context, key string, length time.Duration) (int64, time.Duration, error) {
	w := m.getWindow(key, length)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := m.now()
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(length)
		m.cache.Set(key, w, length)
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (m *MemoryStore) Peek(ctx context.Context, key string) (int64, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return 0, nil
	}
	w := v.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()
	if !m.now().Before(w.resetAt) {
		return 0, nil
	}
	return w.count, nil
}

func (m *MemoryStore) Reset(ctx context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
