package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is the in-process CacheRepository used when Redis is not
// configured.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if m.expired(entry) {
		m.mu.Lock()
		// A concurrent Set may have replaced the entry since it was read.
		if current, ok := m.data[key]; ok && m.expired(current) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (m *MemoryCache) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
	return nil
}
