package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryMirror is the in-process fallback for the live transcript mirror,
// used when Redis is not configured.
type MemoryMirror struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	ttl   time.Duration
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryMirror creates a new in-memory mirror with the given entry TTL.
func NewMemoryMirror(ttl time.Duration) *MemoryMirror {
	mirror := &MemoryMirror{
		items: make(map[string]*memoryItem),
		ttl:   ttl,
	}

	// Cleanup goroutine removes expired items
	go mirror.cleanupExpired()

	return mirror
}

// Set writes the current transcript for a session.
func (m *MemoryMirror) Set(_ context.Context, sessionID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[sessionID] = &memoryItem{
		value:      text,
		expireTime: time.Now().Add(m.ttl),
	}
	return nil
}

// Get reads the current transcript for a session. Missing or expired keys
// return "".
func (m *MemoryMirror) Get(_ context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.items[sessionID]
	if !exists || time.Now().After(item.expireTime) {
		return "", nil
	}
	return item.value, nil
}

// Delete clears a session's transcript.
func (m *MemoryMirror) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, sessionID)
	return nil
}

func (m *MemoryMirror) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for key, item := range m.items {
			if now.After(item.expireTime) {
				delete(m.items, key)
			}
		}
		m.mu.Unlock()
	}
}
