package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used by tests. Entries expire lazily
// on access, matching the TTL behavior of the redis backend closely enough
// for the revocation-store contract.
type MemoryCache struct {
	mu      sync.Mutex
	prefix  string
	entries map[string]memoryEntry
}

func NewMemory(prefix string) *MemoryCache {
	return &MemoryCache{
		prefix:  prefix,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.entries[m.prefix+key] = memoryEntry{value: value, expiresAt: exp}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive(m.prefix + key), nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, m.prefix+key)
	return nil
}

func (m *MemoryCache) DeleteMultiple(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, m.prefix+k)
	}
	return nil
}

func (m *MemoryCache) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.entries {
		if !m.alive(k) {
			continue
		}
		if ok, _ := path.Match(m.prefix+pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemoryCache) Prefix() string { return m.prefix }

// alive reports whether the entry exists and is not expired, removing it
// if its TTL has passed. Callers hold m.mu.
func (m *MemoryCache) alive(full string) bool {
	e, ok := m.entries[full]
	if !ok {
		return false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, full)
		return false
	}
	return true
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
