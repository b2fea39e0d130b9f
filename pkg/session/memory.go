package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. Snapshots do not survive a
// restart; use BoltStore for that.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	closed  bool
	done    chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets how often expired snapshots are dropped.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.cleanupInterval = d
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{cleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &MemoryStore{
		entries: make(map[string]Entry),
		done:    make(chan struct{}),
	}
	go m.cleanupLoop(cfg.cleanupInterval)
	return m
}

func (m *MemoryStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed{}
	}
	m.entries[id] = Entry{Data: clone(data), ExpiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed{}
	}
	e, ok := m.entries[id]
	if !ok || time.Now().After(e.ExpiresAt) {
		return nil, nil
	}
	return clone(e.Data), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed{}
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed{}
	}
	if e, ok := m.entries[id]; ok {
		e.ExpiresAt = expiresAt
		m.entries[id] = e
	}
	return nil
}

func (m *MemoryStore) SaveAll(ctx context.Context, entries map[string]Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed{}
	}
	for id, e := range entries {
		m.entries[id] = Entry{Data: clone(e.Data), ExpiresAt: e.ExpiresAt}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.entries = nil
	return nil
}

// Count returns the number of stored snapshots, expired ones included.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(time.Now())
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	for id, e := range m.entries {
		if now.After(e.ExpiresAt) {
			delete(m.entries, id)
		}
	}
}
