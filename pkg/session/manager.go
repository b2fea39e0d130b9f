package session

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/vbind/pkg/telemetry"
)

// Manager tracks live sessions. A session whose client disconnects is
// detached: it keeps its model snapshot and can be resumed within
// ResumeWindow. Detached sessions beyond MaxDetached are evicted least
// recently used first, after their snapshot is written to the store.
type Manager struct {
	mu sync.Mutex

	sessions map[string]*Session

	// front = most recently detached or touched
	detached      *list.List
	detachedIndex map[string]*list.Element

	byIP map[string]int

	config ManagerConfig
	store  Store
	rec    telemetry.Recorder
	logger *slog.Logger
	now    func() time.Time

	done    chan struct{}
	stopped bool
}

// Session is the manager's record of one live session.
type Session struct {
	ID         string
	IP         string
	CreatedAt  time.Time
	LastActive time.Time

	// DetachedAt is zero while a client is connected.
	DetachedAt time.Time

	// Snapshot is the encoded model, kept while detached.
	Snapshot []byte
}

// Connected reports whether a client is attached.
func (s *Session) Connected() bool {
	return s.DetachedAt.IsZero()
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// MaxDetached is the number of detached sessions kept in memory.
	// Default: 1000.
	MaxDetached int

	// MaxPerIP limits sessions per client address. Zero means no limit.
	// Default: 50.
	MaxPerIP int

	// ResumeWindow is how long a detached session can be resumed, and how
	// long stored snapshots live.
	// Default: 10 minutes.
	ResumeWindow time.Duration

	// CleanupInterval is how often expired detached sessions are dropped.
	// Default: 1 minute.
	CleanupInterval time.Duration
}

// DefaultManagerConfig returns the default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxDetached:     1000,
		MaxPerIP:        50,
		ResumeWindow:    10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

var (
	// ErrTooManyFromIP is returned when an address reached MaxPerIP.
	ErrTooManyFromIP = errors.New("too many sessions from this address")

	// ErrExpired is returned when resuming after the resume window.
	ErrExpired = errors.New("session has expired")

	// ErrNotFound is returned for unknown session ids.
	ErrNotFound = errors.New("session not found")

	// ErrAttached is returned when resuming a session that has a client.
	ErrAttached = errors.New("session already has a client")

	// ErrStopped is returned after Shutdown.
	ErrStopped = errors.New("session manager is stopped")
)

// NewManager creates a Manager. store and rec may be nil.
func NewManager(store Store, config ManagerConfig, rec telemetry.Recorder, logger *slog.Logger) *Manager {
	def := DefaultManagerConfig()
	if config.MaxDetached <= 0 {
		config.MaxDetached = def.MaxDetached
	}
	if config.ResumeWindow <= 0 {
		config.ResumeWindow = def.ResumeWindow
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		sessions:      make(map[string]*Session),
		detached:      list.New(),
		detachedIndex: make(map[string]*list.Element),
		byIP:          make(map[string]int),
		config:        config,
		store:         store,
		rec:           telemetry.OrNop(rec),
		logger:        logger.With("component", "session_manager"),
		now:           time.Now,
		done:          make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Attach registers a new connected session.
func (m *Manager) Attach(id, ip string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, ErrStopped
	}
	if _, ok := m.sessions[id]; ok {
		return nil, ErrAttached
	}
	if m.config.MaxPerIP > 0 && m.byIP[ip] >= m.config.MaxPerIP {
		return nil, ErrTooManyFromIP
	}

	now := m.now()
	s := &Session{ID: id, IP: ip, CreatedAt: now, LastActive: now}
	m.addLocked(s)
	m.logger.Debug("session attached", "session_id", id, "ip", ip, "ip_sessions", m.byIP[ip])
	return s, nil
}

// Detach marks a session as disconnected and keeps snapshot for Resume.
// The snapshot is also written to the store.
func (m *Manager) Detach(id string, snapshot []byte) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || m.stopped {
		m.mu.Unlock()
		return
	}

	now := m.now()
	s.DetachedAt = now
	s.Snapshot = clone(snapshot)
	if elem, ok := m.detachedIndex[id]; ok {
		m.detached.Remove(elem)
	}
	m.detachedIndex[id] = m.detached.PushFront(id)

	var evicted map[string]Entry
	for m.detached.Len() > m.config.MaxDetached {
		victim := m.detached.Back().Value.(string)
		if vs := m.sessions[victim]; vs != nil && len(vs.Snapshot) > 0 {
			if evicted == nil {
				evicted = map[string]Entry{}
			}
			evicted[victim] = Entry{Data: vs.Snapshot, ExpiresAt: vs.DetachedAt.Add(m.config.ResumeWindow)}
		}
		m.removeLocked(victim)
		m.logger.Debug("evicted session", "session_id", victim, "reason", "detached_limit_exceeded")
	}
	detachedCount := m.detached.Len()
	m.mu.Unlock()

	m.persist(id, snapshot, now.Add(m.config.ResumeWindow))
	if len(evicted) > 0 && m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.store.SaveAll(ctx, evicted); err != nil {
			m.logger.Warn("failed to persist evicted sessions", "count", len(evicted), "error", err)
		}
		cancel()
	}

	m.logger.Debug("session detached", "session_id", id, "detached", detachedCount)
}

// Resume reattaches a detached session and returns its snapshot. Sessions
// no longer in memory are looked up in the store and registered again.
func (m *Manager) Resume(ctx context.Context, id, ip string) ([]byte, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrStopped
	}

	if s, ok := m.sessions[id]; ok {
		defer m.mu.Unlock()
		if s.Connected() {
			return nil, ErrAttached
		}
		if m.now().Sub(s.DetachedAt) > m.config.ResumeWindow {
			m.removeLocked(id)
			m.forget(id)
			return nil, ErrExpired
		}
		if elem, ok := m.detachedIndex[id]; ok {
			m.detached.Remove(elem)
			delete(m.detachedIndex, id)
		}
		data := s.Snapshot
		s.Snapshot = nil
		s.DetachedAt = time.Time{}
		s.LastActive = m.now()
		m.logger.Debug("session resumed", "session_id", id)
		return data, nil
	}
	m.mu.Unlock()

	if m.store == nil {
		return nil, ErrNotFound
	}
	data, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	if _, err := m.Attach(id, ip); err != nil {
		return nil, err
	}
	m.logger.Debug("session restored from store", "session_id", id)
	return data, nil
}

// Get returns the session with id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Touch marks a session as active.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.LastActive = m.now()
		if elem, ok := m.detachedIndex[id]; ok {
			m.detached.MoveToFront(elem)
		}
	}
}

// Remove ends a session and deletes its stored snapshot.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		m.removeLocked(id)
		m.forget(id)
	}
}

// Shutdown stops the manager and writes every held snapshot to the store.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.done)

	entries := make(map[string]Entry)
	for id, s := range m.sessions {
		if len(s.Snapshot) > 0 {
			entries[id] = Entry{Data: s.Snapshot, ExpiresAt: m.now().Add(m.config.ResumeWindow)}
		}
	}
	m.mu.Unlock()

	if m.store == nil || len(entries) == 0 {
		return nil
	}
	if err := m.store.SaveAll(ctx, entries); err != nil {
		m.logger.Warn("failed to persist sessions on shutdown", "count", len(entries), "error", err)
		return err
	}
	m.logger.Info("persisted sessions on shutdown", "count", len(entries))
	return nil
}

// ManagerStats is a point in time view of the manager.
type ManagerStats struct {
	Total     int
	Connected int
	Detached  int
	UniqueIPs int
}

// Stats returns current counts.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := ManagerStats{
		Total:     len(m.sessions),
		Detached:  m.detached.Len(),
		UniqueIPs: len(m.byIP),
	}
	for _, s := range m.sessions {
		if s.Connected() {
			st.Connected++
		}
	}
	return st
}

func (m *Manager) addLocked(s *Session) {
	m.sessions[s.ID] = s
	m.byIP[s.IP]++
	m.rec.Sessions(1)
}

func (m *Manager) removeLocked(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	m.byIP[s.IP]--
	if m.byIP[s.IP] <= 0 {
		delete(m.byIP, s.IP)
	}
	if elem, ok := m.detachedIndex[id]; ok {
		m.detached.Remove(elem)
		delete(m.detachedIndex, id)
	}
	m.rec.Sessions(-1)
}

func (m *Manager) persist(id string, data []byte, expiresAt time.Time) {
	if m.store == nil || len(data) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Save(ctx, id, data, expiresAt); err != nil {
		m.logger.Warn("failed to persist detached session", "session_id", id, "error", err)
	}
}

func (m *Manager) forget(id string) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("failed to delete stored session", "session_id", id, "error", err)
	}
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-m.done:
			return
		}
	}
}

// cleanupExpired drops detached sessions past the resume window. Their
// stored snapshots expire on their own.
func (m *Manager) cleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return 0
	}
	now := m.now()
	var expired []string
	for id, s := range m.sessions {
		if !s.Connected() && now.Sub(s.DetachedAt) > m.config.ResumeWindow {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.removeLocked(id)
	}
	if len(expired) > 0 {
		m.logger.Debug("cleaned up expired sessions", "count", len(expired), "remaining", len(m.sessions))
	}
	return len(expired)
}
