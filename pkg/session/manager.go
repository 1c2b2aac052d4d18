package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns a fresh random session ID.
func NewID() string {
	return uuid.NewString()
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves a stored snapshot.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// LoadOrStart returns the session's form, restored from the store when a
// snapshot exists, otherwise freshly started and persisted to reserve the ID.
// resumed reports which case happened.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string, bp *form.Blueprint, opts ...form.Option) (f *form.Form, resumed bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		f, resumed, err = m.open(ctx, sessionID, bp, opts)
		return err
	})
	return f, resumed, err
}

// open must be called with the session lock held.
func (m *Manager) open(ctx context.Context, sessionID string, bp *form.Blueprint, opts []form.Option) (*form.Form, bool, error) {
	opts = append(opts, form.WithSessionID(sessionID))
	snap, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		f := bp.NewForm(ctx, opts...)
		if err := f.Restore(ctx, snap); err != nil {
			return nil, false, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
		}
		m.logger.Debug("session resumed", "session_id", sessionID, "step", f.CurrentStep().ID)
		return f, true, nil
	case errors.Is(err, domain.ErrSessionNotFound):
		f := bp.NewForm(ctx, opts...)
		if err := m.store.Save(ctx, sessionID, f.Snapshot()); err != nil {
			return nil, false, fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("session started", "session_id", sessionID)
		return f, false, nil
	default:
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}
}

// Update loads the session's form, applies fn and persists the result, all
// under the session lock. The snapshot is saved even when fn fails, since
// a failed navigation still records edits.
func (m *Manager) Update(ctx context.Context, sessionID string, bp *form.Blueprint, fn func(context.Context, *form.Form) error, opts ...form.Option) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		f, _, err := m.open(ctx, sessionID, bp, opts)
		if err != nil {
			return err
		}
		fnErr := fn(ctx, f)
		if err := m.store.Save(ctx, sessionID, f.Snapshot()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return fnErr
	})
}

// Save persists a snapshot.
func (m *Manager) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, snap)
	})
}

// Checkpoint persists the current state of a form under its session ID.
func (m *Manager) Checkpoint(ctx context.Context, f *form.Form) error {
	if f.SessionID() == "" {
		return fmt.Errorf("form has no session ID")
	}
	return m.Save(ctx, f.SessionID(), f.Snapshot())
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
