package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
	busy bool // a transition is running
}

// TransitionFunc computes the next flow from the stored one.
// Returning a nil flow with a nil error leaves the store untouched.
type TransitionFunc func(ctx context.Context, flow *domain.Flow) (*domain.Flow, error)

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	lockRetry time.Duration
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLockRetry sets how often WithLock retries a distributed lock held elsewhere.
func WithLockRetry(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lockRetry = d
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL:   DefaultLockTTL,
		lockRetry: 50 * time.Millisecond,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(sessionID) once done with the entry.
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

func (m *Manager) setBusy(entry *lockEntry, busy bool) {
	m.mu.Lock()
	entry.busy = busy
	m.mu.Unlock()
}

// Busy reports whether a transition for the session is in flight on this replica.
func (m *Manager) Busy(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[sessionID]
	return ok && entry.busy
}

// Load retrieves an existing flow from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, sessionID)
		return err
	})
	return flow, err
}

// Save persists the flow.
func (m *Manager) Save(ctx context.Context, sessionID string, flow *domain.Flow) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, flow)
	})
}

// Delete removes the flow from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session, waiting
// for any transition in progress.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	return m.withDistributedLock(ctx, sessionID, true, fn)
}

// Transition loads the flow, applies fn and saves the result, all under the
// session lock. If a transition for the session is already running it returns
// domain.ErrTransitionInFlight without waiting. Plain reads and writes holding
// the lock are waited for.
func (m *Manager) Transition(ctx context.Context, sessionID string, fn TransitionFunc) (*domain.Flow, error) {
	entry, ok := m.begin(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrTransitionInFlight)
	}
	entry.mu.Lock()
	defer func() {
		m.setBusy(entry, false)
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	var next *domain.Flow
	err := m.withDistributedLock(ctx, sessionID, false, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next, err = fn(ctx, current)
		if err != nil || next == nil {
			return err
		}
		return m.store.Save(ctx, sessionID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// begin marks a transition as running. It fails when one already is.
func (m *Manager) begin(sessionID string) (*lockEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if exists && entry.busy {
		return nil, false
	}
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	entry.busy = true
	return entry, true
}

func (m *Manager) withDistributedLock(ctx context.Context, key string, wait bool, fn func(context.Context) error) error {
	if m.locker == nil {
		return fn(ctx)
	}

	unlock, err := m.lockDistributed(ctx, key, wait)
	if err != nil {
		if errors.Is(err, domain.ErrTransitionInFlight) {
			return err
		}
		return fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
				"key", key,
				"err", err,
			)
		}
	}()

	return fn(ctx)
}

// lockDistributed takes the distributed lock for key. With wait set, a lock
// held elsewhere is retried until the lock TTL has passed, since the holder
// is gone by then.
func (m *Manager) lockDistributed(ctx context.Context, key string, wait bool) (ports.UnlockFunc, error) {
	deadline := time.Now().Add(m.lockTTL)
	for {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err == nil || !wait || !errors.Is(err, domain.ErrTransitionInFlight) {
			return unlock, err
		}
		if !time.Now().Before(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.lockRetry):
		}
	}
}
