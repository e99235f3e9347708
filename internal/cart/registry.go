package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultIdleTTL is how long an unused session store stays cached.
const DefaultIdleTTL = 30 * time.Minute

// PersisterFactory returns the persister backing one session's cart.
type PersisterFactory func(sessionID string) Persister

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per session. A cached store is reloaded from
// persistence on every Get, so writes from other processes sharing the
// storage are seen; concurrent writers resolve as last writer wins. Stores
// unused for longer than the idle TTL are evicted.
type Registry struct {
	mu           sync.Mutex
	entries      map[string]*registryEntry
	newPersister PersisterFactory
	logger       *zap.Logger

	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL overrides DefaultIdleTTL. A non-positive ttl disables eviction.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = ttl }
}

func NewRegistry(factory PersisterFactory, logger *zap.Logger, opts ...RegistryOption) *Registry {
	if factory == nil {
		factory = func(string) Persister { return nil }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		entries:      make(map[string]*registryEntry),
		newPersister: factory,
		logger:       logger,
		idleTTL:      DefaultIdleTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.now()
	return r
}

// Get returns the session's store, opening it on first use. A storage failure
// is returned and nothing is cached, so a later request retries the load.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	e, ok := r.entries[sessionID]
	if ok {
		e.lastUsed = now
	}
	r.mu.Unlock()

	if ok {
		if err := e.store.Reload(ctx); err != nil {
			return nil, err
		}
		return e.store, nil
	}

	opened, err := Open(ctx, r.newPersister(sessionID), r.logger.With(zap.String("session_id", sessionID)))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request for the same session may have won the race
	if e, ok := r.entries[sessionID]; ok {
		e.lastUsed = now
		return e.store, nil
	}
	r.entries[sessionID] = &registryEntry{store: opened, lastUsed: now}
	return opened, nil
}

// sweepLocked evicts idle stores, at most once per idle TTL. A store holding a
// settled cart it could not save yet is kept.
func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	r.lastSweep = now
	for id, e := range r.entries {
		if now.Sub(e.lastUsed) >= r.idleTTL && !e.store.hasUnsaved() {
			delete(r.entries, id)
		}
	}
}

// Forget drops the cached store so the next Get reopens it from persistence.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
