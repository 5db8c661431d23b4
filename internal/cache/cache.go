// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes fetch results keyed by the exact fetch parameters.
// How long an entry lives is an explicit policy (none, process lifetime, or
// time-to-live) and where it lives is a pluggable Store (memory or SQLite).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/pkg/types"
)

// Key identifies one fetch. FromDate is the YYYY-MM-DD bound or empty.
type Key struct {
	InstitutionID string
	FromDate      string
	Mode          types.FetchMode
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.InstitutionID, k.FromDate, k.Mode)
}

// Entry is a memoized, complete fetch.
type Entry struct {
	Works    []json.RawMessage
	Requests int
	StoredAt time.Time
}

// Store persists entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, e Entry) error
	Close() error
}

// Status describes how Memo.Do satisfied a call.
type Status string

const (
	StatusBypass  Status = "bypass"
	StatusHit     Status = "hit"
	StatusMiss    Status = "miss"
	StatusExpired Status = "expired"
)

// Open returns the Store selected by cfg.Backend.
func Open(cfg types.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case types.CacheMemory, "":
		return NewMemoryStore(), nil
	case types.CacheSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// FetchFunc produces a fresh entry. A non-nil error means the entry is
// incomplete; it is returned to the caller but never stored.
type FetchFunc func(ctx context.Context) (Entry, error)

// Memo applies a cache policy in front of a FetchFunc. Calls are
// serialized so concurrent renders share one upstream fetch.
type Memo struct {
	mu      sync.Mutex
	store   Store
	policy  types.CachePolicy
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewMemo wraps store with the policy from cfg.
func NewMemo(cfg types.CacheConfig, store Store, metrics *observability.Metrics, logger zerolog.Logger) *Memo {
	policy := cfg.Policy
	if policy == "" {
		policy = types.CacheProcess
	}
	return &Memo{
		store:   store,
		policy:  policy,
		ttl:     cfg.TTL,
		now:     time.Now,
		metrics: metrics,
		logger:  observability.Component(logger, "cache"),
	}
}

// Policy returns the configured policy.
func (m *Memo) Policy() types.CachePolicy { return m.policy }

// Do returns the cached entry for key when the policy allows it, and
// otherwise calls fetch and stores a successful result. Store failures are
// logged and treated as misses.
func (m *Memo) Do(ctx context.Context, key Key, fetch FetchFunc) (Entry, Status, error) {
	if m == nil || m.policy == types.CacheNone || m.store == nil {
		e, err := fetch(ctx)
		return e, StatusBypass, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	status := StatusMiss
	e, ok, err := m.store.Get(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn().Err(err).Str("key", key.String()).Msg("cache read failed")
	case ok && m.expired(e):
		status = StatusExpired
	case ok:
		m.metrics.ObserveCache(string(StatusHit))
		m.logger.Debug().Str("key", key.String()).Time("stored_at", e.StoredAt).Msg("cache hit")
		return e, StatusHit, nil
	}
	m.metrics.ObserveCache(string(status))

	fresh, err := fetch(ctx)
	if err != nil {
		return fresh, status, err
	}
	fresh.StoredAt = m.now()
	if perr := m.store.Put(ctx, key, fresh); perr != nil {
		m.logger.Warn().Err(perr).Str("key", key.String()).Msg("cache write failed")
	}
	return fresh, status, nil
}

func (m *Memo) expired(e Entry) bool {
	if m.policy != types.CacheTTL || m.ttl <= 0 {
		return false
	}
	return m.now().Sub(e.StoredAt) > m.ttl
}

// MemoryStore keeps entries in a map for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key Key, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
