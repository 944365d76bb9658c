// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/safetycheck/pkg/types"
)

const defaultMemoryEntries = 256

// memoryEntry carries its own expiry so a hit can be revalidated without
// touching SQLite.
type memoryEntry struct {
	verdict   types.SafetyVerdict
	expiresAt time.Time
}

// Layered fronts the SQLite store with a bounded LRU. Reads consult the LRU
// first; writes go to both. Either layer may miss independently.
type Layered struct {
	store *Store
	mem   *lru.Cache[string, memoryEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLayered wraps the store with an in-memory front of up to entries items.
func NewLayered(store *Store, entries int) (*Layered, error) {
	if entries <= 0 {
		entries = defaultMemoryEntries
	}
	mem, err := lru.New[string, memoryEntry](entries)
	if err != nil {
		return nil, err
	}
	return &Layered{store: store, mem: mem, ttl: store.ttl, now: store.now}, nil
}

// Close releases the underlying store.
func (l *Layered) Close() error {
	return l.store.Close()
}

func cacheKey(name string, mode types.AnalysisMode) string {
	return name + "|" + string(mode)
}

// Lookup checks the memory front, then the store. A stale memory entry is
// evicted and the lookup falls through.
func (l *Layered) Lookup(ctx context.Context, name string, mode types.AnalysisMode) (*types.SafetyVerdict, bool) {
	key := cacheKey(name, mode)
	if entry, ok := l.mem.Get(key); ok {
		if l.now().Before(entry.expiresAt) {
			verdict := entry.verdict
			return &verdict, true
		}
		l.mem.Remove(key)
	}

	verdict, expiry, ok := l.store.lookupWithExpiry(ctx, name, mode)
	if !ok {
		return nil, false
	}
	// The memory entry inherits the row's expiry so both layers age together.
	l.mem.Add(key, memoryEntry{verdict: *verdict, expiresAt: expiry})
	return verdict, true
}

// Store writes through to SQLite and refreshes the memory front. A store
// failure leaves the memory front untouched.
func (l *Layered) Store(ctx context.Context, name string, mode types.AnalysisMode, verdict *types.SafetyVerdict) error {
	if err := l.store.Store(ctx, name, mode, verdict); err != nil {
		return err
	}
	l.mem.Add(cacheKey(name, mode), memoryEntry{verdict: *verdict, expiresAt: l.now().Add(l.ttl)})
	return nil
}
