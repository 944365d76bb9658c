// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/safetycheck/pkg/types"
)

func newTestLayered(t *testing.T, ttl time.Duration, entries int) (*Layered, *Store) {
	t.Helper()
	s := newTestStore(t, ttl)
	l, err := NewLayered(s, entries)
	if err != nil {
		t.Fatalf("NewLayered: %v", err)
	}
	return l, s
}

func setNow(l *Layered, s *Store, now time.Time) {
	fn := func() time.Time { return now }
	l.now = fn
	s.now = fn
}

func TestLayeredServesFromMemory(t *testing.T) {
	l, s := newTestLayered(t, time.Hour, 8)
	ctx := context.Background()

	if err := l.Store(ctx, "aspirin", types.ModeBasic, sampleVerdict("aspirin")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Remove the row underneath; the memory front must still answer.
	if _, err := s.db.Exec(`DELETE FROM verdicts`); err != nil {
		t.Fatalf("deleting rows: %v", err)
	}
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); !ok {
		t.Error("memory front did not serve the entry")
	}
}

func TestLayeredNoStaleAfterTTL(t *testing.T) {
	l, s := newTestLayered(t, time.Hour, 8)
	ctx := context.Background()

	base := time.Now()
	setNow(l, s, base)
	if err := l.Store(ctx, "aspirin", types.ModeBasic, sampleVerdict("aspirin")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// The SQLite row still exists but both layers must treat it as absent.
	setNow(l, s, base.Add(2*time.Hour))
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); ok {
		t.Error("stale entry served after TTL")
	}
}

func TestLayeredRepopulatesFromStore(t *testing.T) {
	l, s := newTestLayered(t, time.Hour, 8)
	ctx := context.Background()

	// Write through the store alone, bypassing the memory front.
	if err := s.Store(ctx, "aspirin", types.ModeBasic, sampleVerdict("aspirin")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := l.Lookup(ctx, "aspirin", types.ModeBasic)
	if !ok {
		t.Fatal("layered lookup missed a stored row")
	}
	if got.SubstanceName != "aspirin" {
		t.Errorf("SubstanceName = %q", got.SubstanceName)
	}

	// Second lookup is a memory hit even with the row gone.
	if _, err := s.db.Exec(`DELETE FROM verdicts`); err != nil {
		t.Fatalf("deleting rows: %v", err)
	}
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); !ok {
		t.Error("memory front not populated by the store hit")
	}
}

func TestLayeredMemoryInheritsRowExpiry(t *testing.T) {
	l, s := newTestLayered(t, time.Hour, 8)
	ctx := context.Background()

	base := time.Now()
	setNow(l, s, base)
	if err := s.Store(ctx, "aspirin", types.ModeBasic, sampleVerdict("aspirin")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Populate the memory front near the end of the row's life.
	setNow(l, s, base.Add(59*time.Minute))
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); !ok {
		t.Fatal("lookup missed")
	}

	// Past the row expiry the memory copy must not outlive it.
	setNow(l, s, base.Add(61*time.Minute))
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); ok {
		t.Error("memory copy outlived the row expiry")
	}
}

func TestLayeredEviction(t *testing.T) {
	l, s := newTestLayered(t, time.Hour, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := l.Store(ctx, name, types.ModeBasic, sampleVerdict(name)); err != nil {
			t.Fatalf("Store %s: %v", name, err)
		}
	}

	// "a" was evicted from memory but must still come back from SQLite.
	if _, err := s.db.Exec(`DELETE FROM verdicts WHERE name != 'a'`); err != nil {
		t.Fatalf("deleting rows: %v", err)
	}
	if _, ok := l.Lookup(ctx, "a", types.ModeBasic); !ok {
		t.Error("evicted entry not recovered from the store")
	}
}

func TestLayeredModeIsolation(t *testing.T) {
	l, _ := newTestLayered(t, time.Hour, 8)
	ctx := context.Background()

	if err := l.Store(ctx, "aspirin", types.ModeComprehensive, sampleVerdict("aspirin")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, ok := l.Lookup(ctx, "aspirin", types.ModeBasic); ok {
		t.Error("comprehensive entry served for basic lookup")
	}
}
