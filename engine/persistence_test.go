package engine

import (
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.gob")

	c := NewTranspositionCache(64)
	c.Put("fp1", 3, SideFirst, 120, Move{From: 1, To: 2}, true)
	c.Put("fp2", 2, SideSecond, -45, Move{}, false)
	if err := c.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := NewTranspositionCache(64)
	if err := restored.LoadSnapshot(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries after load, got %d", restored.Len())
	}
	score, best, hasMove, ok := restored.Get("fp1", 3, SideFirst)
	if !ok || score != 120 || !hasMove || best.To != 2 {
		t.Fatalf("entry lost in round trip: ok=%v score=%d move=%v", ok, score, best)
	}
}

func TestSnapshotCeilingMismatchSkipsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.gob")

	c := NewTranspositionCache(64)
	c.Put("fp1", 1, SideFirst, 5, Move{}, false)
	if err := c.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := NewTranspositionCache(128)
	if err := other.LoadSnapshot(path); err != nil {
		t.Fatalf("mismatched snapshot should be skipped, not fail: %v", err)
	}
	if other.Len() != 0 {
		t.Fatalf("mismatched snapshot must not populate the cache, got %d entries", other.Len())
	}
}

func TestSnapshotMissingFileIsNotAnError(t *testing.T) {
	c := NewTranspositionCache(64)
	if err := c.LoadSnapshot(filepath.Join(t.TempDir(), "absent.gob")); err != nil {
		t.Fatalf("missing snapshot must load as empty: %v", err)
	}
}
