package engine

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheGetPut(t *testing.T) {
	c := NewTranspositionCache(16)

	if _, _, _, ok := c.Get("fp", 3, SideFirst); ok {
		t.Fatal("empty cache must miss")
	}

	c.Put("fp", 3, SideFirst, 42, Move{From: 1, To: 2}, true)
	score, best, hasMove, ok := c.Get("fp", 3, SideFirst)
	if !ok || score != 42 {
		t.Fatalf("expected hit with score 42, got ok=%v score=%d", ok, score)
	}
	if !hasMove || best.From != 1 || best.To != 2 {
		t.Fatalf("stored move lost: hasMove=%v move=%v", hasMove, best)
	}

	// Depth and side are part of the key.
	if _, _, _, ok := c.Get("fp", 2, SideFirst); ok {
		t.Fatal("different depth must miss")
	}
	if _, _, _, ok := c.Get("fp", 3, SideSecond); ok {
		t.Fatal("different side must miss")
	}
	if _, _, _, ok := c.Get("other", 3, SideFirst); ok {
		t.Fatal("different fingerprint must miss")
	}
}

func TestCacheOverflowClearsEverything(t *testing.T) {
	c := NewTranspositionCache(8)
	for i := 0; i < 8; i++ {
		c.Put(fmt.Sprintf("fp%d", i), 1, SideFirst, i, Move{}, false)
	}
	if c.Len() != 8 {
		t.Fatalf("expected 8 entries, got %d", c.Len())
	}

	// The ninth insert trips the ceiling: full clear, then insert.
	c.Put("fp8", 1, SideFirst, 8, Move{}, false)
	if c.Len() != 1 {
		t.Fatalf("expected full clear plus one entry, got %d", c.Len())
	}
	if _, _, _, ok := c.Get("fp0", 1, SideFirst); ok {
		t.Fatal("pre-overflow entries must be gone")
	}
	if score, _, _, ok := c.Get("fp8", 1, SideFirst); !ok || score != 8 {
		t.Fatalf("post-overflow entry must survive, got ok=%v score=%d", ok, score)
	}
	if stats := c.Stats(); stats.Clears != 1 {
		t.Fatalf("expected 1 clear, got %d", stats.Clears)
	}
}

func TestCacheExplicitClear(t *testing.T) {
	c := NewTranspositionCache(0)
	if c.Ceiling() != DefaultCacheCeiling {
		t.Fatalf("zero ceiling should default, got %d", c.Ceiling())
	}
	c.Put("fp", 1, SideFirst, 7, Move{}, false)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewTranspositionCache(1 << 16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				fp := fmt.Sprintf("fp-%d-%d", w, i)
				c.Put(fp, i%5, SideFirst, i, Move{}, false)
				if score, _, _, ok := c.Get(fp, i%5, SideFirst); !ok || score != i {
					t.Errorf("worker %d: lost entry %s", w, fp)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	if stats.Stores != 8*500 {
		t.Fatalf("expected %d stores, got %d", 8*500, stats.Stores)
	}
	if stats.Hits != 8*500 {
		t.Fatalf("expected %d hits, got %d", 8*500, stats.Hits)
	}
}
