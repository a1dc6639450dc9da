package engine

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type cacheSnapshot struct {
	Ceiling int
	Keys    []snapshotKey
	Entries []cacheEntry
}

type snapshotKey struct {
	Fingerprint string
	Depth       int
	Side        Side
}

// SaveSnapshot writes the cache contents to path via a temp-file rename, so a
// crash mid-write never leaves a truncated snapshot behind.
func (c *TranspositionCache) SaveSnapshot(path string) error {
	c.mu.RLock()
	snap := cacheSnapshot{Ceiling: c.ceiling}
	snap.Keys = make([]snapshotKey, 0, len(c.entries))
	snap.Entries = make([]cacheEntry, 0, len(c.entries))
	for k, e := range c.entries {
		snap.Keys = append(snap.Keys, snapshotKey{Fingerprint: k.fingerprint, Depth: k.depth, Side: k.side})
		snap.Entries = append(snap.Entries, e)
	}
	c.mu.RUnlock()

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	log.Printf("[engine:cache] snapshot saved: %d entries -> %s", len(snap.Keys), path)
	return nil
}

// LoadSnapshot restores entries from a snapshot written by SaveSnapshot. A
// missing file is not an error. A snapshot written with a different ceiling
// is skipped; its entry population was shaped by different overflow behavior.
func (c *TranspositionCache) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap cacheSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Ceiling != c.ceiling {
		log.Printf("[engine:cache] snapshot ceiling %d != configured %d, skipping load", snap.Ceiling, c.ceiling)
		return nil
	}
	if len(snap.Keys) != len(snap.Entries) {
		return fmt.Errorf("corrupt snapshot: %d keys, %d entries", len(snap.Keys), len(snap.Entries))
	}

	c.mu.Lock()
	for i, k := range snap.Keys {
		if len(c.entries) >= c.ceiling {
			break
		}
		c.entries[cacheKey{fingerprint: k.Fingerprint, depth: k.Depth, side: k.Side}] = snap.Entries[i]
	}
	loaded := len(c.entries)
	c.mu.Unlock()
	log.Printf("[engine:cache] snapshot loaded: %d entries from %s", loaded, path)
	return nil
}
