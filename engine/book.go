package engine

import (
	"log"
	"math/rand"
)

// BookEntry is one curated reply for a book position. Weight biases random
// selection among near-equal moves; it never overrides legality.
type BookEntry struct {
	Move   Move
	Weight int
	Name   string
}

// OpeningBook maps position-class fingerprints (board + side + rights, no
// move counters) to small hand-curated reply sets. A hit bypasses the search
// entirely; the book is a latency shortcut, never a correctness requirement.
type OpeningBook struct {
	// MinPieceCount gates the book to the early game: positions with fewer
	// pieces than this never hit, whatever the fingerprint says.
	MinPieceCount int

	entries map[string][]BookEntry
}

func NewOpeningBook(minPieceCount int) *OpeningBook {
	return &OpeningBook{
		MinPieceCount: minPieceCount,
		entries:       make(map[string][]BookEntry),
	}
}

// Add registers an entry under a fingerprint.
func (b *OpeningBook) Add(fingerprint string, e BookEntry) {
	if e.Weight <= 0 {
		e.Weight = 1
	}
	b.entries[fingerprint] = append(b.entries[fingerprint], e)
}

// Len returns the number of book positions.
func (b *OpeningBook) Len() int { return len(b.entries) }

// Lookup returns a weighted-random legal book move for the position. Entries
// whose move is not currently legal are filtered out; a stale book line must
// never surface an illegal move. When nothing legal remains the caller falls
// through to the search.
func (b *OpeningBook) Lookup(pos Rules, rng *rand.Rand) (Move, bool) {
	if len(pos.Pieces()) < b.MinPieceCount {
		return Move{}, false
	}
	candidates := b.entries[pos.Fingerprint()]
	if len(candidates) == 0 {
		return Move{}, false
	}

	legal := pos.LegalMoves()
	type match struct {
		move   Move
		weight int
	}
	var matches []match
	total := 0
	for _, e := range candidates {
		for _, lm := range legal {
			if lm.SameAs(e.Move) {
				// Return the generated move, not the stored one, so the
				// derived flags are populated.
				matches = append(matches, match{move: lm, weight: e.Weight})
				total += e.Weight
				break
			}
		}
	}
	if len(matches) == 0 {
		log.Printf("[engine:book] %d stale entries for known position, falling through to search", len(candidates))
		return Move{}, false
	}

	pick := 0
	if rng != nil && total > 0 {
		pick = rng.Intn(total)
	}
	for _, m := range matches {
		pick -= m.weight
		if pick < 0 {
			return m.move, true
		}
	}
	return matches[len(matches)-1].move, true
}
