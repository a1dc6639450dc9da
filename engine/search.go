package engine

import (
	"fmt"
	"time"
)

const (
	// MaxQuiesceDepth caps the capture-only extension below the nominal
	// horizon so forcing sequences cannot blow up the tree.
	MaxQuiesceDepth = 8

	// maxPly bounds the killer-move table.
	maxPly = 64

	// killerBoost slots quiet refutations above the remaining quiet moves
	// but below captures. History counters are clamped below it.
	killerBoost     = 1_000_000
	historyBoostCap = 900_000
)

// searchContext carries everything one top-level search call needs. A fresh
// context is built per call, so nothing here outlives the search.
type searchContext struct {
	pos        Rules
	eval       Evaluator
	orderer    *MoveOrderer
	cache      *TranspositionCache
	useCache   bool
	useQuiesce bool
	breadth    int
	deadline   time.Time
	shouldStop func() bool
	verify     bool
	stats      *SearchStats

	killers [maxPly][2]Move
	history map[[2]int]int

	timedOut bool
}

// expired reports whether the time budget or the caller's stop token has
// fired. Once true it stays true; the search unwinds returning static
// evaluations from that point on.
func (sc *searchContext) expired() bool {
	if sc.timedOut {
		return true
	}
	if sc.shouldStop != nil && sc.shouldStop() {
		sc.timedOut = true
	} else if !sc.deadline.IsZero() && time.Now().After(sc.deadline) {
		sc.timedOut = true
	}
	if sc.timedOut {
		sc.stats.TimedOut = true
	}
	return sc.timedOut
}

func (sc *searchContext) apply(m Move) {
	if err := sc.pos.Apply(m); err != nil {
		panic(fmt.Sprintf("engine: apply %v rejected by rules: %v", m, err))
	}
}

func (sc *searchContext) undo(want string) {
	if err := sc.pos.Undo(); err != nil {
		panic(fmt.Sprintf("engine: undo failed: %v", err))
	}
	if sc.verify && want != "" {
		if got := sc.pos.Fingerprint(); got != want {
			panic(fmt.Sprintf("engine: apply/undo fingerprint mismatch: want %q got %q", want, got))
		}
	}
}

// alphaBeta is the recursive minimax step with [alpha, beta] pruning. Scores
// are always from SideFirst's perspective; the maximizing flag alternates
// per ply.
func (sc *searchContext) alphaBeta(depth, ply, alpha, beta int, maximizing bool) int {
	if alpha > beta {
		panic(fmt.Sprintf("engine: alpha %d exceeds beta %d at depth %d", alpha, beta, depth))
	}
	sc.stats.Nodes++

	if sc.expired() {
		return sc.eval.Evaluate(sc.pos)
	}

	fp := sc.pos.Fingerprint()
	side := sc.pos.SideToMove()
	if sc.useCache {
		if score, _, _, ok := sc.cache.Get(fp, depth, side); ok {
			sc.stats.CacheHits++
			return score
		}
	}

	moves := sc.pos.LegalMoves()
	if len(moves) == 0 || sc.pos.IsCheckmate() || sc.pos.IsDrawn() {
		return sc.eval.Evaluate(sc.pos)
	}
	if depth <= 0 {
		if sc.useQuiesce {
			return sc.quiesce(MaxQuiesceDepth, alpha, beta, maximizing)
		}
		return sc.eval.Evaluate(sc.pos)
	}

	ordered := sc.orderCandidates(moves, ply)
	if sc.breadth > 0 && len(ordered) > sc.breadth {
		ordered = ordered[:sc.breadth]
	}

	var bestMove Move
	hasBest := false
	var best int
	if maximizing {
		best = -ScoreInfinity
	} else {
		best = ScoreInfinity
	}

	for _, m := range ordered {
		sc.apply(m)
		score := sc.alphaBeta(depth-1, ply+1, alpha, beta, !maximizing)
		sc.undo(fp)

		if maximizing {
			if score > best {
				best, bestMove, hasBest = score, m, true
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best, bestMove, hasBest = score, m, true
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			sc.stats.Cutoffs++
			sc.recordCutoff(m, ply, depth)
			break
		}
		if sc.timedOut {
			break
		}
	}

	// Results reached after the clock ran out are partial; caching them
	// would poison later searches.
	if sc.useCache && !sc.timedOut {
		sc.cache.Put(fp, depth, side, best, bestMove, hasBest)
		sc.stats.CacheStores++
	}
	return best
}

// quiesce extends the horizon along capture sequences only. The stand-pat
// score bounds the window immediately, so a quiet position costs one static
// evaluation and nothing more.
func (sc *searchContext) quiesce(qdepth, alpha, beta int, maximizing bool) int {
	sc.stats.QuiesceNodes++

	standPat := sc.eval.Evaluate(sc.pos)
	if qdepth <= 0 || sc.expired() {
		return standPat
	}
	if sc.pos.IsCheckmate() || sc.pos.IsDrawn() {
		return standPat
	}

	if maximizing {
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	} else {
		if standPat <= alpha {
			return standPat
		}
		if standPat < beta {
			beta = standPat
		}
	}

	var captures []Move
	for _, m := range sc.pos.LegalMoves() {
		if m.IsCapture() {
			captures = append(captures, m)
		}
	}
	if len(captures) == 0 {
		return standPat
	}
	captures = sc.orderer.Order(sc.pos, captures)

	best := standPat
	fp := ""
	if sc.verify {
		fp = sc.pos.Fingerprint()
	}
	for _, m := range captures {
		sc.apply(m)
		score := sc.quiesce(qdepth-1, alpha, beta, !maximizing)
		sc.undo(fp)

		if maximizing {
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			sc.stats.Cutoffs++
			break
		}
	}
	return best
}

// orderCandidates applies the public ordering, then layers the search-local
// heuristics on top: killer moves collected at this ply and the history
// counters for quiet moves. Stable, so ties keep generation order.
func (sc *searchContext) orderCandidates(moves []Move, ply int) []Move {
	ordered := sc.orderer.Order(sc.pos, moves)
	if ply >= maxPly {
		return ordered
	}
	k0, k1 := sc.killers[ply][0], sc.killers[ply][1]
	boost := func(m Move) int {
		b := 0
		if m.SameAs(k0) || m.SameAs(k1) {
			b += killerBoost
		}
		if h := sc.history[[2]int{m.From, m.To}]; h > 0 {
			if h > historyBoostCap {
				h = historyBoostCap
			}
			b += h
		}
		return b
	}
	// Only quiet moves carry heuristics worth resorting for.
	any := false
	for _, m := range ordered {
		if !m.IsCapture() && boost(m) > 0 {
			any = true
			break
		}
	}
	if !any {
		return ordered
	}
	reordered := make([]Move, 0, len(ordered))
	var quiet []Move
	for _, m := range ordered {
		if m.IsCapture() || m.GivesCheck || m.Promotion != NoPiece || m.IsCastle {
			reordered = append(reordered, m)
		} else {
			quiet = append(quiet, m)
		}
	}
	// Boosted quiet moves first, preserving relative order inside each class.
	var plain []Move
	for _, m := range quiet {
		if boost(m) > 0 {
			reordered = append(reordered, m)
		} else {
			plain = append(plain, m)
		}
	}
	reordered = append(reordered, plain...)
	return reordered
}

// recordCutoff remembers the quiet move that refuted this node so sibling
// nodes try it early.
func (sc *searchContext) recordCutoff(m Move, ply, depth int) {
	if m.IsCapture() {
		return
	}
	if ply < maxPly && !m.SameAs(sc.killers[ply][0]) {
		sc.killers[ply][1] = sc.killers[ply][0]
		sc.killers[ply][0] = m
	}
	if sc.history == nil {
		sc.history = make(map[[2]int]int)
	}
	sc.history[[2]int{m.From, m.To}] += depth * depth
}
