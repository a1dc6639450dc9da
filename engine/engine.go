package engine

import (
	"log"
	"math/rand"
	"time"
)

// Options parameterizes one search call. Zero values fall back to sane
// defaults via normalize.
type Options struct {
	// Depth is the nominal search depth in plies.
	Depth int

	// TimeBudgetMs bounds wall-clock time. The search is an anytime
	// algorithm: when the budget runs out mid-search it returns the best
	// move found so far, never an error and never an illegal move.
	TimeBudgetMs int

	// CandidateBreadth restricts each node to the top-K moves by ordering
	// rank. Zero searches everything.
	CandidateBreadth int

	UseQuiescence bool
	UseBook       bool

	// DisableCache turns off transposition lookups for this call. Results
	// must be identical either way; only latency differs.
	DisableCache bool

	// VerifyRoundTrip re-checks the fingerprint after every undo and panics
	// on mismatch. Development aid, off in production paths.
	VerifyRoundTrip bool

	// ShouldStop is a cooperative cancellation token, polled at the same
	// points the elapsed-time check runs.
	ShouldStop func() bool

	// Stats, when non-nil, receives counters for this call.
	Stats *SearchStats

	// Progress, when non-nil, is called after every completed deepening
	// iteration.
	Progress func(ProgressUpdate)
}

// ProgressUpdate describes one completed deepening iteration.
type ProgressUpdate struct {
	Depth int    `json:"depth"`
	Score int    `json:"score"`
	Move  Move   `json:"move"`
	Nodes uint64 `json:"nodes"`
}

// RankedMove is one entry of a FindTopMoves result.
type RankedMove struct {
	Rank           int     `json:"rank"`
	Move           Move    `json:"move"`
	Score          int     `json:"score"`
	WinProbability float64 `json:"win_probability"`
	Explanation    string  `json:"explanation"`
}

// DifficultyOptions maps a difficulty level (1 weakest .. 4 strongest) to its
// preset knobs. Lower levels search shallower, shorter and narrower; the
// algorithm itself never changes.
func DifficultyOptions(level int) Options {
	switch {
	case level <= 1:
		return Options{Depth: 2, TimeBudgetMs: 500, CandidateBreadth: 6, UseQuiescence: true, UseBook: true}
	case level == 2:
		return Options{Depth: 3, TimeBudgetMs: 1000, CandidateBreadth: 10, UseQuiescence: true, UseBook: true}
	case level == 3:
		return Options{Depth: 4, TimeBudgetMs: 2500, UseQuiescence: true, UseBook: true}
	default:
		return Options{Depth: 5, TimeBudgetMs: 6000, UseQuiescence: true, UseBook: true}
	}
}

func (o Options) normalize() Options {
	if o.Depth <= 0 {
		o.Depth = 3
	}
	if o.Stats == nil {
		o.Stats = &SearchStats{}
	}
	return o
}

func (o Options) deadline(now time.Time) time.Time {
	if o.TimeBudgetMs <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(o.TimeBudgetMs) * time.Millisecond)
}

// Engine owns the session-scoped search state: evaluation weights, the
// transposition cache and an optional opening book. One Engine serves one
// logical game session; two concurrent sessions get two Engines so their
// caches cannot cross-pollute.
type Engine struct {
	weights *Weights
	eval    Evaluator
	orderer *MoveOrderer
	cache   *TranspositionCache
	book    *OpeningBook
	rng     *rand.Rand
}

// New builds an engine around a weight table, with the table evaluator and a
// default-sized cache.
func New(w *Weights) *Engine {
	return &Engine{
		weights: w,
		eval:    NewTableEvaluator(w),
		orderer: &MoveOrderer{Weights: w, SpeculateMate: true},
		cache:   NewTranspositionCache(DefaultCacheCeiling),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetEvaluator swaps the static evaluator, for variants whose value function
// is not material-based. The cache is cleared since old scores no longer
// apply.
func (e *Engine) SetEvaluator(ev Evaluator) {
	e.eval = ev
	e.cache.Clear()
}

// SetBook attaches an opening book.
func (e *Engine) SetBook(b *OpeningBook) { e.book = b }

// SetCacheCeiling replaces the cache with an empty one of the given ceiling.
func (e *Engine) SetCacheCeiling(ceiling int) {
	e.cache = NewTranspositionCache(ceiling)
}

// Cache exposes the transposition cache for stats and persistence.
func (e *Engine) Cache() *TranspositionCache { return e.cache }

// Weights returns the engine's weight table.
func (e *Engine) Weights() *Weights { return e.weights }

// SeedRand fixes the book-selection randomness, for reproducible tests.
func (e *Engine) SeedRand(seed int64) { e.rng = rand.New(rand.NewSource(seed)) }

// ClearCache drops all cached evaluations. Hosts call this on new-game and
// game-reset; stale cross-game entries are a correctness hazard, not just a
// performance one.
func (e *Engine) ClearCache() { e.cache.Clear() }

// Evaluate statically scores the position from SideFirst's perspective, with
// no search.
func (e *Engine) Evaluate(pos Rules) int { return e.eval.Evaluate(pos) }

// FindBestMove picks a move for the side to move. It returns ok=false only
// when the position has no legal moves. The opening book is consulted first
// when enabled; otherwise an iterative-deepening alpha-beta search runs
// within the depth and time budget.
func (e *Engine) FindBestMove(pos Rules, opts Options) (Move, bool) {
	opts = opts.normalize()
	start := time.Now()

	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return Move{}, false
	}

	if opts.UseBook && e.book != nil {
		if m, ok := e.book.Lookup(pos, e.rng); ok {
			opts.Stats.BookHit = true
			opts.Stats.Elapsed = time.Since(start)
			return m, true
		}
	}

	sc := e.newContext(pos, opts, start)
	maximizing := pos.SideToMove() == SideFirst

	ordered := sc.orderCandidates(legal, 0)
	if opts.CandidateBreadth > 0 && len(ordered) > opts.CandidateBreadth {
		ordered = ordered[:opts.CandidateBreadth]
	}
	opts.Stats.CandidateCount = len(ordered)

	best := ordered[0]
	bestScore := 0
	haveScore := false

	for depth := 1; depth <= opts.Depth; depth++ {
		move, score, complete := e.searchRoot(sc, ordered, depth, maximizing)
		if complete {
			best, bestScore, haveScore = move, score, true
			opts.Stats.DepthReached = depth
			if opts.Progress != nil {
				opts.Progress(ProgressUpdate{Depth: depth, Score: score, Move: move, Nodes: opts.Stats.Nodes})
			}
			// Put the proven best in front for the next iteration.
			ordered = promote(ordered, move)
		}
		if sc.timedOut {
			break
		}
		if haveScore && (bestScore >= MateScore || bestScore <= -MateScore) {
			break
		}
	}

	opts.Stats.Elapsed = time.Since(start)
	if sc.timedOut {
		log.Printf("[engine] budget exhausted at depth %d after %s, returning best-so-far", opts.Stats.DepthReached, opts.Stats.Elapsed)
	}
	return best, true
}

// searchRoot scores every root candidate at the given depth. complete is
// false when the clock expired before the first candidate finished, in which
// case the caller keeps its previous iteration's answer.
func (e *Engine) searchRoot(sc *searchContext, ordered []Move, depth int, maximizing bool) (Move, int, bool) {
	alpha, beta := -ScoreInfinity, ScoreInfinity
	var best Move
	var bestScore int
	scoredAny := false

	rootFP := ""
	if sc.verify {
		rootFP = sc.pos.Fingerprint()
	}
	for _, m := range ordered {
		if sc.expired() {
			break
		}
		sc.apply(m)
		score := sc.alphaBeta(depth-1, 1, alpha, beta, !maximizing)
		sc.undo(rootFP)
		if sc.timedOut {
			// The interrupted candidate's score is a partial bound; keep
			// only what finished cleanly.
			break
		}

		if !scoredAny {
			best, bestScore, scoredAny = m, score, true
		} else if maximizing && score > bestScore {
			best, bestScore = m, score
		} else if !maximizing && score < bestScore {
			best, bestScore = m, score
		}
		if maximizing && bestScore > alpha {
			alpha = bestScore
		}
		if !maximizing && bestScore < beta {
			beta = bestScore
		}
	}
	return best, bestScore, scoredAny
}

// FindTopMoves ranks up to n candidate moves best-for-mover first. Each
// candidate is searched one ply shallower from its resulting position and
// annotated with a win probability and a short rationale. Ties keep the
// generation order.
func (e *Engine) FindTopMoves(pos Rules, n int, opts Options) []RankedMove {
	opts = opts.normalize()
	start := time.Now()

	legal := pos.LegalMoves()
	if len(legal) == 0 || n <= 0 {
		return nil
	}

	sc := e.newContext(pos, opts, start)
	mover := pos.SideToMove()
	maximizing := mover == SideFirst

	rootFP := ""
	if sc.verify {
		rootFP = sc.pos.Fingerprint()
	}
	ranked := make([]RankedMove, 0, len(legal))
	for _, m := range legal {
		sc.apply(m)
		score := sc.alphaBeta(opts.Depth-1, 1, -ScoreInfinity, ScoreInfinity, !maximizing)
		sc.undo(rootFP)
		// Under a tiny budget the remaining candidates still get a score:
		// alphaBeta degrades to a static evaluation once expired, so the
		// ranking is always complete.
		ranked = append(ranked, RankedMove{Move: m, Score: score})
	}

	// Best for the mover first; insertion keeps generation order on ties.
	moverScore := func(s int) int {
		if mover == SideFirst {
			return s
		}
		return -s
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && moverScore(ranked[j].Score) > moverScore(ranked[j-1].Score); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].WinProbability = WinProbability(ranked[i].Score, mover == SideFirst)
		ranked[i].Explanation = e.explain(pos, ranked[i].Move, ranked[i].Score, i == 0)
	}
	opts.Stats.Elapsed = time.Since(start)
	opts.Stats.CandidateCount = len(legal)
	return ranked
}

// ExplainMove produces a post-hoc rationale for an already-chosen move, e.g.
// to narrate an opponent's reply to a learner.
func (e *Engine) ExplainMove(pos Rules, m Move) string {
	score := 0
	if err := pos.Apply(m); err == nil {
		score = e.eval.Evaluate(pos)
		if err := pos.Undo(); err != nil {
			panic("engine: undo failed while explaining: " + err.Error())
		}
	}
	return e.explain(pos, m, score, false)
}

func (e *Engine) newContext(pos Rules, opts Options, start time.Time) *searchContext {
	return &searchContext{
		pos:        pos,
		eval:       e.eval,
		orderer:    e.orderer,
		cache:      e.cache,
		useCache:   !opts.DisableCache,
		useQuiesce: opts.UseQuiescence,
		breadth:    opts.CandidateBreadth,
		deadline:   opts.deadline(start),
		shouldStop: opts.ShouldStop,
		verify:     opts.VerifyRoundTrip,
		stats:      opts.Stats,
	}
}

func promote(moves []Move, front Move) []Move {
	for i, m := range moves {
		if m.SameAs(front) {
			if i == 0 {
				return moves
			}
			out := make([]Move, 0, len(moves))
			out = append(out, m)
			out = append(out, moves[:i]...)
			out = append(out, moves[i+1:]...)
			return out
		}
	}
	return moves
}
