package engine

// Score sentinels. ScoreInfinity bounds the alpha-beta window and MateScore
// marks terminal losses; both are sized so that mate-distance arithmetic can
// never overflow an int.
const (
	ScoreInfinity = 1_000_000
	MateScore     = 100_000
)

// Weights is the immutable per-variant evaluation configuration: base piece
// values, positional tables, the endgame king table, and the small phase,
// mobility and check adjustments. Tables are written from SideFirst's point
// of view; Orient maps a square to the table index for a given side (nil
// means the index is the square itself for both sides).
type Weights struct {
	BaseValues [MaxPieceKinds]int
	Tables     [MaxPieceKinds][]int

	// KingKind's table is swapped for EndgameKingTable once the position
	// thins out. PhaseKind (the strongest piece, e.g. the queen) gone from
	// the board, or total non-king material at or below EndgameMaterialMax,
	// flags the endgame.
	KingKind           PieceKind
	EndgameKingTable   []int
	PhaseKind          PieceKind
	EndgameMaterialMax int

	MobilityWeight int
	CheckPenalty   int

	Orient func(square int, side Side) int

	// Cosmetic metadata consumed by the explanation layer only.
	CenterSquares []int
	HomeSquares   []int
	SquareName    func(square int) string
	PieceName     func(kind PieceKind) string
}

func (w *Weights) orient(square int, side Side) int {
	if w.Orient == nil {
		return square
	}
	return w.Orient(square, side)
}

// Evaluator scores a position from SideFirst's perspective. Implementations
// must be side-effect free and deterministic for a given position.
type Evaluator interface {
	Evaluate(pos Rules) int
}

// TableEvaluator is the standard material + piece-square evaluator. Variants
// with a non-material notion of value (placement games) substitute their own
// Evaluator and leave this one unused.
type TableEvaluator struct {
	Weights *Weights
}

func NewTableEvaluator(w *Weights) *TableEvaluator {
	return &TableEvaluator{Weights: w}
}

func (e *TableEvaluator) Evaluate(pos Rules) int {
	stm := pos.SideToMove()
	if pos.IsCheckmate() {
		if stm == SideFirst {
			return -MateScore
		}
		return MateScore
	}
	if pos.IsDrawn() {
		return 0
	}

	w := e.Weights
	pieces := pos.Pieces()
	endgame := e.isEndgame(pieces)

	score := 0
	for _, p := range pieces {
		v := w.BaseValues[p.Kind]
		tbl := w.Tables[p.Kind]
		if endgame && p.Kind == w.KingKind && w.EndgameKingTable != nil {
			tbl = w.EndgameKingTable
		}
		if tbl != nil {
			v += tbl[w.orient(p.Square, p.Side)]
		}
		if p.Side == SideFirst {
			score += v
		} else {
			score -= v
		}
	}

	if w.MobilityWeight != 0 {
		mob := len(pos.LegalMoves()) * w.MobilityWeight
		if stm == SideFirst {
			score += mob
		} else {
			score -= mob
		}
	}

	if w.CheckPenalty != 0 && pos.InCheck() {
		if stm == SideFirst {
			score -= w.CheckPenalty
		} else {
			score += w.CheckPenalty
		}
	}

	return score
}

// isEndgame flags the thinned-out phase: the strongest piece is off the board
// for both sides, or the remaining non-king material is small.
func (e *TableEvaluator) isEndgame(pieces []Piece) bool {
	w := e.Weights
	if w.EndgameKingTable == nil {
		return false
	}
	material := 0
	phasePieces := 0
	for _, p := range pieces {
		if p.Kind == w.PhaseKind {
			phasePieces++
		}
		if p.Kind != w.KingKind {
			material += w.BaseValues[p.Kind]
		}
	}
	if w.PhaseKind != NoPiece && phasePieces == 0 {
		return true
	}
	return w.EndgameMaterialMax > 0 && material <= w.EndgameMaterialMax
}
