package engine

import (
	"fmt"
	"math"
)

// winProbabilityScale is the sigmoid spread: a 400-point score advantage is
// roughly a 73% win chance.
const winProbabilityScale = 400.0

// WinProbability maps a SideFirst-perspective score to a win probability in
// (0, 1) for the requested side. Strictly increasing in score, and
// WinProbability(-s, side) == 1 - WinProbability(s, side).
func WinProbability(score int, forFirst bool) float64 {
	p := 1.0 / (1.0 + math.Exp(-float64(score)/winProbabilityScale))
	if forFirst {
		return p
	}
	return 1 - p
}

// explain builds the short human-readable rationale for a move. The checks
// run in a fixed order over the move's attributes, so the output is
// deterministic; when nothing specific matches it falls back to a generic
// line. Cosmetic only, never consulted for move selection.
func (e *Engine) explain(pos Rules, m Move, score int, topChoice bool) string {
	if m.GivesCheck && e.mates(pos, m) {
		return "delivers checkmate"
	}
	if m.IsCapture() {
		return e.explainCapture(m)
	}
	if m.GivesCheck {
		return "puts the enemy king in check, forcing a response"
	}
	if m.IsCastle {
		return "castles, tucking the king away and connecting the rooks"
	}
	if m.Promotion != NoPiece {
		return fmt.Sprintf("promotes to a %s", e.pieceName(m.Promotion))
	}
	if e.weights != nil {
		if containsSquare(e.weights.CenterSquares, m.To) {
			return fmt.Sprintf("claims the center with %s", e.squareName(m.To))
		}
		if containsSquare(e.weights.HomeSquares, m.From) && !containsSquare(e.weights.HomeSquares, m.To) {
			return fmt.Sprintf("develops the %s toward the action", e.pieceName(m.Piece))
		}
	}
	if topChoice {
		return "improves the position without giving anything away"
	}
	return "a reasonable alternative option"
}

func (e *Engine) explainCapture(m Move) string {
	victim := e.pieceName(m.Captured)
	if e.weights != nil {
		gain := e.weights.BaseValues[m.Captured] - e.weights.BaseValues[m.Piece]
		switch {
		case gain > 0:
			return fmt.Sprintf("wins the %s for less material", victim)
		case gain == 0:
			return fmt.Sprintf("trades evenly, removing the %s", victim)
		}
	}
	return fmt.Sprintf("captures the %s", victim)
}

func (e *Engine) mates(pos Rules, m Move) bool {
	if err := pos.Apply(m); err != nil {
		return false
	}
	mate := pos.IsCheckmate()
	if err := pos.Undo(); err != nil {
		panic("engine: undo failed while explaining: " + err.Error())
	}
	return mate
}

func (e *Engine) pieceName(k PieceKind) string {
	if e.weights != nil && e.weights.PieceName != nil {
		return e.weights.PieceName(k)
	}
	return fmt.Sprintf("piece %d", k)
}

func (e *Engine) squareName(sq int) string {
	if e.weights != nil && e.weights.SquareName != nil {
		return e.weights.SquareName(sq)
	}
	return fmt.Sprintf("square %d", sq)
}

func containsSquare(squares []int, sq int) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}
