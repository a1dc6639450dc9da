package gomoku

import (
	"fmt"

	"github.com/timclh/Chess-v1-sub000/engine"
)

// Weights carries only the metadata the ordering and explanation layers read;
// static evaluation comes from the pattern Evaluator, not piece tables.
func Weights(size int) *engine.Weights {
	if size <= 0 {
		size = DefaultSize
	}
	w := &engine.Weights{
		CenterSquares: centerSquares(size),
		SquareName:    SquareName(size),
		PieceName:     PieceName,
	}
	w.BaseValues[Stone] = 10
	return w
}

// NewEngine builds a search engine for a board of the given size, with the
// threat-pattern evaluator installed.
func NewEngine(size int) *engine.Engine {
	eng := engine.New(Weights(size))
	eng.SetEvaluator(NewEvaluator(DefaultThreatWeights()))
	return eng
}

func centerSquares(size int) []int {
	center := size / 2
	squares := []int{}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := center+dx, center+dy
			if x >= 0 && y >= 0 && x < size && y < size {
				squares = append(squares, y*size+x)
			}
		}
	}
	return squares
}

// SquareName renders a square as column letter plus 1-based row, e.g. "h8".
func SquareName(size int) func(int) string {
	return func(sq int) string {
		if sq < 0 || sq >= size*size {
			return fmt.Sprintf("sq%d", sq)
		}
		return fmt.Sprintf("%c%d", 'a'+sq%size, sq/size+1)
	}
}

func PieceName(kind engine.PieceKind) string {
	if kind == Stone {
		return "stone"
	}
	return "piece"
}
