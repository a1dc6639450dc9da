// Package gomoku adapts the engine to freestyle gomoku: stones placed on a
// square grid, five in a row wins, a full board draws.
package gomoku

import "github.com/timclh/Chess-v1-sub000/engine"

// Stone is the only piece kind on a gomoku board.
const Stone engine.PieceKind = 1

// DefaultSize is the standard 15x15 grid.
const DefaultSize = 15

const winLength = 5

// Board is a flat grid of cells. The zero Side marks an empty cell.
type Board struct {
	size  int
	cells []engine.Side
}

func NewBoard(size int) Board {
	return Board{size: size, cells: make([]engine.Side, size*size)}
}

func (b Board) Size() int { return b.size }

func (b Board) At(x, y int) engine.Side { return b.cells[y*b.size+x] }

func (b *Board) set(x, y int, s engine.Side) { b.cells[y*b.size+x] = s }

func (b *Board) remove(x, y int) { b.cells[y*b.size+x] = engine.NoSide }

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == engine.NoSide
}

func (b Board) CountEmpty() int {
	count := 0
	for _, c := range b.cells {
		if c == engine.NoSide {
			count++
		}
	}
	return count
}
