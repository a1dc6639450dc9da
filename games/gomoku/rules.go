package gomoku

import (
	"fmt"

	"github.com/timclh/Chess-v1-sub000/engine"
)

// proximityRadius bounds candidate generation to cells near existing stones.
const proximityRadius = 2

var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

type record struct {
	square int
	side   engine.Side
	hash   uint64
	winner engine.Side
}

// Position is a gomoku game state implementing engine.Rules. Moves are stone
// placements encoded with From == To == the target square; undo history is
// kept internally so Apply and Undo pair up exactly.
type Position struct {
	board   Board
	toMove  engine.Side
	hash    uint64
	winner  engine.Side
	history []record
}

func NewPosition(size int) *Position {
	if size <= 0 {
		size = DefaultSize
	}
	return &Position{board: NewBoard(size), toMove: engine.SideFirst}
}

func (p *Position) Size() int { return p.board.Size() }

// PlaceMove builds the placement move for the given coordinates.
func (p *Position) PlaceMove(x, y int) engine.Move {
	sq := y*p.board.Size() + x
	return engine.Move{From: sq, To: sq, Piece: Stone, GivesCheck: p.makesRun(x, y, p.toMove, winLength-1)}
}

// LegalMoves returns empty cells within proximityRadius of an existing stone,
// or the single center cell on an empty board. A finished game has no moves.
func (p *Position) LegalMoves() []engine.Move {
	if p.winner != engine.NoSide {
		return nil
	}
	size := p.board.Size()
	if p.board.CountEmpty() == size*size {
		center := size / 2
		return []engine.Move{p.PlaceMove(center, center)}
	}

	seen := make([]bool, size*size)
	moves := []engine.Move{}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if p.board.At(x, y) == engine.NoSide {
				continue
			}
			for dy := -proximityRadius; dy <= proximityRadius; dy++ {
				for dx := -proximityRadius; dx <= proximityRadius; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if !p.board.IsEmpty(nx, ny) {
						continue
					}
					idx := ny*size + nx
					if !seen[idx] {
						seen[idx] = true
						moves = append(moves, p.PlaceMove(nx, ny))
					}
				}
			}
		}
	}
	return moves
}

func (p *Position) Apply(m engine.Move) error {
	if p.winner != engine.NoSide {
		return fmt.Errorf("gomoku: game already decided")
	}
	size := p.board.Size()
	if m.To < 0 || m.To >= size*size {
		return fmt.Errorf("gomoku: square %d out of bounds", m.To)
	}
	x, y := m.To%size, m.To/size
	if p.board.At(x, y) != engine.NoSide {
		return fmt.Errorf("gomoku: square %s occupied", SquareName(size)(m.To))
	}

	p.history = append(p.history, record{square: m.To, side: p.toMove, hash: p.hash, winner: p.winner})

	z := getZobrist(size)
	p.board.set(x, y, p.toMove)
	p.hash ^= z.stone(m.To, p.toMove)
	p.hash ^= z.side
	if p.runThrough(x, y) >= winLength {
		p.winner = p.toMove
	}
	p.toMove = p.toMove.Opponent()
	return nil
}

func (p *Position) Undo() error {
	if len(p.history) == 0 {
		return fmt.Errorf("gomoku: nothing to undo")
	}
	rec := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]

	size := p.board.Size()
	p.board.remove(rec.square%size, rec.square/size)
	p.hash = rec.hash
	p.winner = rec.winner
	p.toMove = rec.side
	return nil
}

func (p *Position) SideToMove() engine.Side { return p.toMove }

// InCheck reports whether the opponent of the side to move can complete a
// winning row on their next placement.
func (p *Position) InCheck() bool {
	if p.winner != engine.NoSide {
		return false
	}
	opp := p.toMove.Opponent()
	size := p.board.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if p.board.IsEmpty(x, y) && p.nearStone(x, y) && p.makesRun(x, y, opp, winLength) {
				return true
			}
		}
	}
	return false
}

func (p *Position) IsCheckmate() bool {
	return p.winner != engine.NoSide && p.winner != p.toMove
}

func (p *Position) IsDrawn() bool {
	return p.winner == engine.NoSide && p.board.CountEmpty() == 0
}

// Fingerprint is the zobrist hash of the grid and side to move, rendered as
// fixed-width hex.
func (p *Position) Fingerprint() string {
	return fmt.Sprintf("%016x", p.hash)
}

func (p *Position) Pieces() []engine.Piece {
	pieces := []engine.Piece{}
	for sq, side := range p.board.cells {
		if side == engine.NoSide {
			continue
		}
		pieces = append(pieces, engine.Piece{Kind: Stone, Side: side, Square: sq})
	}
	return pieces
}

// Winner returns the side that completed a row, or NoSide.
func (p *Position) Winner() engine.Side { return p.winner }

// runThrough is the longest line of same-side stones through an occupied cell.
func (p *Position) runThrough(x, y int) int {
	side := p.board.At(x, y)
	best := 0
	for _, d := range directions {
		count := 1 + p.countDirection(x, y, d[0], d[1], side) + p.countDirection(x, y, -d[0], -d[1], side)
		if count > best {
			best = count
		}
	}
	return best
}

// makesRun reports whether placing a stone for side at (x, y) would create a
// line of at least the given length.
func (p *Position) makesRun(x, y int, side engine.Side, length int) bool {
	for _, d := range directions {
		count := 1 + p.countDirection(x, y, d[0], d[1], side) + p.countDirection(x, y, -d[0], -d[1], side)
		if count >= length {
			return true
		}
	}
	return false
}

func (p *Position) countDirection(x, y, dx, dy int, side engine.Side) int {
	count := 0
	x += dx
	y += dy
	for p.board.InBounds(x, y) && p.board.At(x, y) == side {
		count++
		x += dx
		y += dy
	}
	return count
}

func (p *Position) nearStone(x, y int) bool {
	for dy := -proximityRadius; dy <= proximityRadius; dy++ {
		for dx := -proximityRadius; dx <= proximityRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if p.board.InBounds(x+dx, y+dy) && p.board.At(x+dx, y+dy) != engine.NoSide {
				return true
			}
		}
	}
	return false
}
