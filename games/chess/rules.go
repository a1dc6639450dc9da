// Package chess adapts the notnil/chess rules engine to the search engine's
// collaborator interface for the orthodox chess variant.
package chess

import (
	"errors"
	"fmt"
	"strings"

	notnil "github.com/notnil/chess"

	"github.com/timclh/Chess-v1-sub000/engine"
)

// Engine-facing piece kinds for this variant.
const (
	Pawn   engine.PieceKind = 1
	Knight engine.PieceKind = 2
	Bishop engine.PieceKind = 3
	Rook   engine.PieceKind = 4
	Queen  engine.PieceKind = 5
	King   engine.PieceKind = 6
)

var errNothingToUndo = errors.New("chess: nothing to undo")

// Position implements engine.Rules over notnil/chess. notnil positions are
// immutable, so apply/undo is a stack of position snapshots: Apply pushes the
// successor, Undo pops. Push and pop are O(1), and the round-trip law holds
// because the popped pointer is the exact prior state.
type Position struct {
	stack []*notnil.Position
}

// NewPosition starts from the standard initial position.
func NewPosition() *Position {
	return &Position{stack: []*notnil.Position{notnil.NewGame().Position()}}
}

// FromFEN builds a position from a FEN string.
func FromFEN(fen string) (*Position, error) {
	opt, err := notnil.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("chess: parse fen: %w", err)
	}
	return &Position{stack: []*notnil.Position{notnil.NewGame(opt).Position()}}, nil
}

func (p *Position) current() *notnil.Position { return p.stack[len(p.stack)-1] }

// FEN returns the full FEN of the current position.
func (p *Position) FEN() string { return p.current().String() }

func (p *Position) LegalMoves() []engine.Move {
	valid := p.current().ValidMoves()
	board := p.current().Board()
	moves := make([]engine.Move, len(valid))
	for i, m := range valid {
		moves[i] = convertMove(board, m)
	}
	return moves
}

func (p *Position) Apply(m engine.Move) error {
	found := p.findMove(m)
	if found == nil {
		return fmt.Errorf("chess: move %s is not legal here", UCI(m))
	}
	p.stack = append(p.stack, p.current().Update(found))
	return nil
}

func (p *Position) Undo() error {
	if len(p.stack) <= 1 {
		return errNothingToUndo
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func (p *Position) SideToMove() engine.Side {
	if p.current().Turn() == notnil.White {
		return engine.SideFirst
	}
	return engine.SideSecond
}

func (p *Position) InCheck() bool {
	board := p.current().Board()
	king := kingSquare(board, p.current().Turn())
	if king < 0 {
		return false
	}
	return squareAttacked(board, notnil.Square(king), p.current().Turn().Other())
}

func (p *Position) IsCheckmate() bool {
	return p.current().Status() == notnil.Checkmate
}

// IsDrawn reports stalemate or a dead position with insufficient mating
// material. Draws that depend on game history (repetition, the fifty-move
// rule) are out: positions sharing a fingerprint must stay search-equivalent,
// and history is exactly what the fingerprint drops.
func (p *Position) IsDrawn() bool {
	if p.current().Status() == notnil.Stalemate {
		return true
	}
	return insufficientMaterial(p.current().Board())
}

// insufficientMaterial covers the dead positions: bare kings, a lone minor
// piece, or one bishop per side on same-colored squares.
func insufficientMaterial(b *notnil.Board) bool {
	type bishop struct {
		color notnil.Color
		dark  bool
	}
	knights := 0
	var bishops []bishop
	for sq := 0; sq < 64; sq++ {
		pc := b.Piece(notnil.Square(sq))
		if pc == notnil.NoPiece {
			continue
		}
		switch pc.Type() {
		case notnil.King:
		case notnil.Knight:
			knights++
		case notnil.Bishop:
			bishops = append(bishops, bishop{color: pc.Color(), dark: (sq/8+sq%8)%2 == 0})
		default:
			return false
		}
	}
	if knights+len(bishops) <= 1 {
		return true
	}
	return knights == 0 && len(bishops) == 2 &&
		bishops[0].color != bishops[1].color && bishops[0].dark == bishops[1].dark
}

// Fingerprint is the position-class encoding: the first four FEN fields
// (board, side to move, castling rights, en passant square), with the move
// counters dropped so transpositions at different move numbers coincide.
func (p *Position) Fingerprint() string {
	fields := strings.Fields(p.current().String())
	if len(fields) < 4 {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:4], " ")
}

func (p *Position) Pieces() []engine.Piece {
	var pieces []engine.Piece
	for sq, pc := range p.current().Board().SquareMap() {
		if pc == notnil.NoPiece {
			continue
		}
		pieces = append(pieces, engine.Piece{
			Kind:   kindOf(pc.Type()),
			Side:   sideOf(pc.Color()),
			Square: int(sq),
		})
	}
	return pieces
}

func (p *Position) findMove(m engine.Move) *notnil.Move {
	for _, vm := range p.current().ValidMoves() {
		if int(vm.S1()) == m.From && int(vm.S2()) == m.To && kindOf(vm.Promo()) == m.Promotion {
			return vm
		}
	}
	return nil
}

func convertMove(board *notnil.Board, m *notnil.Move) engine.Move {
	out := engine.Move{
		From:       int(m.S1()),
		To:         int(m.S2()),
		Piece:      kindOf(board.Piece(m.S1()).Type()),
		Promotion:  kindOf(m.Promo()),
		GivesCheck: m.HasTag(notnil.Check),
		IsCastle:   m.HasTag(notnil.KingSideCastle) || m.HasTag(notnil.QueenSideCastle),
	}
	if m.HasTag(notnil.EnPassant) {
		out.Captured = Pawn
	} else if m.HasTag(notnil.Capture) {
		out.Captured = kindOf(board.Piece(m.S2()).Type())
	}
	return out
}

func kindOf(t notnil.PieceType) engine.PieceKind {
	switch t {
	case notnil.Pawn:
		return Pawn
	case notnil.Knight:
		return Knight
	case notnil.Bishop:
		return Bishop
	case notnil.Rook:
		return Rook
	case notnil.Queen:
		return Queen
	case notnil.King:
		return King
	}
	return engine.NoPiece
}

func sideOf(c notnil.Color) engine.Side {
	if c == notnil.White {
		return engine.SideFirst
	}
	return engine.SideSecond
}

// UCI renders an engine move in coordinate notation, e.g. "e2e4" or "e7e8q".
func UCI(m engine.Move) string {
	s := SquareName(m.From) + SquareName(m.To)
	switch m.Promotion {
	case Queen:
		s += "q"
	case Rook:
		s += "r"
	case Bishop:
		s += "b"
	case Knight:
		s += "n"
	}
	return s
}

// SquareName renders a 0..63 square index as algebraic coordinates.
func SquareName(sq int) string {
	if sq < 0 || sq > 63 {
		return "??"
	}
	return string(rune('a'+sq%8)) + string(rune('1'+sq/8))
}

// ParseSquare is the inverse of SquareName.
func ParseSquare(s string) (int, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("chess: bad square %q", s)
	}
	return int(s[0]-'a') + 8*int(s[1]-'1'), nil
}
