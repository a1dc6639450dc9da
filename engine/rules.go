package engine

import "fmt"

// Side identifies one of the two players. SideFirst is the side the engine
// treats as maximizing: every score crossing the public API is expressed from
// SideFirst's perspective.
type Side uint8

const (
	NoSide Side = iota
	SideFirst
	SideSecond
)

func (s Side) Opponent() Side {
	switch s {
	case SideFirst:
		return SideSecond
	case SideSecond:
		return SideFirst
	}
	return NoSide
}

func (s Side) String() string {
	switch s {
	case SideFirst:
		return "first"
	case SideSecond:
		return "second"
	}
	return "none"
}

// PieceKind is a small variant-defined enum. Kind 0 is reserved for "no
// piece"; games assign their own meanings above that (pawn, knight, ...,
// or a single stone kind for placement games). Kinds index into
// Weights.BaseValues and Weights.Tables, so they must stay below MaxPieceKinds.
type PieceKind uint8

// NoPiece marks an absent capture or promotion field on a Move.
const NoPiece PieceKind = 0

// MaxPieceKinds bounds the per-kind tables in Weights.
const MaxPieceKinds = 8

// Move is an immutable value describing one legal move. From and To are
// variant-defined square indices. Captured and Promotion are NoPiece when the
// move is quiet or a non-promotion. The boolean flags are hints for ordering
// and explanations; rules implementations that cannot compute one cheaply may
// leave it false.
type Move struct {
	From      int
	To        int
	Piece     PieceKind
	Captured  PieceKind
	Promotion PieceKind

	GivesCheck bool
	IsCastle   bool
}

// SameAs reports whether two moves denote the same action, ignoring the
// derived flags. Book entries and cache hits are matched through this.
func (m Move) SameAs(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// IsCapture reports whether the move removes an opposing piece.
func (m Move) IsCapture() bool { return m.Captured != NoPiece }

func (m Move) String() string {
	return fmt.Sprintf("%d-%d", m.From, m.To)
}

// Piece is one occupied square, as enumerated by Rules.Pieces.
type Piece struct {
	Kind   PieceKind
	Side   Side
	Square int
}

// Rules is the per-variant collaborator the engine searches through. An
// implementation wraps a single mutable position: Apply mutates it in place
// and Undo restores the previous state. The engine only borrows the position
// for the duration of one call and always leaves it as it found it.
//
// Applying a move and undoing it must restore a position whose Fingerprint is
// byte-identical to the original. The engine checks this in development paths
// and panics on mismatch rather than poisoning its cache.
//
// A single Rules instance must not be searched from two goroutines at once.
type Rules interface {
	// LegalMoves returns every legal move for the side to move, in a
	// deterministic generation order. An empty slice means the game is over.
	LegalMoves() []Move

	// Apply plays m on the position. m must come from LegalMoves of the
	// current position.
	Apply(m Move) error

	// Undo reverts the most recent Apply.
	Undo() error

	// SideToMove returns whose turn it is.
	SideToMove() Side

	// InCheck reports whether the side to move is in check. Variants with no
	// check concept return false.
	InCheck() bool

	// IsCheckmate reports whether the side to move has lost.
	IsCheckmate() bool

	// IsDrawn reports whether the position is a stalemate or other draw.
	IsDrawn() bool

	// Fingerprint returns a canonical, collision-resistant encoding of the
	// position: board, side to move, and any special-move rights. Two
	// positions with equal fingerprints must be search-equivalent.
	Fingerprint() string

	// Pieces enumerates every piece on the board.
	Pieces() []Piece
}
