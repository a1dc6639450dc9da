package chess

import "github.com/timclh/Chess-v1-sub000/engine"

// Piece-square tables in centipawns, written from White's perspective with
// index 0 = a1. Black indices are flipped vertically through Orient.

var pawnTable = []int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = []int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = []int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = []int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenTable = []int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// Middlegame king table rewards castling corners; the endgame table rewards
// centralization once material has thinned.
var kingTable = []int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEndgameTable = []int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

func flipSquare(sq int) int {
	return 56 - 8*(sq/8) + sq%8
}

// Weights builds the evaluation configuration for orthodox chess.
func Weights() *engine.Weights {
	w := &engine.Weights{
		KingKind:         King,
		EndgameKingTable: kingEndgameTable,
		PhaseKind:        Queen,
		// Rook plus minor piece per side, roughly: below this the kings
		// come out.
		EndgameMaterialMax: 2600,
		MobilityWeight:     2,
		CheckPenalty:       30,
		Orient: func(sq int, side engine.Side) int {
			if side == engine.SideSecond {
				return flipSquare(sq)
			}
			return sq
		},
		CenterSquares: []int{27, 28, 35, 36},
		SquareName:    SquareName,
		PieceName:     PieceName,
	}
	w.BaseValues[Pawn] = 100
	w.BaseValues[Knight] = 320
	w.BaseValues[Bishop] = 330
	w.BaseValues[Rook] = 500
	w.BaseValues[Queen] = 900
	w.Tables[Pawn] = pawnTable
	w.Tables[Knight] = knightTable
	w.Tables[Bishop] = bishopTable
	w.Tables[Rook] = rookTable
	w.Tables[Queen] = queenTable
	w.Tables[King] = kingTable

	// Both back ranks: a piece leaving its home rank counts as development.
	for sq := 0; sq < 8; sq++ {
		w.HomeSquares = append(w.HomeSquares, sq, 56+sq)
	}
	return w
}

// PieceName names a piece kind for explanations.
func PieceName(k engine.PieceKind) string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "piece"
}

// NewEngine wires up a ready-to-use chess engine: table evaluator, default
// cache and the embedded opening book.
func NewEngine() *engine.Engine {
	e := engine.New(Weights())
	e.SetBook(DefaultBook())
	return e
}
