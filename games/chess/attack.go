package chess

import notnil "github.com/notnil/chess"

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func kingSquare(b *notnil.Board, c notnil.Color) int {
	for sq := 0; sq < 64; sq++ {
		pc := b.Piece(notnil.Square(sq))
		if pc != notnil.NoPiece && pc.Type() == notnil.King && pc.Color() == c {
			return sq
		}
	}
	return -1
}

// squareAttacked reports whether any piece of the given color attacks the
// target square on the current board occupancy.
func squareAttacked(b *notnil.Board, target notnil.Square, by notnil.Color) bool {
	tf, tr := int(target)%8, int(target)/8

	// Pawns attack one rank toward the enemy.
	pawnRank := tr - 1
	if by == notnil.Black {
		pawnRank = tr + 1
	}
	for _, df := range []int{-1, 1} {
		f := tf + df
		if f < 0 || f > 7 || pawnRank < 0 || pawnRank > 7 {
			continue
		}
		pc := b.Piece(notnil.Square(pawnRank*8 + f))
		if pc != notnil.NoPiece && pc.Color() == by && pc.Type() == notnil.Pawn {
			return true
		}
	}

	for _, off := range knightOffsets {
		f, r := tf+off[0], tr+off[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		pc := b.Piece(notnil.Square(r*8 + f))
		if pc != notnil.NoPiece && pc.Color() == by && pc.Type() == notnil.Knight {
			return true
		}
	}

	for _, off := range kingOffsets {
		f, r := tf+off[0], tr+off[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		pc := b.Piece(notnil.Square(r*8 + f))
		if pc != notnil.NoPiece && pc.Color() == by && pc.Type() == notnil.King {
			return true
		}
	}

	if slidingAttack(b, tf, tr, by, bishopDirs[:], notnil.Bishop) {
		return true
	}
	return slidingAttack(b, tf, tr, by, rookDirs[:], notnil.Rook)
}

// slidingAttack walks each ray from the target until blocked, looking for the
// given slider or a queen of the attacking color.
func slidingAttack(b *notnil.Board, tf, tr int, by notnil.Color, dirs [][2]int, slider notnil.PieceType) bool {
	for _, d := range dirs {
		f, r := tf+d[0], tr+d[1]
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			pc := b.Piece(notnil.Square(r*8 + f))
			if pc != notnil.NoPiece {
				if pc.Color() == by && (pc.Type() == slider || pc.Type() == notnil.Queen) {
					return true
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return false
}
