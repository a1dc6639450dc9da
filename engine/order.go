package engine

import "sort"

// Move-ordering priority tiers. Higher sorts first; anything quiet stays at
// zero and keeps its generation order.
const (
	orderCheckmate = 6_000_000
	orderCheck     = 5_000_000
	orderCapture   = 4_000_000
	orderPromotion = 3_000_000
	orderCastle    = 2_000_000
)

// MoveOrderer sorts candidate moves so that alpha-beta meets its cutoffs
// early: mating moves first, then checks, then captures by victim value, then
// promotions and castling. The sort is stable, so equal-priority moves keep
// their generation order and the search stays deterministic.
type MoveOrderer struct {
	Weights *Weights

	// SpeculateMate controls whether check-giving moves are applied and
	// undone to see if they mate. The position is always restored before
	// Order returns.
	SpeculateMate bool
}

// Order returns the moves reordered by descending priority. The input slice
// is not modified; no moves are added or dropped.
func (o *MoveOrderer) Order(pos Rules, moves []Move) []Move {
	ordered := make([]Move, len(moves))
	copy(ordered, moves)
	if len(ordered) < 2 {
		return ordered
	}

	type scored struct {
		move Move
		prio int
	}
	pairs := make([]scored, len(ordered))
	for i, m := range ordered {
		pairs[i] = scored{move: m, prio: o.priority(pos, m)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].prio > pairs[j].prio
	})
	for i, p := range pairs {
		ordered[i] = p.move
	}
	return ordered
}

func (o *MoveOrderer) priority(pos Rules, m Move) int {
	if m.GivesCheck {
		if o.SpeculateMate && o.deliversMate(pos, m) {
			return orderCheckmate
		}
		return orderCheck
	}
	if m.IsCapture() {
		p := orderCapture + o.victimValue(m)
		return p
	}
	if m.Promotion != NoPiece {
		return orderPromotion + o.kindValue(m.Promotion)
	}
	if m.IsCastle {
		return orderCastle
	}
	return 0
}

// deliversMate speculatively applies m to test for checkmate, then restores
// the position.
func (o *MoveOrderer) deliversMate(pos Rules, m Move) bool {
	if err := pos.Apply(m); err != nil {
		return false
	}
	mate := pos.IsCheckmate()
	if err := pos.Undo(); err != nil {
		panic("engine: undo failed during mate speculation: " + err.Error())
	}
	return mate
}

func (o *MoveOrderer) victimValue(m Move) int {
	return o.kindValue(m.Captured)
}

func (o *MoveOrderer) kindValue(k PieceKind) int {
	if o.Weights == nil {
		return int(k)
	}
	return o.Weights.BaseValues[k]
}
