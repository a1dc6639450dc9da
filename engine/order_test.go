package engine

import "testing"

func orderTestWeights() *Weights {
	w := &Weights{}
	w.BaseValues[1] = 100 // pawn
	w.BaseValues[2] = 500 // rook
	w.BaseValues[3] = 900 // queen
	return w
}

func TestOrderPriorityTiers(t *testing.T) {
	quiet := Move{From: 1, To: 2, Piece: 1}
	castle := Move{From: 3, To: 4, Piece: 1, IsCastle: true}
	promo := Move{From: 5, To: 6, Piece: 1, Promotion: 3}
	capPawn := Move{From: 7, To: 8, Piece: 2, Captured: 1}
	capQueen := Move{From: 9, To: 10, Piece: 1, Captured: 3}
	check := Move{From: 11, To: 12, Piece: 2, GivesCheck: true}

	o := &MoveOrderer{Weights: orderTestWeights()}
	pos := &fakePos{side: SideFirst}
	got := o.Order(pos, []Move{quiet, castle, promo, capPawn, capQueen, check})

	want := []Move{check, capQueen, capPawn, promo, castle, quiet}
	if len(got) != len(want) {
		t.Fatalf("ordering changed the move count: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].SameAs(want[i]) {
			t.Fatalf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOrderStableOnTies(t *testing.T) {
	a := Move{From: 1, To: 2, Piece: 1}
	b := Move{From: 3, To: 4, Piece: 1}
	c := Move{From: 5, To: 6, Piece: 1}

	o := &MoveOrderer{Weights: orderTestWeights()}
	pos := &fakePos{side: SideFirst}
	got := o.Order(pos, []Move{a, b, c})
	for i, want := range []Move{a, b, c} {
		if !got[i].SameAs(want) {
			t.Fatalf("equal-priority moves must keep generation order, got %v", got)
		}
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	moves := []Move{
		{From: 1, To: 2, Piece: 1},
		{From: 3, To: 4, Piece: 1, Captured: 3},
	}
	o := &MoveOrderer{Weights: orderTestWeights()}
	o.Order(&fakePos{side: SideFirst}, moves)
	if moves[0].From != 1 || moves[1].From != 3 {
		t.Fatal("input slice was reordered in place")
	}
}

func TestOrderMateBeforeCheck(t *testing.T) {
	// Two checking moves, one of which mates. The orderer must apply and
	// undo to tell them apart, and leave the position as it found it.
	treeMoveSeq = 0
	checking := edge(leaf("checked", 0))
	checking.move.GivesCheck = true
	mating := edge(&treeNode{id: "mated", mate: true})
	mating.move.GivesCheck = true
	pos := newTreeRules(branch("root", checking, mating))

	before := pos.Fingerprint()
	o := &MoveOrderer{Weights: orderTestWeights(), SpeculateMate: true}
	got := o.Order(pos, pos.LegalMoves())
	if pos.Fingerprint() != before {
		t.Fatal("ordering must restore the position exactly")
	}
	if !got[0].SameAs(mating.move) {
		t.Fatalf("mating move must sort first, got %v", got)
	}
	if !got[1].SameAs(checking.move) {
		t.Fatalf("plain check must sort second, got %v", got)
	}
}
