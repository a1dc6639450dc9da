package gomoku

import (
	"testing"

	"github.com/timclh/Chess-v1-sub000/engine"
)

func play(t *testing.T, p *Position, coords ...[2]int) {
	t.Helper()
	for _, c := range coords {
		if err := p.Apply(p.PlaceMove(c[0], c[1])); err != nil {
			t.Fatalf("apply (%d,%d): %v", c[0], c[1], err)
		}
	}
}

func TestEmptyBoardOffersCenterOnly(t *testing.T) {
	p := NewPosition(DefaultSize)
	moves := p.LegalMoves()
	if len(moves) != 1 {
		t.Fatalf("expected the single center move, got %d", len(moves))
	}
	center := DefaultSize/2*DefaultSize + DefaultSize/2
	if moves[0].To != center {
		t.Fatalf("expected square %d, got %d", center, moves[0].To)
	}
}

func TestCandidatesStayNearStones(t *testing.T) {
	p := NewPosition(DefaultSize)
	play(t, p, [2]int{7, 7})
	moves := p.LegalMoves()
	if len(moves) != 24 {
		t.Fatalf("one interior stone has 24 cells within radius 2, got %d", len(moves))
	}
	for _, m := range moves {
		x, y := m.To%DefaultSize, m.To/DefaultSize
		if x < 5 || x > 9 || y < 5 || y > 9 {
			t.Fatalf("candidate (%d,%d) outside the proximity window", x, y)
		}
	}
}

func TestApplyUndoRestoresFingerprint(t *testing.T) {
	p := NewPosition(DefaultSize)
	play(t, p, [2]int{7, 7}, [2]int{8, 8}, [2]int{7, 8})
	before := p.Fingerprint()
	for _, m := range p.LegalMoves() {
		if err := p.Apply(m); err != nil {
			t.Fatalf("apply %d: %v", m.To, err)
		}
		if err := p.Undo(); err != nil {
			t.Fatalf("undo %d: %v", m.To, err)
		}
		if got := p.Fingerprint(); got != before {
			t.Fatalf("fingerprint drifted after %d: %q vs %q", m.To, got, before)
		}
	}
	if err := NewPosition(DefaultSize).Undo(); err == nil {
		t.Fatal("undo on a fresh position must fail")
	}
}

func TestTranspositionSharesFingerprint(t *testing.T) {
	a := NewPosition(DefaultSize)
	play(t, a, [2]int{7, 7}, [2]int{0, 0}, [2]int{8, 7}, [2]int{1, 0})
	b := NewPosition(DefaultSize)
	play(t, b, [2]int{8, 7}, [2]int{1, 0}, [2]int{7, 7}, [2]int{0, 0})
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("same stones and side to move must share a fingerprint")
	}

	c := NewPosition(DefaultSize)
	play(t, c, [2]int{7, 7})
	d := NewPosition(DefaultSize)
	if c.Fingerprint() == d.Fingerprint() {
		t.Fatal("different positions share a fingerprint")
	}
}

func TestFiveInARowWins(t *testing.T) {
	p := NewPosition(DefaultSize)
	play(t, p,
		[2]int{7, 7}, [2]int{0, 0},
		[2]int{8, 7}, [2]int{14, 0},
		[2]int{9, 7}, [2]int{0, 14},
		[2]int{10, 7}, [2]int{14, 14},
		[2]int{11, 7},
	)
	if p.Winner() != engine.SideFirst {
		t.Fatalf("expected SideFirst to win, got %v", p.Winner())
	}
	if !p.IsCheckmate() {
		t.Fatal("loser to move must read as mated")
	}
	if len(p.LegalMoves()) != 0 {
		t.Fatal("decided games offer no moves")
	}
	if err := p.Apply(p.PlaceMove(3, 3)); err == nil {
		t.Fatal("placements after the game is decided must fail")
	}
}

func TestEngineCompletesFive(t *testing.T) {
	p := NewPosition(DefaultSize)
	play(t, p,
		[2]int{7, 7}, [2]int{0, 0},
		[2]int{8, 7}, [2]int{14, 0},
		[2]int{9, 7}, [2]int{0, 14},
		[2]int{10, 7}, [2]int{14, 14},
	)
	eng := NewEngine(DefaultSize)
	got, ok := eng.FindBestMove(p, engine.Options{Depth: 2, VerifyRoundTrip: true})
	if !ok {
		t.Fatal("expected a move")
	}
	left := 7*DefaultSize + 6
	right := 7*DefaultSize + 11
	if got.To != left && got.To != right {
		t.Fatalf("expected the winning extension at %d or %d, got %d", left, right, got.To)
	}
	if err := p.Apply(got); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.Winner() != engine.SideFirst {
		t.Fatal("chosen move does not win")
	}
}

func TestEngineBlocksOpponentFour(t *testing.T) {
	p := NewPosition(DefaultSize)
	play(t, p,
		[2]int{7, 7}, [2]int{6, 7},
		[2]int{8, 7}, [2]int{0, 0},
		[2]int{9, 7}, [2]int{0, 14},
		[2]int{10, 7},
	)
	if !p.InCheck() {
		t.Fatal("the defender faces an immediate five")
	}
	eng := NewEngine(DefaultSize)
	got, ok := eng.FindBestMove(p, engine.Options{Depth: 2})
	if !ok {
		t.Fatal("expected a move")
	}
	block := 7*DefaultSize + 11
	if got.To != block {
		t.Fatalf("only %d stops the row, engine played %d", block, got.To)
	}
}

func TestThreatEvaluationOrdering(t *testing.T) {
	ev := NewEvaluator(DefaultThreatWeights())

	empty := NewPosition(DefaultSize)
	if got := ev.Evaluate(empty); got != 0 {
		t.Fatalf("empty board must score 0, got %d", got)
	}

	three := NewPosition(DefaultSize)
	play(t, three, [2]int{7, 7}, [2]int{0, 0}, [2]int{8, 7}, [2]int{0, 14}, [2]int{9, 7})
	two := NewPosition(DefaultSize)
	play(t, two, [2]int{7, 7}, [2]int{0, 0}, [2]int{8, 7}, [2]int{0, 14}, [2]int{13, 2})
	sThree := ev.Evaluate(three)
	sTwo := ev.Evaluate(two)
	if sThree <= sTwo {
		t.Fatalf("an open three must outscore an open two: %d vs %d", sThree, sTwo)
	}
	if sTwo <= 0 {
		t.Fatalf("the first side holds the only real threat, got %d", sTwo)
	}

	four := NewPosition(DefaultSize)
	play(t, four,
		[2]int{7, 7}, [2]int{0, 0},
		[2]int{8, 7}, [2]int{14, 0},
		[2]int{9, 7}, [2]int{0, 14},
		[2]int{10, 7}, [2]int{14, 14},
	)
	if got := ev.Evaluate(four); got != openFourScore {
		t.Fatalf("an unopposed open four scores the short-circuit value, got %d", got)
	}
}

func TestFullBoardWithoutRowIsDrawn(t *testing.T) {
	const size = 5
	p := NewPosition(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			side := engine.SideFirst
			if (x+y+((y/2)%2))%2 == 1 {
				side = engine.SideSecond
			}
			p.board.set(x, y, side)
		}
	}
	if p.Winner() != engine.NoSide {
		t.Fatal("no winner expected")
	}
	if !p.IsDrawn() {
		t.Fatal("a full board without a winning row is drawn")
	}
	if got := NewEvaluator(DefaultThreatWeights()).Evaluate(p); got != 0 {
		t.Fatalf("draws score exactly 0, got %d", got)
	}
	if len(p.LegalMoves()) != 0 {
		t.Fatal("a full board has no moves")
	}
}
