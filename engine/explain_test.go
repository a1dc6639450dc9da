package engine

import (
	"strings"
	"testing"
)

func TestWinProbabilitySymmetry(t *testing.T) {
	for _, s := range []int{0, 1, 50, 180, 400, 1200, MateScore} {
		plus := WinProbability(s, true)
		minus := WinProbability(-s, true)
		if diff := plus + minus - 1; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("p(%d)+p(%d) = %v, want 1", s, -s, plus+minus)
		}
	}
}

func TestWinProbabilityMonotonicAndBounded(t *testing.T) {
	prev := -1.0
	for s := -2000; s <= 2000; s += 50 {
		p := WinProbability(s, true)
		if p <= 0 || p >= 1 {
			t.Fatalf("p(%d) = %v out of (0,1)", s, p)
		}
		if p <= prev {
			t.Fatalf("p not strictly increasing at %d: %v after %v", s, p, prev)
		}
		prev = p
	}
	if got := WinProbability(0, true); got != 0.5 {
		t.Fatalf("p(0) = %v, want 0.5", got)
	}
}

func TestWinProbabilityPerspectiveFlip(t *testing.T) {
	if got, want := WinProbability(400, false), 1-WinProbability(400, true); got != want {
		t.Fatalf("second-side probability %v, want %v", got, want)
	}
}

func explainTestEngine() *Engine {
	w := orderTestWeights()
	w.PieceName = func(k PieceKind) string {
		switch k {
		case 1:
			return "pawn"
		case 2:
			return "rook"
		case 3:
			return "queen"
		}
		return "piece"
	}
	w.SquareName = func(sq int) string { return "e4" }
	w.CenterSquares = []int{27, 28, 35, 36}
	w.HomeSquares = []int{0, 1, 2, 3}
	return New(w)
}

func TestExplainRuleOrder(t *testing.T) {
	e := explainTestEngine()
	pos := &fakePos{side: SideFirst}

	cases := []struct {
		name string
		move Move
		want string
	}{
		{"winning capture", Move{Piece: 1, Captured: 3}, "wins the queen"},
		{"even trade", Move{Piece: 2, Captured: 2}, "trades evenly"},
		{"check", Move{Piece: 2, GivesCheck: true}, "check"},
		{"castle", Move{Piece: 2, IsCastle: true}, "castles"},
		{"promotion", Move{Piece: 1, Promotion: 3}, "promotes to a queen"},
		{"center", Move{Piece: 1, From: 10, To: 28}, "claims the center"},
		{"development", Move{Piece: 2, From: 1, To: 18}, "develops the rook"},
	}
	for _, tc := range cases {
		got := e.explain(pos, tc.move, 0, false)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("%s: explanation %q does not mention %q", tc.name, got, tc.want)
		}
	}
}

func TestExplainFallbacks(t *testing.T) {
	e := explainTestEngine()
	pos := &fakePos{side: SideFirst}
	nothing := Move{Piece: 1, From: 40, To: 41}

	top := e.explain(pos, nothing, 0, true)
	alt := e.explain(pos, nothing, 0, false)
	if top == "" || alt == "" {
		t.Fatal("fallback explanations must not be empty")
	}
	if top == alt {
		t.Fatal("top choice and alternative should read differently")
	}
}

func TestExplainCheckmate(t *testing.T) {
	treeMoveSeq = 0
	mating := edge(&treeNode{id: "mated", mate: true})
	mating.move.GivesCheck = true
	pos := newTreeRules(branch("root", mating))

	e := explainTestEngine()
	if got := e.ExplainMove(pos, mating.move); !strings.Contains(got, "checkmate") {
		t.Fatalf("expected a checkmate rationale, got %q", got)
	}
	if pos.Fingerprint() != "root" {
		t.Fatal("explaining must restore the position")
	}
}
