package gomoku

import (
	"sync"

	"github.com/timclh/Chess-v1-sub000/engine"
)

// openFourScore sits below the mate sentinel so a proven win always outranks
// an unanswerable threat.
const openFourScore = 90_000

// ThreatTotals counts line patterns for one side.
type ThreatTotals struct {
	Win5    int
	Open4   int
	Closed4 int
	Broken4 int
	Open3   int
	Broken3 int
	Closed3 int
	Open2   int
	Broken2 int
}

// ThreatWeights prices each pattern class. Fork bonuses reward double threats
// that cannot both be answered.
type ThreatWeights struct {
	Open4        int
	Closed4      int
	Broken4      int
	Open3        int
	Broken3      int
	Closed3      int
	Open2        int
	Broken2      int
	ForkOpen3    int
	ForkFourPlus int
}

func DefaultThreatWeights() ThreatWeights {
	return ThreatWeights{
		Open4:        10000,
		Closed4:      1500,
		Broken4:      1200,
		Open3:        250,
		Broken3:      120,
		Closed3:      40,
		Open2:        20,
		Broken2:      12,
		ForkOpen3:    600,
		ForkFourPlus: 2000,
	}
}

// Patterns use M for the scanned side's stones, O for blockers (enemy stones
// or the board edge) and . for empty cells. Longer patterns come first so a
// line is never double counted.
var evalPatterns = [...]struct {
	pattern string
	apply   func(*ThreatTotals)
}{
	{"MMMMM", func(t *ThreatTotals) { t.Win5++ }},
	{".MMMM.", func(t *ThreatTotals) { t.Open4++ }},
	{"OMMMM.", func(t *ThreatTotals) { t.Closed4++ }},
	{".MMMMO", func(t *ThreatTotals) { t.Closed4++ }},
	{".MMM.M.", func(t *ThreatTotals) { t.Broken4++ }},
	{".M.MMM.", func(t *ThreatTotals) { t.Broken4++ }},
	{".MMM.", func(t *ThreatTotals) { t.Open3++ }},
	{".MM.M.", func(t *ThreatTotals) { t.Broken3++ }},
	{".M.MM.", func(t *ThreatTotals) { t.Broken3++ }},
	{".MM.", func(t *ThreatTotals) { t.Open2++ }},
	{".M.M.", func(t *ThreatTotals) { t.Broken2++ }},
}

var lineCache = struct {
	mu    sync.Mutex
	lines map[int][][]int
}{lines: make(map[int][][]int)}

func linesForSize(size int) [][]int {
	lineCache.mu.Lock()
	defer lineCache.mu.Unlock()
	if lines, ok := lineCache.lines[size]; ok {
		return lines
	}
	lines := buildLines(size)
	lineCache.lines[size] = lines
	return lines
}

// buildLines enumerates every row, column and diagonal long enough to hold a
// winning run, as flat cell indices.
func buildLines(size int) [][]int {
	lines := [][]int{}
	for y := 0; y < size; y++ {
		line := make([]int, 0, size)
		for x := 0; x < size; x++ {
			line = append(line, y*size+x)
		}
		lines = append(lines, line)
	}
	for x := 0; x < size; x++ {
		line := make([]int, 0, size)
		for y := 0; y < size; y++ {
			line = append(line, y*size+x)
		}
		lines = append(lines, line)
	}
	for x := 0; x < size; x++ {
		if line := collectDiag(size, x, 0, 1, 1); len(line) >= winLength {
			lines = append(lines, line)
		}
		if line := collectDiag(size, x, 0, -1, 1); len(line) >= winLength {
			lines = append(lines, line)
		}
	}
	for y := 1; y < size; y++ {
		if line := collectDiag(size, 0, y, 1, 1); len(line) >= winLength {
			lines = append(lines, line)
		}
		if line := collectDiag(size, size-1, y, -1, 1); len(line) >= winLength {
			lines = append(lines, line)
		}
	}
	return lines
}

func collectDiag(size, x, y, dx, dy int) []int {
	line := []int{}
	for x >= 0 && y >= 0 && x < size && y < size {
		line = append(line, y*size+x)
		x += dx
		y += dy
	}
	return line
}

// Evaluator scores gomoku positions by threat patterns, from SideFirst's
// perspective as the engine requires.
type Evaluator struct {
	weights ThreatWeights
}

func NewEvaluator(w ThreatWeights) *Evaluator {
	return &Evaluator{weights: w}
}

func (e *Evaluator) Evaluate(pos engine.Rules) int {
	p, ok := pos.(*Position)
	if !ok {
		return 0
	}
	if p.IsCheckmate() {
		if p.toMove == engine.SideFirst {
			return -engine.MateScore
		}
		return engine.MateScore
	}
	if p.IsDrawn() {
		return 0
	}

	size := p.board.Size()
	buf := make([]byte, size+2)
	var first, second ThreatTotals
	for _, line := range linesForSize(size) {
		accumulatePatterns(buildTokens(p.board, line, engine.SideFirst, buf), &first)
		accumulatePatterns(buildTokens(p.board, line, engine.SideSecond, buf), &second)
	}

	// An open four the mover did not just create decides the game one ply
	// out; short-circuit before the weighted sum can drown it.
	if second.Open4 > 0 && first.Open4 == 0 {
		return -openFourScore
	}
	if first.Open4 > 0 && second.Open4 == 0 {
		return openFourScore
	}

	score := e.weightedSum(first) - e.weightedSum(second)
	score += e.forkBonus(first) - e.forkBonus(second)
	return score
}

// buildTokens renders one line as pattern tokens for the given side, with O
// sentinels standing in for the board edge.
func buildTokens(board Board, line []int, side engine.Side, buf []byte) []byte {
	buf = buf[:len(line)+2]
	buf[0] = 'O'
	for i, idx := range line {
		switch board.cells[idx] {
		case engine.NoSide:
			buf[i+1] = '.'
		case side:
			buf[i+1] = 'M'
		default:
			buf[i+1] = 'O'
		}
	}
	buf[len(line)+1] = 'O'
	return buf
}

func accumulatePatterns(tokens []byte, totals *ThreatTotals) {
	for i := 0; i < len(tokens); i++ {
		for _, entry := range evalPatterns {
			if matchAt(tokens, entry.pattern, i) {
				entry.apply(totals)
				i += len(entry.pattern) - 1
				break
			}
		}
	}
}

func matchAt(tokens []byte, pattern string, start int) bool {
	if start+len(pattern) > len(tokens) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if tokens[start+i] != pattern[i] {
			return false
		}
	}
	return true
}

func (e *Evaluator) weightedSum(t ThreatTotals) int {
	w := e.weights
	return t.Open4*w.Open4 +
		t.Closed4*w.Closed4 +
		t.Broken4*w.Broken4 +
		t.Open3*w.Open3 +
		t.Broken3*w.Broken3 +
		t.Closed3*w.Closed3 +
		t.Open2*w.Open2 +
		t.Broken2*w.Broken2
}

func (e *Evaluator) forkBonus(t ThreatTotals) int {
	bonus := 0
	if t.Open3 >= 2 {
		bonus += e.weights.ForkOpen3
	}
	if t.Closed4+t.Broken4 >= 2 {
		bonus += e.weights.ForkFourPlus
	}
	return bonus
}
