package gomoku

import (
	"sync"

	"github.com/timclh/Chess-v1-sub000/engine"
)

// zobristTable holds one random key per (cell, side) pair plus a side-to-move
// key. Tables are built lazily per board size and shared between positions.
type zobristTable struct {
	size  int
	cells []uint64
	side  uint64
}

var zobrist = struct {
	mu     sync.Mutex
	tables map[int]*zobristTable
}{tables: make(map[int]*zobristTable)}

func getZobrist(size int) *zobristTable {
	zobrist.mu.Lock()
	defer zobrist.mu.Unlock()
	if t, ok := zobrist.tables[size]; ok {
		return t
	}
	rng := splitmix64{state: 0x9e3779b97f4a7c15 ^ uint64(size)}
	t := &zobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range t.cells {
		t.cells[i] = rng.next()
	}
	t.side = rng.next()
	zobrist.tables[size] = t
	return t
}

func (t *zobristTable) stone(square int, side engine.Side) uint64 {
	idx := square * 2
	if side == engine.SideSecond {
		idx++
	}
	return t.cells[idx]
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
