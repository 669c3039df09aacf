package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// TTEntry remembers the best move found for a position.
type TTEntry struct {
	Key      uint64     // full Zobrist hash, checked on probe
	BestMove board.Move // refutation or best move
	Depth    int8       // remaining depth when stored
	Age      uint8      // search generation
}

// TranspositionTable maps position hashes to the best move last found there.
// The search uses it only to order moves, so a stale or colliding entry can
// slow the search down but cannot change its result. It is not safe for
// concurrent use; each Engine owns one.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table of about sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const entrySize = 16
	n := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		size:    n,
		mask:    n - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the move stored for hash, if any.
func (tt *TranspositionTable) Probe(hash uint64) (board.Move, bool) {
	tt.probes++
	e := &tt.entries[hash&tt.mask]
	if e.Key == hash && e.BestMove != board.NoMove {
		tt.hits++
		return e.BestMove, true
	}
	return board.NoMove, false
}

// Store records move for hash. Entries from the current search are only
// replaced by results of equal or greater depth.
func (tt *TranspositionTable) Store(hash uint64, depth int, move board.Move) {
	e := &tt.entries[hash&tt.mask]
	if e.Age == tt.age && e.Key != 0 && depth < int(e.Depth) {
		return
	}
	*e = TTEntry{Key: hash, BestMove: move, Depth: int8(depth), Age: tt.age}
}

// NewSearch starts a new generation so older entries become replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age, tt.hits, tt.probes = 0, 0, 0
}

// HashFull returns the permille of sampled entries written this generation.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if uint64(sample) > tt.size {
		sample = int(tt.size)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Key != 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / sample
}

// HitRate returns the percentage of probes that found a move.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}
