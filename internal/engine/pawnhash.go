package engine

import "github.com/hailam/chesscore/internal/board"

// Pawn structure terms, in centipawns.
const (
	DoubledPawnPenalty  = 15
	IsolatedPawnPenalty = 12
)

// passedPawnBonus is indexed by the pawn's rank relative to its owner.
var passedPawnBonus = [8]int{0, 5, 10, 20, 35, 60, 100, 0}

var (
	fileMasks     [8]board.Bitboard
	adjacentFiles [8]board.Bitboard
	// passedMasks[c][sq] holds the squares in front of sq, on its file and
	// the adjacent ones, that an enemy pawn would have to occupy to stop it.
	passedMasks [2][64]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		fileMasks[f] = board.FileA << f
	}
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= fileMasks[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= fileMasks[f+1]
		}
	}
	for sq := board.Square(0); sq < 64; sq++ {
		span := fileMasks[sq.File()] | adjacentFiles[sq.File()]
		for r := sq.Rank() + 1; r < 8; r++ {
			passedMasks[board.White][sq] |= span & (board.Rank1 << (8 * r))
		}
		for r := sq.Rank() - 1; r >= 0; r-- {
			passedMasks[board.Black][sq] |= span & (board.Rank1 << (8 * r))
		}
	}
}

// PawnStructure scores doubled, isolated and passed pawns, White-positive.
func PawnStructure(white, black board.Bitboard) int {
	return pawnTerms(white, black, board.White) - pawnTerms(black, white, board.Black)
}

func pawnTerms(ours, theirs board.Bitboard, c board.Color) int {
	score := 0
	for f := 0; f < 8; f++ {
		n := (ours & fileMasks[f]).PopCount()
		if n == 0 {
			continue
		}
		if n > 1 {
			score -= DoubledPawnPenalty * (n - 1)
		}
		if ours&adjacentFiles[f] == 0 {
			score -= IsolatedPawnPenalty * n
		}
	}
	for bb := ours; bb != 0; {
		sq := bb.PopLSB()
		if theirs&passedMasks[c][sq] == 0 {
			score += passedPawnBonus[sq.RelativeRank(c)]
		}
	}
	return score
}

// pawnEntry caches the structure score of one pawn placement. Both
// bitboards are stored, so a hit is always exact.
type pawnEntry struct {
	white, black board.Bitboard
	score        int32
	valid        bool
}

// PawnTable caches PawnStructure by pawn placement. Not safe for
// concurrent use.
type PawnTable struct {
	entries      []pawnEntry
	mask         uint64
	probes, hits uint64
}

// NewPawnTable creates a pawn table of about sizeMB megabytes.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 24
	numEntries := max(sizeMB, 1) * 1024 * 1024 / entrySize

	// Round down to power of 2
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	return &PawnTable{
		entries: make([]pawnEntry, size),
		mask:    uint64(size - 1),
	}
}

func pawnIndex(white, black board.Bitboard) uint64 {
	h := uint64(white)*0x9E3779B97F4A7C15 ^ uint64(black)*0xC2B2AE3D27D4EB4F
	return h ^ h>>29
}

// Probe returns the cached score for the placement, if present.
func (pt *PawnTable) Probe(white, black board.Bitboard) (int, bool) {
	pt.probes++
	e := &pt.entries[pawnIndex(white, black)&pt.mask]
	if e.valid && e.white == white && e.black == black {
		pt.hits++
		return int(e.score), true
	}
	return 0, false
}

// Store records score for the placement, replacing whatever shared its slot.
func (pt *PawnTable) Store(white, black board.Bitboard, score int) {
	pt.entries[pawnIndex(white, black)&pt.mask] = pawnEntry{white: white, black: black, score: int32(score), valid: true}
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
	pt.probes, pt.hits = 0, 0
}

// HitRate returns the percentage of probes that found an entry.
func (pt *PawnTable) HitRate() float64 {
	if pt.probes == 0 {
		return 0
	}
	return float64(pt.hits) * 100 / float64(pt.probes)
}

// StructureEvaluator is Positional plus PawnStructure, with the pawn terms
// cached in a PawnTable. Each Engine or goroutine needs its own instance.
type StructureEvaluator struct {
	pawns *PawnTable
}

// NewStructureEvaluator returns an evaluator with a pawn table of about
// sizeMB megabytes.
func NewStructureEvaluator(sizeMB int) *StructureEvaluator {
	return &StructureEvaluator{pawns: NewPawnTable(sizeMB)}
}

// Evaluate implements Evaluator.
func (e *StructureEvaluator) Evaluate(pos *board.Position) int {
	w, b := pos.Pieces[board.White][board.Pawn], pos.Pieces[board.Black][board.Pawn]
	pawns, ok := e.pawns.Probe(w, b)
	if !ok {
		pawns = PawnStructure(w, b)
		e.pawns.Store(w, b, pawns)
	}
	return EvaluatePositional(pos) + pawns
}

// Name implements NamedEvaluator.
func (e *StructureEvaluator) Name() string {
	return "structure"
}

// Pawns exposes the pawn table for statistics.
func (e *StructureEvaluator) Pawns() *PawnTable {
	return e.pawns
}
