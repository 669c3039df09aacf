// Package engine chooses moves for an automated player: evaluation,
// alpha-beta search, move-selection policies and a time-limited facade.
package engine

import (
	"strconv"

	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position from White's point of view: positive favors
// White, negative favors Black. It must be deterministic and must not
// mutate the position. Checkmate and stalemate are scored by the search,
// never by an Evaluator.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(pos *board.Position) int

// Evaluate calls f(pos).
func (f EvaluatorFunc) Evaluate(pos *board.Position) int {
	return f(pos)
}

// NamedEvaluator is an Evaluator with a stable name. The Engine caches
// analyses only for named evaluators, under keys that include the name.
type NamedEvaluator interface {
	Evaluator
	Name() string
}

type namedFunc struct {
	name string
	f    func(pos *board.Position) int
}

func (n namedFunc) Evaluate(pos *board.Position) int { return n.f(pos) }
func (n namedFunc) Name() string                     { return n.name }

// EvaluatorByName returns the evaluator called "material", "positional" or
// "structure". Each structure evaluator gets its own pawn table.
func EvaluatorByName(name string) (Evaluator, bool) {
	switch name {
	case "material":
		return Material, true
	case "positional":
		return Positional, true
	case "structure":
		return NewStructureEvaluator(1), true
	}
	return nil, false
}

// EvaluatorName returns the name of eval, or "" when it has none.
func EvaluatorName(eval Evaluator) string {
	if n, ok := eval.(NamedEvaluator); ok {
		return n.Name()
	}
	return ""
}

// Piece values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 0
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Material is the baseline evaluator: the signed sum of piece values.
var Material Evaluator = namedFunc{"material", EvaluateMaterial}

// EvaluateMaterial returns White's material minus Black's, in centipawns.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	return score
}

// Positional adds piece-square bonuses to the material count. It keeps the
// material ordering: no square bonus is worth as much as a pawn.
var Positional Evaluator = namedFunc{"positional", EvaluatePositional}

// Piece-square tables, drawn from White's side with rank 8 on the first
// row. White indexes them with sq^56, Black with sq.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingPST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var psts = [6]*[64]int{&pawnPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingPST}

// EvaluatePositional returns material plus piece-square bonuses.
func EvaluatePositional(pos *board.Position) int {
	score := EvaluateMaterial(pos)
	for pt := board.Pawn; pt <= board.King; pt++ {
		table := psts[pt]
		for bb := pos.Pieces[board.White][pt]; bb != 0; {
			score += table[bb.PopLSB()^56]
		}
		for bb := pos.Pieces[board.Black][pt]; bb != 0; {
			score -= table[bb.PopLSB()]
		}
	}
	return score
}

// ScoreString renders a score for people: "+1.50", "-0.30",
// "White mates in 2", "Black mates in 1". Mate distances count moves of the
// side that is winning.
func ScoreString(score int) string {
	if IsMateScore(score) {
		plies := MateScore - abs(score)
		moves := (plies + 1) / 2
		if score > 0 {
			return "White mates in " + strconv.Itoa(moves)
		}
		return "Black mates in " + strconv.Itoa(moves)
	}
	sign := "+"
	if score < 0 {
		sign = "-"
		score = -score
	}
	cents := score % 100
	pad := ""
	if cents < 10 {
		pad = "0"
	}
	return sign + strconv.Itoa(score/100) + "." + pad + strconv.Itoa(cents)
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return abs(score) > MateScore-MaxPly
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
