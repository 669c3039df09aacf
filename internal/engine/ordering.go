package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Ordering priorities.
const (
	hintMoveScore = 10000000
	captureBase   = 1000000
	promotionBase = 900000
	killerScore   = 800000
)

// MVV-LVA: victim value * 10 - attacker value.
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// moveOrderer sorts interior-node moves so cutoffs come early. Killers are
// quiet moves that caused a cutoff at the same ply.
type moveOrderer struct {
	killers [MaxPly + 1]board.Move
	scores  [256]int
}

func (mo *moveOrderer) clear() {
	for i := range mo.killers {
		mo.killers[i] = board.NoMove
	}
}

func (mo *moveOrderer) scoreMove(pos *board.Position, m, hint board.Move, ply int) int {
	if m == hint {
		return hintMoveScore
	}
	switch {
	case m.IsEnPassant():
		return captureBase + mvvLva[board.Pawn][board.Pawn]
	case m.IsCapture():
		victim := pos.PieceAt(m.To()).Type()
		attacker := pos.PieceAt(m.From()).Type()
		score := captureBase + mvvLva[victim][attacker]
		if m.IsPromotion() {
			score += pieceValues[m.Promotion()]
		}
		return score
	case m.IsPromotion():
		return promotionBase + pieceValues[m.Promotion()]
	case m == mo.killers[ply]:
		return killerScore
	}
	return 0
}

// sort orders ml by descending score. The insertion sort is stable, so
// equal-scored moves keep generation order and the search stays
// reproducible.
func (mo *moveOrderer) sort(pos *board.Position, ml *board.MoveList, hint board.Move, ply int) {
	moves := ml.Slice()
	scores := mo.scores[:len(moves)]
	for i, m := range moves {
		scores[i] = mo.scoreMove(pos, m, hint, ply)
	}
	for i := 1; i < len(moves); i++ {
		m, s := moves[i], scores[i]
		j := i - 1
		for j >= 0 && scores[j] < s {
			moves[j+1], scores[j+1] = moves[j], scores[j]
			j--
		}
		moves[j+1], scores[j+1] = m, s
	}
}

// recordCutoff remembers a quiet move that refuted its parent.
func (mo *moveOrderer) recordCutoff(m board.Move, ply int) {
	if !m.IsCapture() && !m.IsPromotion() {
		mo.killers[ply] = m
	}
}
