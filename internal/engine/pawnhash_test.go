package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestPawnStructure(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"start", board.StartFEN, 0},
		// c2 pawn backed by d2 on an open board: passed but not isolated.
		{"connected passers", "4k3/8/8/8/8/8/2PP4/4K3 w - - 0 1", 2 * passedPawnBonus[1]},
		{"isolated passer", "4k3/8/8/8/8/8/P7/4K3 w - - 0 1", passedPawnBonus[1] - IsolatedPawnPenalty},
		{"doubled isolated", "4k3/4p3/8/8/8/P7/P7/4K3 w - - 0 1",
			passedPawnBonus[1] + passedPawnBonus[2] - DoubledPawnPenalty - 2*IsolatedPawnPenalty -
				(passedPawnBonus[1] - IsolatedPawnPenalty)},
		{"blocked", "4k3/8/8/3p4/3P4/8/8/4K3 w - - 0 1", 0},
		{"black passer far advanced", "4k3/8/8/8/8/8/p7/4K3 b - - 0 1", -(passedPawnBonus[6] - IsolatedPawnPenalty)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			got := PawnStructure(pos.Pieces[board.White][board.Pawn], pos.Pieces[board.Black][board.Pawn])
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPawnTable(t *testing.T) {
	pt := NewPawnTable(1)
	w, b := board.Rank1<<8, board.Rank1<<48
	if _, ok := pt.Probe(w, b); ok {
		t.Fatal("empty table hit")
	}
	pt.Store(w, b, 37)
	if got, ok := pt.Probe(w, b); !ok || got != 37 {
		t.Errorf("probe = %d, %v", got, ok)
	}
	if _, ok := pt.Probe(b, w); ok {
		t.Error("swapped placement hit")
	}
	if pt.HitRate() <= 0 {
		t.Error("hit rate not tracked")
	}
	pt.Clear()
	if _, ok := pt.Probe(w, b); ok {
		t.Error("hit after Clear")
	}
}

func TestStructureEvaluator(t *testing.T) {
	eval := NewStructureEvaluator(1)
	for _, fen := range []string{board.StartFEN, "4k3/4p3/8/8/8/P7/P7/4K3 w - - 0 1"} {
		pos := mustFEN(t, fen)
		want := Positional.Evaluate(pos) + PawnStructure(pos.Pieces[board.White][board.Pawn], pos.Pieces[board.Black][board.Pawn])
		for i := 0; i < 2; i++ {
			if got := eval.Evaluate(pos); got != want {
				t.Errorf("%s pass %d: got %d, want %d", fen, i, got, want)
			}
		}
	}
	if eval.Pawns().HitRate() != 50 {
		t.Errorf("hit rate %.1f, want 50", eval.Pawns().HitRate())
	}
}

func TestStructureEvaluatorSearch(t *testing.T) {
	// Alpha-beta and minimax agree under any evaluator.
	eval := NewStructureEvaluator(1)
	pos := mustFEN(t, "4k3/pp6/8/8/8/8/5PPP/4K3 w - - 0 1")
	res, err := NewSearcher(eval).Search(t.Context(), pos, 3)
	if err != nil {
		t.Fatal(err)
	}
	move, score := Minimax(pos, 3, eval)
	if res.Move != move || res.Score != score {
		t.Errorf("alpha-beta %s %d, minimax %s %d", res.Move, res.Score, move, score)
	}
}
