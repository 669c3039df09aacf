package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestRandomPolicyIsReproducible(t *testing.T) {
	play := func(seed int64) []string {
		pos := board.NewPosition()
		rp := NewRandomPolicy(seed)
		var line []string
		for i := 0; i < 20; i++ {
			m, err := rp.ChooseMove(context.Background(), pos)
			if err != nil {
				t.Fatal(err)
			}
			if m == board.NoMove {
				break
			}
			if !pos.GenerateLegalMoves().Contains(m) {
				t.Fatalf("random policy chose illegal %s", m)
			}
			pos.MakeMove(m)
			line = append(line, m.String())
		}
		return line
	}
	a, b := play(7), play(7)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ply %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestPoliciesAtTerminalPositions(t *testing.T) {
	policies := map[string]MoveChooser{
		"search": SearchPolicy{Depth: 2},
		"random": NewRandomPolicy(1),
	}
	mated := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	for name, p := range policies {
		t.Run(name, func(t *testing.T) {
			pos := mustFEN(t, mated)
			m, err := p.ChooseMove(context.Background(), pos)
			if err != nil || m != board.NoMove {
				t.Errorf("got %s, %v; want no move", m, err)
			}
		})
	}
}

func TestSearchPolicyFindsMate(t *testing.T) {
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/K3R2q w - - 0 1")
	m, err := SearchPolicy{Depth: 2, Eval: Positional}.ChooseMove(context.Background(), pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.String() != "e1e8" {
		t.Errorf("chose %s, want e1e8", m)
	}
}

func TestPoliciesHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, p := range map[string]MoveChooser{"search": SearchPolicy{Depth: 3}, "random": NewRandomPolicy(1)} {
		if _, err := p.ChooseMove(ctx, board.NewPosition()); !errors.Is(err, ErrSearchCancelled) {
			t.Errorf("%s: error = %v, want ErrSearchCancelled", name, err)
		}
	}
}
