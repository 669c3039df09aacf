package engine

import (
	"context"
	"math/rand"
	"sync"

	"github.com/hailam/chesscore/internal/board"
)

// MoveChooser picks a move for the side to move. It returns NoMove with a
// nil error when there is no legal move. pos is restored before returning.
type MoveChooser interface {
	ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error)
}

// SearchPolicy chooses by fixed-depth alpha-beta search. Each call uses a
// fresh Searcher, so one policy may serve several goroutines as long as
// they search different positions.
type SearchPolicy struct {
	Depth int
	Eval  Evaluator // Material when nil
}

// ChooseMove implements MoveChooser.
func (sp SearchPolicy) ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error) {
	res, err := NewSearcher(sp.Eval).Search(ctx, pos, sp.Depth)
	if err != nil {
		return board.NoMove, err
	}
	return res.Move, nil
}

// RandomPolicy picks uniformly among the legal moves. With a fixed seed the
// sequence of choices is reproducible.
type RandomPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPolicy returns a random policy seeded with seed.
func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

// ChooseMove implements MoveChooser.
func (rp *RandomPolicy) ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error) {
	if err := ctx.Err(); err != nil {
		return board.NoMove, ErrSearchCancelled
	}
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return board.NoMove, nil
	}
	rp.mu.Lock()
	i := rp.rng.Intn(moves.Len())
	rp.mu.Unlock()
	return moves.Get(i), nil
}
