package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// Search constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// checkInterval is how many nodes pass between cancellation checks.
const checkInterval = 1024

// ErrSearchCancelled is returned when the context is done or Stop is
// called before the search completes. The position is restored first.
var ErrSearchCancelled = errors.New("search cancelled")

// Result is the outcome of a completed search. Move is NoMove when the
// side to move has no legal move; Score then holds the terminal score.
type Result struct {
	Move  board.Move
	Score int
	Nodes uint64
	Depth int
}

// Searcher runs a depth-limited minimax search with alpha-beta pruning.
// White maximizes and Black minimizes. The root is searched in generation
// order and the first move reaching the best value wins.
//
// A Searcher owns its move lists and undo stack and is not safe for
// concurrent use. It may be reused for several searches in sequence.
type Searcher struct {
	eval    Evaluator
	tt      *TranspositionTable
	orderer moveOrderer
	order   bool

	ctx      context.Context
	stopFlag atomic.Bool
	nodes    uint64

	lists [MaxPly + 1]board.MoveList
	undo  [MaxPly + 1]board.UndoInfo
}

// NewSearcher returns a searcher using eval, or Material when eval is nil.
// Interior moves are searched in generation order until EnableOrdering is
// called.
func NewSearcher(eval Evaluator) *Searcher {
	if eval == nil {
		eval = Material
	}
	return &Searcher{eval: eval}
}

// EnableOrdering sorts interior-node moves using tt hints, captures and
// killers. Ordering prunes more but never changes the result.
func (s *Searcher) EnableOrdering(tt *TranspositionTable) {
	s.order = true
	s.tt = tt
}

// Stop asks a running search to return ErrSearchCancelled. It is safe to
// call from another goroutine.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes returns the node count of the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search looks depth plies ahead from pos and returns the best move for
// the side to move. pos is mutated during the search and restored before
// Search returns, whether it completes or is cancelled.
func (s *Searcher) Search(ctx context.Context, pos *board.Position, depth int) (Result, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxPly {
		depth = MaxPly
	}
	s.ctx = ctx
	s.nodes = 0
	s.stopFlag.Store(false)
	s.orderer.clear()

	root := &s.lists[0]
	pos.AppendLegalMoves(root)
	if root.Len() == 0 {
		return Result{Move: board.NoMove, Score: terminalScore(pos, 0), Depth: depth}, nil
	}

	maximizing := pos.SideToMove == board.White
	alpha, beta := -Infinity, Infinity
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	bestMove := board.NoMove

	for i := 0; i < root.Len(); i++ {
		if s.cancelled() {
			return Result{}, ErrSearchCancelled
		}
		m := root.Get(i)
		s.undo[0] = pos.MakeMove(m)
		v, err := s.alphaBeta(pos, depth-1, alpha, beta, 1)
		pos.UnmakeMove(m, s.undo[0])
		if err != nil {
			return Result{}, err
		}
		if maximizing {
			if v > best {
				best, bestMove = v, m
			}
			alpha = max(alpha, best)
		} else {
			if v < best {
				best, bestMove = v, m
			}
			beta = min(beta, best)
		}
	}

	if s.tt != nil {
		s.tt.Store(pos.Hash, depth, bestMove)
	}
	return Result{Move: bestMove, Score: best, Nodes: s.nodes, Depth: depth}, nil
}

func (s *Searcher) alphaBeta(pos *board.Position, depth, alpha, beta, ply int) (int, error) {
	s.nodes++
	if s.nodes%checkInterval == 0 && s.cancelled() {
		return 0, ErrSearchCancelled
	}

	if depth <= 0 || ply >= MaxPly {
		if !pos.HasLegalMoves() {
			return terminalScore(pos, ply), nil
		}
		return s.eval.Evaluate(pos), nil
	}

	ml := &s.lists[ply]
	pos.AppendLegalMoves(ml)
	if ml.Len() == 0 {
		return terminalScore(pos, ply), nil
	}

	if s.order {
		hint := board.NoMove
		if s.tt != nil {
			hint, _ = s.tt.Probe(pos.Hash)
		}
		s.orderer.sort(pos, ml, hint, ply)
	}

	maximizing := pos.SideToMove == board.White
	value := Infinity
	if maximizing {
		value = -Infinity
	}
	bestMove := board.NoMove

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		s.undo[ply] = pos.MakeMove(m)
		v, err := s.alphaBeta(pos, depth-1, alpha, beta, ply+1)
		pos.UnmakeMove(m, s.undo[ply])
		if err != nil {
			return 0, err
		}
		if maximizing {
			if v > value {
				value, bestMove = v, m
			}
			alpha = max(alpha, value)
		} else {
			if v < value {
				value, bestMove = v, m
			}
			beta = min(beta, value)
		}
		if beta <= alpha {
			if s.order {
				s.orderer.recordCutoff(m, ply)
			}
			break
		}
	}

	if s.tt != nil {
		s.tt.Store(pos.Hash, depth, bestMove)
	}
	return value, nil
}

func (s *Searcher) cancelled() bool {
	if s.stopFlag.Load() {
		return true
	}
	return s.ctx != nil && s.ctx.Err() != nil
}

// terminalScore scores a position with no legal moves: mate favors the
// side that delivered it, sooner mates scoring higher; stalemate is 0.
func terminalScore(pos *board.Position, ply int) int {
	if !pos.InCheck() {
		return 0
	}
	if pos.SideToMove == board.White {
		return -(MateScore - ply)
	}
	return MateScore - ply
}

// PrincipalVariation follows stored best moves from pos, checking each
// against the legal move list. pos is restored before returning.
func PrincipalVariation(pos *board.Position, tt *TranspositionTable, maxLen int) []board.Move {
	if tt == nil {
		return nil
	}
	var (
		line  []board.Move
		undos []board.UndoInfo
		seen  = make(map[uint64]bool)
	)
	for len(line) < maxLen {
		m, ok := tt.Probe(pos.Hash)
		if !ok || seen[pos.Hash] || !pos.GenerateLegalMoves().Contains(m) {
			break
		}
		seen[pos.Hash] = true
		undos = append(undos, pos.MakeMove(m))
		line = append(line, m)
	}
	for i := len(line) - 1; i >= 0; i-- {
		pos.UnmakeMove(line[i], undos[i])
	}
	return line
}

// Minimax is the unpruned reference search. It visits every node and
// breaks root ties like Searcher, so both agree on value and move.
func Minimax(pos *board.Position, depth int, eval Evaluator) (board.Move, int) {
	if eval == nil {
		eval = Material
	}
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return board.NoMove, terminalScore(pos, 0)
	}
	maximizing := pos.SideToMove == board.White
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	bestMove := board.NoMove
	for _, m := range moves.Slice() {
		undo := pos.MakeMove(m)
		v := minimax(pos, depth-1, 1, eval)
		pos.UnmakeMove(m, undo)
		if (maximizing && v > best) || (!maximizing && v < best) {
			best, bestMove = v, m
		}
	}
	return bestMove, best
}

func minimax(pos *board.Position, depth, ply int, eval Evaluator) int {
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return terminalScore(pos, ply)
	}
	if depth <= 0 {
		return eval.Evaluate(pos)
	}
	maximizing := pos.SideToMove == board.White
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, m := range moves.Slice() {
		undo := pos.MakeMove(m)
		v := minimax(pos, depth-1, ply+1, eval)
		pos.UnmakeMove(m, undo)
		if maximizing {
			best = max(best, v)
		} else {
			best = min(best, v)
		}
	}
	return best
}
