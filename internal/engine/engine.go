package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// SearchInfo reports one completed iteration of iterative deepening.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // permille of the hint table written this search
}

// SearchLimits bounds a search. Zero fields mean no limit of that kind;
// with no limit at all the search runs until stopped.
type SearchLimits struct {
	Depth    int           // maximum depth
	MoveTime time.Duration // time for this move
	Clock    Clock         // game clock, used when MoveTime is zero
	Infinite bool          // search until stopped
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

var difficultyNames = [...]string{"easy", "medium", "hard"}

func (d Difficulty) String() string {
	if d < 0 || int(d) >= len(difficultyNames) {
		return "unknown"
	}
	return difficultyNames[d]
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	for i, name := range difficultyNames {
		if s == name {
			return Difficulty(i), true
		}
	}
	return Medium, false
}

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 4, MoveTime: 2 * time.Second},
	Hard:   {Depth: 6, MoveTime: 5 * time.Second},
}

// CacheEntry is a finished analysis of one position.
type CacheEntry struct {
	Move  string `json:"move"`
	Score int    `json:"score"`
	Depth int    `json:"depth"`
}

// Cache stores analyses under keys built by CacheKey. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(key string) (CacheEntry, bool)
	Put(key string, e CacheEntry) error
}

// CacheKey is the cache key for an analysis of pos by the evaluator named
// evalName: the name followed by the counter-free FEN.
func CacheKey(evalName string, pos *board.Position) string {
	return evalName + ":" + pos.KeyFEN()
}

// Engine is the chess AI: iterative deepening over a Searcher with time
// limits, progress reports and an optional analysis cache. One Engine runs
// one search at a time; SearchWithLimits serializes callers.
type Engine struct {
	mu         sync.Mutex
	searcher   *Searcher
	tt         *TranspositionTable
	difficulty Difficulty
	cache      Cache
	evalName   string // "" disables the cache

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	// OnInfo, when set, is called after every completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a hint table of about hashMB megabytes
// and the positional evaluator.
func NewEngine(hashMB int) *Engine {
	tt := NewTranspositionTable(hashMB)
	s := NewSearcher(Positional)
	s.EnableOrdering(tt)
	return &Engine{
		searcher:   s,
		tt:         tt,
		difficulty: Medium,
		evalName:   EvaluatorName(Positional),
	}
}

// SetEvaluator replaces the evaluator used by later searches. Analyses by
// an evaluator that is not a NamedEvaluator are never cached.
func (e *Engine) SetEvaluator(eval Evaluator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if eval == nil {
		eval = Material
	}
	e.searcher.eval = eval
	e.evalName = EvaluatorName(eval)
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.mu.Lock()
	e.difficulty = d
	e.mu.Unlock()
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficulty
}

// SetCache installs c, or removes the cache when c is nil.
func (e *Engine) SetCache(c Cache) {
	e.mu.Lock()
	e.cache = c
	e.mu.Unlock()
}

// Search finds the best move using the current difficulty's limits.
func (e *Engine) Search(ctx context.Context, pos *board.Position) (Result, error) {
	return e.SearchWithLimits(ctx, pos, DifficultySettings[e.Difficulty()])
}

// SearchWithLimits runs iterative deepening until a limit is reached, ctx
// is done or Stop is called, and returns the deepest completed result. It
// returns ErrSearchCancelled only if no iteration completed. Depth 1 is not
// subject to the time limit, so a short limit never leaves the caller
// without a move. pos is restored before returning.
func (e *Engine) SearchWithLimits(ctx context.Context, pos *board.Position, limits SearchLimits) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := CacheKey(e.evalName, pos)
	if res, ok := e.fromCache(pos, key, limits); ok {
		return res, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancelMu.Lock()
	e.cancel = cancel
	e.cancelMu.Unlock()
	defer func() {
		e.cancelMu.Lock()
		e.cancel = nil
		e.cancelMu.Unlock()
	}()

	var tm TimeManager
	ply := (pos.FullMoveNumber - 1) * 2
	if pos.SideToMove == board.Black {
		ply++
	}
	tm.Init(limits, pos.SideToMove, ply)

	// Iterations after the first also stop at the hard time limit.
	deadlineCtx := ctx
	if !tm.Unlimited() {
		var stop context.CancelFunc
		deadlineCtx, stop = context.WithTimeout(ctx, tm.MaximumTime())
		defer stop()
	}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly)
	}

	e.tt.NewSearch()
	var (
		best      Result
		have      bool
		totalNode uint64
		stability int
	)
	for depth := 1; depth <= maxDepth; depth++ {
		iterCtx := deadlineCtx
		if depth == 1 {
			iterCtx = ctx
		}
		res, err := e.searcher.Search(iterCtx, pos, depth)
		totalNode += e.searcher.Nodes()
		if err != nil {
			if errors.Is(err, ErrSearchCancelled) && have {
				break
			}
			return Result{}, err
		}
		if have && res.Move == best.Move {
			stability++
		} else {
			stability = 0
		}
		best, have = res, true
		best.Nodes = totalNode

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    res.Score,
				Nodes:    totalNode,
				Time:     tm.Elapsed(),
				PV:       PrincipalVariation(pos, e.tt, depth),
				HashFull: e.tt.HashFull(),
			})
		}

		if res.Move == board.NoMove || IsMateScore(res.Score) {
			break
		}
		tm.AdjustForStability(stability)
		if tm.PastOptimum() {
			break
		}
	}

	if e.cache != nil && e.evalName != "" && best.Move != board.NoMove && (limits.Depth == 0 || best.Depth >= limits.Depth) {
		// A failed write only costs a later recomputation.
		_ = e.cache.Put(key, CacheEntry{Move: best.Move.String(), Score: best.Score, Depth: best.Depth})
	}
	return best, nil
}

// fromCache returns a cached analysis at least as deep as limits asks for,
// checking that the stored move is still legal in pos.
func (e *Engine) fromCache(pos *board.Position, key string, limits SearchLimits) (Result, bool) {
	if e.cache == nil || e.evalName == "" || limits.Depth == 0 {
		return Result{}, false
	}
	entry, ok := e.cache.Get(key)
	if !ok || entry.Depth < limits.Depth {
		return Result{}, false
	}
	m, err := board.DecodeMove(pos, entry.Move)
	if err != nil {
		return Result{}, false
	}
	return Result{Move: m, Score: entry.Score, Depth: entry.Depth}, true
}

// Stop cancels the running search, if any. The search returns the deepest
// completed result, or ErrSearchCancelled if none completed.
func (e *Engine) Stop() {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// SetHashSize replaces the hint table with an empty one of about mb
// megabytes.
func (e *Engine) SetHashSize(mb int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt = NewTranspositionTable(mb)
	e.searcher.EnableOrdering(e.tt)
}

// Clear empties the hint table.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.tt.Clear()
	e.mu.Unlock()
}

// Perft counts leaf nodes of the legal move tree, for move generator checks.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return pos.Perft(depth)
}

// Evaluate returns the static evaluation of pos from White's point of view.
func (e *Engine) Evaluate(pos *board.Position) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searcher.eval.Evaluate(pos)
}
