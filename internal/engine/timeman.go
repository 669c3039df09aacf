package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Clock holds the remaining time and increment for both sides, as sent by
// a UCI "go wtime ... btime ..." command.
type Clock struct {
	Time      [2]time.Duration // remaining time, indexed by color
	Inc       [2]time.Duration // increment per move
	MovesToGo int              // moves until the next time control, 0 for sudden death
}

// IsSet reports whether any clock time was given.
func (c Clock) IsSet() bool {
	return c.Time[board.White] > 0 || c.Time[board.Black] > 0
}

// TimeManager turns search limits into an optimum and a hard maximum
// thinking time.
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
}

// Init computes the budget for a search starting now. ply is the game ply,
// used to estimate how many moves remain.
func (tm *TimeManager) Init(limits SearchLimits, us board.Color, ply int) {
	tm.startTime = time.Now()

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		return
	}
	if limits.Infinite || limits.Clock.Time[us] == 0 {
		tm.optimumTime = 0
		tm.maximumTime = 0
		return
	}

	timeLeft := limits.Clock.Time[us]
	inc := limits.Clock.Inc[us]

	mtg := limits.Clock.MovesToGo
	if mtg == 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}

	base := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = base
	if ply < 8 {
		tm.optimumTime = base * 85 / 100
	}

	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)
	tm.maximumTime = min(tm.maximumTime, timeLeft*95/100)

	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, 50*time.Millisecond)
}

// Elapsed returns the time since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime is the target thinking time, 0 when unlimited.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime is the hard limit, 0 when unlimited.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Unlimited reports whether the search may run until stopped or until its
// depth limit.
func (tm *TimeManager) Unlimited() bool {
	return tm.maximumTime == 0
}

// PastOptimum reports whether starting another iteration would likely
// overrun: more than half the optimum is spent.
func (tm *TimeManager) PastOptimum() bool {
	if tm.Unlimited() {
		return false
	}
	return tm.Elapsed()*2 >= tm.optimumTime
}

// AdjustForStability shortens the optimum when the best move has held for
// several iterations.
func (tm *TimeManager) AdjustForStability(stability int) {
	switch {
	case stability >= 6:
		tm.optimumTime = tm.optimumTime * 40 / 100
	case stability >= 4:
		tm.optimumTime = tm.optimumTime * 60 / 100
	case stability >= 2:
		tm.optimumTime = tm.optimumTime * 80 / 100
	}
}
