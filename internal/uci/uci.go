// Package uci speaks the Universal Chess Interface over a line stream.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	in  io.Reader
	out *syncWriter
	log *syncWriter

	// Search state
	searchDone   chan struct{}
	cancelSearch context.CancelFunc

	// CPU profiling
	profileFile *os.File
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// New creates a protocol handler reading commands from in and writing
// replies to out. Diagnostics go to log as "info string" lines.
func New(eng *engine.Engine, in io.Reader, out, log io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		in:       in,
		out:      &syncWriter{w: out},
		log:      &syncWriter{w: log},
	}
}

// Run reads commands until "quit" or end of input. ctx bounds every
// search started by "go". On "quit" a running search is stopped; at end of
// input it is allowed to finish so piped command files get their bestmove.
func (u *UCI) Run(ctx context.Context) error {
	defer u.stopProfile()

	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.out.printf("readyok\n")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			u.logf("Unknown command: %s", cmd)
		}
	}
	u.waitSearch()
	return scanner.Err()
}

func (u *UCI) logf(format string, args ...any) {
	u.log.printf("info string "+format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.out.printf("id name ChessCore\n")
	u.out.printf("id author ChessCore Team\n\n")
	u.out.printf("option name Hash type spin default 16 min 1 max 4096\n")
	u.out.printf("option name Evaluator type combo default positional var positional var material var structure\n")
	u.out.printf("option name CPUProfile type string default <empty>\n")
	u.out.printf("uciok\n")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// The current position is replaced only if the FEN and every move are valid.
func (u *UCI) handlePosition(args []string) {
	pos, err := ParsePosition(args)
	if err != nil {
		u.logf("%v", err)
		return
	}
	u.handleStop()
	u.position = pos
}

// ParsePosition builds the position described by the arguments of a UCI
// "position" command.
func ParsePosition(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("position: missing startpos or fen")
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		p, err := board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return nil, fmt.Errorf("position: %w", err)
		}
		pos = p
	default:
		return nil, fmt.Errorf("position: unknown kind %q", args[0])
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := board.DecodeMove(pos, s)
			if err != nil {
				return nil, fmt.Errorf("position: %w", err)
			}
			pos.MakeMove(m)
		}
	}
	return pos, nil
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	limits := calculateLimits(parseGoOptions(args), u.engine.Difficulty())
	pos := u.position.Copy()
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(pos, info)
	}

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.searchDone = done
	u.cancelSearch = cancel
	// The search owns its own copy of the position.
	search := pos.Copy()
	eng := u.engine

	go func() {
		defer close(done)
		defer cancel()
		res, err := eng.SearchWithLimits(sctx, search, limits)
		if err != nil {
			u.logf("search: %v", err)
		}
		best := res.Move
		if best != board.NoMove && !pos.GenerateLegalMoves().Contains(best) {
			u.logf("CRITICAL: search returned illegal move %s", best)
			best = board.NoMove
		}
		if best == board.NoMove {
			// Fallback: first legal move, or 0000 at mate and stalemate.
			if legal := pos.GenerateLegalMoves(); legal.Len() > 0 {
				best = legal.Get(0)
			}
		}
		u.out.printf("bestmove %s\n", best)
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	ms := func(i int) time.Duration {
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "depth":
			if hasValue {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if hasValue {
				opts.MoveTime = ms(i + 1)
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if hasValue {
				opts.WTime = ms(i + 1)
				i++
			}
		case "btime":
			if hasValue {
				opts.BTime = ms(i + 1)
				i++
			}
		case "winc":
			if hasValue {
				opts.WInc = ms(i + 1)
				i++
			}
		case "binc":
			if hasValue {
				opts.BInc = ms(i + 1)
				i++
			}
		case "movestogo":
			if hasValue {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits. A bare "go"
// uses the preset of difficulty d.
func calculateLimits(opts GoOptions, d engine.Difficulty) engine.SearchLimits {
	if opts.Infinite {
		return engine.SearchLimits{Infinite: true}
	}
	limits := engine.SearchLimits{
		Depth:    opts.Depth,
		MoveTime: opts.MoveTime,
		Clock: engine.Clock{
			Time:      [2]time.Duration{opts.WTime, opts.BTime},
			Inc:       [2]time.Duration{opts.WInc, opts.BInc},
			MovesToGo: opts.MovesToGo,
		},
	}
	if limits.Depth == 0 && limits.MoveTime == 0 && !limits.Clock.IsSet() {
		return engine.DifficultySettings[d]
	}
	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(root *board.Position, info engine.SearchInfo) {
	u.out.printf("info %s\n", FormatInfo(root, info))
}

// FormatInfo renders info as the body of a UCI "info" line. PV moves are
// checked against root and the line stops at the first illegal one.
func FormatInfo(root *board.Position, info engine.SearchInfo) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	if engine.IsMateScore(info.Score) {
		// UCI scores are from the side to move.
		plies := engine.MateScore - abs(info.Score)
		mateIn := (plies + 1) / 2
		winnerIsWhite := info.Score > 0
		if winnerIsWhite != (root.SideToMove == board.White) {
			mateIn = -mateIn
		}
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		cp := info.Score
		if root.SideToMove == board.Black {
			cp = -cp
		}
		parts = append(parts, fmt.Sprintf("score cp %d", cp))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		valid := make([]string, 0, len(info.PV))
		pos := root.Copy()
		for _, m := range info.PV {
			if !pos.GenerateLegalMoves().Contains(m) {
				break
			}
			valid = append(valid, m.String())
			pos.MakeMove(m)
		}
		if len(valid) > 0 {
			parts = append(parts, "pv "+strings.Join(valid, " "))
		}
	}

	return strings.Join(parts, " ")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancelSearch()
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	name, value := parseSetOption(args)

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			u.logf("Invalid Hash value %q", value)
			return
		}
		u.handleStop()
		u.engine.SetHashSize(mb)
	case "evaluator":
		eval, ok := engine.EvaluatorByName(strings.ToLower(value))
		if !ok {
			u.logf("Unknown evaluator %q", value)
			return
		}
		u.handleStop()
		u.engine.SetEvaluator(eval)
	case "cpuprofile":
		u.stopProfile()
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				u.logf("Failed to create profile: %v", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				u.logf("Failed to start profile: %v", err)
				return
			}
			u.profileFile = f
			u.logf("CPU profiling to %s", value)
		}
	default:
		u.logf("Unknown option %q", name)
	}
}

// parseSetOption splits "name <name> value <value>"; both may contain spaces.
func parseSetOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

func (u *UCI) stopProfile() {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
		u.logf("CPU profile saved")
	}
}

// handleDisplay prints the board, its FEN and its status.
func (u *UCI) handleDisplay() {
	u.out.printf("%s\nFen: %s\nStatus: %s\n", u.position, u.position.ToFEN(), u.position.Status())
}

// handlePerft runs a perft test, listing the count below each root move.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d >= 0 {
			depth = d
		}
	}

	start := time.Now()
	divide := u.position.Divide(depth)
	moves := make([]string, 0, len(divide))
	var nodes uint64
	for m, n := range divide {
		moves = append(moves, m)
		nodes += n
	}
	sort.Strings(moves)
	for _, m := range moves {
		u.out.printf("%s: %d\n", m, divide[m])
	}
	if depth == 0 {
		nodes = 1
	}
	elapsed := time.Since(start)

	u.out.printf("\nNodes: %d\n", nodes)
	u.out.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.out.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
