package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

var (
	// ErrGameOver is returned when a move is offered after the game ended.
	ErrGameOver = errors.New("game over")
	// ErrNothingToUndo is returned by Undo at the initial position.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrPositionChanged is returned when the position moved on while a
	// reply was being searched; the stale reply is discarded.
	ErrPositionChanged = errors.New("position changed during search")
)

type ply struct {
	move board.Move
	undo board.UndoInfo
}

// Turn is the outcome of Session.Play.
type Turn struct {
	Human  string       // the move that was played for the human
	Reply  string       // the automated reply, empty if the game ended first
	Status board.Status // status after the last move played
}

// Session owns one game: its position, its move stack and the policy that
// answers the human. It is safe for concurrent use; replies are searched
// on a copy so the position can be read while the engine thinks.
type Session struct {
	mu      sync.Mutex
	pos     *board.Position
	start   *board.Position
	history []ply
	chooser engine.MoveChooser

	// OnGameOver, when set, is called once with the final status and the
	// number of plies played.
	OnGameOver func(status board.Status, plies int)
	over       bool
}

// NewSession starts a game from pos (the standard position when nil) with
// chooser answering the human.
func NewSession(pos *board.Position, chooser engine.MoveChooser) *Session {
	if pos == nil {
		pos = board.NewPosition()
	}
	return &Session{pos: pos.Copy(), start: pos.Copy(), chooser: chooser}
}

// Play applies the human move s and then the chooser's reply. If s is
// rejected nothing changes. If the reply search fails, the human move
// stays played and Reply can be retried.
func (s *Session) Play(ctx context.Context, move string) (Turn, error) {
	human, status, err := s.Move(move)
	if err != nil {
		return Turn{}, err
	}
	turn := Turn{Human: human, Status: status}
	if status.IsTerminal() {
		return turn, nil
	}
	reply, status, err := s.Reply(ctx)
	if err != nil {
		return turn, err
	}
	turn.Reply, turn.Status = reply, status
	return turn, nil
}

// Move applies one move given in long algebraic notation.
func (s *Session) Move(move string) (string, board.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.pos.Status(); st.IsTerminal() {
		return "", st, fmt.Errorf("%w: %s", ErrGameOver, st)
	}
	m, undo, err := ApplyNotation(s.pos, move)
	if err != nil {
		return "", board.Status{}, err
	}
	s.history = append(s.history, ply{m, undo})
	return m.String(), s.afterMove(), nil
}

// Reply asks the chooser for a move in the current position and plays it.
func (s *Session) Reply(ctx context.Context) (string, board.Status, error) {
	s.mu.Lock()
	if st := s.pos.Status(); st.IsTerminal() {
		s.mu.Unlock()
		return "", st, fmt.Errorf("%w: %s", ErrGameOver, st)
	}
	snapshot := s.pos.Copy()
	s.mu.Unlock()

	m, err := s.chooser.ChooseMove(ctx, snapshot)
	if err != nil {
		return "", board.Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pos.Equal(snapshot) {
		return "", board.Status{}, ErrPositionChanged
	}
	if m == board.NoMove {
		// Only possible at a terminal position, which was ruled out above.
		return "", s.pos.Status(), fmt.Errorf("%w: no reply", ErrGameOver)
	}
	undo := s.pos.MakeMove(m)
	s.history = append(s.history, ply{m, undo})
	return m.String(), s.afterMove(), nil
}

// afterMove reports game over once. Callers hold s.mu.
func (s *Session) afterMove() board.Status {
	st := s.pos.Status()
	if st.IsTerminal() && !s.over {
		s.over = true
		if s.OnGameOver != nil {
			s.OnGameOver(st, len(s.history))
		}
	}
	return st
}

// Undo takes back the last ply.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if n == 0 {
		return ErrNothingToUndo
	}
	last := s.history[n-1]
	s.pos.UnmakeMove(last.move, last.undo)
	s.history = s.history[:n-1]
	s.over = false
	return nil
}

// Position returns a copy of the current position.
func (s *Session) Position() *board.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Copy()
}

// Status classifies the current position.
func (s *Session) Status() board.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Status()
}

// Moves returns the moves played so far in long algebraic notation.
func (s *Session) Moves() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.history))
	for i, p := range s.history {
		out[i] = p.move.String()
	}
	return out
}

// SAN returns the moves played so far in Standard Algebraic Notation.
func (s *Session) SAN() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	moves := make([]board.Move, len(s.history))
	for i, p := range s.history {
		moves[i] = p.move
	}
	return board.MovesToSAN(s.start.Copy(), moves)
}
