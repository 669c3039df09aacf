// Package game is the surface the core offers to hosts: move notation in
// and out, position status, FEN import/export, and a Session that plays a
// human move followed by an automated reply.
package game

import (
	"context"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// ApplyNotation decodes s, checks it against the legal moves of pos and
// plays it. On error pos is untouched and the error wraps
// board.ErrInvalidNotation or board.ErrIllegalMove.
func ApplyNotation(pos *board.Position, s string) (board.Move, board.UndoInfo, error) {
	m, err := board.DecodeMove(pos, s)
	if err != nil {
		return board.NoMove, board.UndoInfo{}, err
	}
	return m, pos.MakeMove(m), nil
}

// LegalMovesNotation lists the legal moves of pos in generation order.
func LegalMovesNotation(pos *board.Position) []string {
	return pos.GenerateLegalMoves().Strings()
}

// BestMove searches depth plies with the material evaluator. ok is false
// when the side to move has no legal move; the caller tells mate from
// stalemate with PositionStatus. pos is restored before returning.
func BestMove(ctx context.Context, pos *board.Position, depth int) (move string, ok bool, err error) {
	m, err := engine.SearchPolicy{Depth: depth}.ChooseMove(ctx, pos)
	if err != nil || m == board.NoMove {
		return "", false, err
	}
	return m.String(), true, nil
}

// PositionStatus classifies pos for display.
func PositionStatus(pos *board.Position) board.Status {
	return pos.Status()
}

// LoadFEN parses a FEN record.
func LoadFEN(fen string) (*board.Position, error) {
	return board.ParseFEN(fen)
}

// FEN exports pos. LoadFEN(FEN(pos)) yields a position equal to pos.
func FEN(pos *board.Position) string {
	return pos.ToFEN()
}
