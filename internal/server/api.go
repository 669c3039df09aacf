package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Kind     string `json:"kind"`
	Loser    string `json:"loser,omitempty"`
	Terminal bool   `json:"terminal"`
}

func newStatusResponse(st board.Status) statusResponse {
	r := statusResponse{Kind: st.Kind.String(), Terminal: st.IsTerminal()}
	if st.Kind == board.Checkmate {
		r.Loser = st.Loser.String()
	}
	return r
}

type movesResponse struct {
	FEN    string         `json:"fen"`
	Moves  []string       `json:"moves"`
	Status statusResponse `json:"status"`
}

type moveRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

type moveResponse struct {
	FEN    string         `json:"fen"`
	Move   string         `json:"move"`
	SAN    string         `json:"san"`
	Status statusResponse `json:"status"`
}

type bestMoveRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type bestMoveResponse struct {
	Move   string         `json:"move,omitempty"`
	Found  bool           `json:"found"`
	Status statusResponse `json:"status"`
}

// loadFEN treats an empty FEN as the standard starting position.
func loadFEN(fen string) (*board.Position, error) {
	if fen == "" {
		return board.NewPosition(), nil
	}
	return game.LoadFEN(fen)
}

// errorStatus maps core errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, board.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrInvalidFEN), errors.Is(err, board.ErrInvalidPosition),
		errors.Is(err, board.ErrInvalidNotation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSearchCancelled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	pos, err := loadFEN(r.URL.Query().Get("fen"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	moves := game.LegalMovesNotation(pos)
	if moves == nil {
		moves = []string{}
	}
	writeJSON(w, http.StatusOK, movesResponse{
		FEN:    game.FEN(pos),
		Moves:  moves,
		Status: newStatusResponse(game.PositionStatus(pos)),
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body: "+err.Error())
		return
	}
	pos, err := loadFEN(req.FEN)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	before := pos.Copy()
	m, _, err := game.ApplyNotation(pos, req.Move)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	san := before.SAN(m)
	writeJSON(w, http.StatusOK, moveResponse{
		FEN:    game.FEN(pos),
		Move:   m.String(),
		SAN:    san,
		Status: newStatusResponse(game.PositionStatus(pos)),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pos, err := loadFEN(r.URL.Query().Get("fen"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(game.PositionStatus(pos)))
}

func (s *Server) handleBestMove(w http.ResponseWriter, r *http.Request) {
	var req bestMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body: "+err.Error())
		return
	}
	pos, err := loadFEN(req.FEN)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	depth := min(max(req.Depth, 1), s.opts.MaxDepth)
	move, found, err := game.BestMove(r.Context(), pos, depth)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bestMoveResponse{
		Move:   move,
		Found:  found,
		Status: newStatusResponse(game.PositionStatus(pos)),
	})
}
