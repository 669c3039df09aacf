// Package pgn loads recorded games and replays them through the core so
// that every move of a record is checked against our own move generator.
package pgn

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/corentings/chess/v2"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/game"
)

// ErrNoGames is returned when a source holds no game at all.
var ErrNoGames = errors.New("pgn: no games found")

// Record is one game read from a PGN source, reduced to what the core
// needs: the starting position and the main line in long algebraic
// notation.
type Record struct {
	Index    int               // position in the source, from 0
	Tags     map[string]string // Event, White, Black, Result and so on
	StartFEN string
	Moves    []string
	Outcome  string // "1-0", "0-1", "1/2-1/2" or "*"
}

// Name labels the record in logs.
func (r Record) Name() string {
	w, b := r.Tags["White"], r.Tags["Black"]
	if w == "" && b == "" {
		return fmt.Sprintf("game %d", r.Index+1)
	}
	return fmt.Sprintf("game %d (%s - %s)", r.Index+1, w, b)
}

var knownTags = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result", "FEN"}

// LoadGames reads every game from r. A game that fails to parse aborts the
// load with an error naming its index.
func LoadGames(r io.Reader) ([]Record, error) {
	scanner := chess.NewScanner(r)
	var out []Record
	for scanner.HasNext() {
		scanned, err := scanner.ScanGame()
		if err != nil {
			return out, fmt.Errorf("pgn: reading game %d: %w", len(out)+1, err)
		}
		tokens, err := chess.TokenizeGame(scanned)
		if err != nil {
			return out, fmt.Errorf("pgn: tokenizing game %d: %w", len(out)+1, err)
		}
		g, err := chess.NewParser(tokens).Parse()
		if err != nil {
			return out, fmt.Errorf("pgn: parsing game %d: %w", len(out)+1, err)
		}
		out = append(out, toRecord(len(out), g))
	}
	if len(out) == 0 {
		return nil, ErrNoGames
	}
	return out, nil
}

// LoadFile opens path and reads every game in it.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadGames(f)
}

func toRecord(index int, g *chess.Game) Record {
	rec := Record{
		Index:    index,
		Tags:     make(map[string]string),
		StartFEN: board.StartFEN,
		Outcome:  g.Outcome().String(),
	}
	for _, k := range knownTags {
		if v := g.GetTagPair(k); v != "" {
			rec.Tags[k] = v
		}
	}
	if positions := g.Positions(); len(positions) > 0 {
		rec.StartFEN = positions[0].String()
	}
	for _, m := range g.Moves() {
		rec.Moves = append(rec.Moves, chess.UCINotation{}.Encode(nil, m))
	}
	return rec
}

// Replayed is the outcome of replaying a Record.
type Replayed struct {
	Final  *board.Position
	Status board.Status
	SAN    []string
	Plies  int
}

// Replay plays rec from its starting position through game.ApplyNotation.
// It stops at the first move the core rejects; the error names the ply and
// wraps board.ErrIllegalMove or board.ErrInvalidNotation.
func Replay(rec Record) (Replayed, error) {
	pos, err := game.LoadFEN(rec.StartFEN)
	if err != nil {
		return Replayed{}, fmt.Errorf("%s: start position: %w", rec.Name(), err)
	}
	start := pos.Copy()
	played := make([]board.Move, 0, len(rec.Moves))
	for i, s := range rec.Moves {
		m, _, err := game.ApplyNotation(pos, s)
		if err != nil {
			return Replayed{Final: pos, Status: pos.Status(), Plies: i},
				fmt.Errorf("%s: ply %d: %w", rec.Name(), i+1, err)
		}
		played = append(played, m)
	}
	return Replayed{
		Final:  pos,
		Status: pos.Status(),
		SAN:    board.MovesToSAN(start, played),
		Plies:  len(played),
	}, nil
}

// ConsistentOutcome reports whether a decisive or drawn final status
// agrees with the recorded result. Ongoing positions are always consistent,
// since games often end by resignation or agreement.
func (r Replayed) ConsistentOutcome(outcome string) bool {
	switch r.Status.Kind {
	case board.Checkmate:
		if r.Status.Loser == board.White {
			return outcome == "0-1"
		}
		return outcome == "1-0"
	case board.Stalemate, board.InsufficientMaterial:
		return outcome == "1/2-1/2"
	}
	return true
}
