package pgn

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

const twoGames = `[Event "Scholar"]
[Site "?"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0

[Event "Fool"]
[White "C"]
[Black "D"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1
`

const fromFEN = `[Event "Ending"]
[SetUp "1"]
[FEN "6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1"]
[Result "1-0"]

1. Re8# 1-0
`

func TestLoadGames(t *testing.T) {
	recs, err := LoadGames(strings.NewReader(twoGames))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d games, want 2", len(recs))
	}

	first := recs[0]
	wantMoves := []string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7"}
	if strings.Join(first.Moves, " ") != strings.Join(wantMoves, " ") {
		t.Errorf("moves = %v, want %v", first.Moves, wantMoves)
	}
	if !strings.HasPrefix(first.StartFEN, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -") {
		t.Errorf("start FEN = %q", first.StartFEN)
	}
	if first.Tags["White"] != "A" || first.Outcome != "1-0" {
		t.Errorf("tags %v, outcome %q", first.Tags, first.Outcome)
	}
	if recs[1].Index != 1 || recs[1].Name() != "game 2 (C - D)" {
		t.Errorf("second game named %q", recs[1].Name())
	}
}

func TestLoadGamesEmpty(t *testing.T) {
	if _, err := LoadGames(strings.NewReader("")); !errors.Is(err, ErrNoGames) {
		t.Errorf("err = %v, want ErrNoGames", err)
	}
}

func TestReplay(t *testing.T) {
	recs, err := LoadGames(strings.NewReader(twoGames))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		loser board.Color
		san   string
	}{
		{board.Black, "e4 e5 Bc4 Nc6 Qh5 Nf6 Qxf7#"},
		{board.White, "f3 e5 g4 Qh4#"},
	}
	for i, tt := range tests {
		t.Run(recs[i].Name(), func(t *testing.T) {
			res, err := Replay(recs[i])
			if err != nil {
				t.Fatal(err)
			}
			want := board.Status{Kind: board.Checkmate, Loser: tt.loser}
			if res.Status != want {
				t.Errorf("status = %v, want %v", res.Status, want)
			}
			if got := strings.Join(res.SAN, " "); got != tt.san {
				t.Errorf("SAN = %q, want %q", got, tt.san)
			}
			if !res.ConsistentOutcome(recs[i].Outcome) {
				t.Errorf("final status %v disagrees with %s", res.Status, recs[i].Outcome)
			}
		})
	}
}

func TestReplayFromSetUpPosition(t *testing.T) {
	recs, err := LoadGames(strings.NewReader(fromFEN))
	if err != nil {
		t.Fatal(err)
	}
	rec := recs[0]
	if !strings.HasPrefix(rec.StartFEN, "6k1/5ppp/8/8/8/8/8/4R1K1 w") {
		t.Fatalf("start FEN = %q", rec.StartFEN)
	}
	res, err := Replay(rec)
	if err != nil {
		t.Fatal(err)
	}
	if res.Plies != 1 || res.Status.Kind != board.Checkmate {
		t.Errorf("got %d plies, status %v", res.Plies, res.Status)
	}
}

func TestReplayRejectsIllegalMove(t *testing.T) {
	rec := Record{StartFEN: board.StartFEN, Moves: []string{"e2e4", "e7e5", "e1e3"}}
	res, err := Replay(rec)
	if !errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	if res.Plies != 2 || !strings.Contains(err.Error(), "ply 3") {
		t.Errorf("stopped after %d plies: %v", res.Plies, err)
	}
}

func TestConsistentOutcome(t *testing.T) {
	mate := Replayed{Status: board.Status{Kind: board.Checkmate, Loser: board.Black}}
	if !mate.ConsistentOutcome("1-0") || mate.ConsistentOutcome("0-1") {
		t.Error("white mate should match 1-0 only")
	}
	ongoing := Replayed{Status: board.Status{Kind: board.Ongoing, Loser: board.NoColor}}
	if !ongoing.ConsistentOutcome("0-1") {
		t.Error("resignations are consistent with an ongoing position")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := os.WriteFile(path, []byte(twoGames), 0o644); err != nil {
		t.Fatal(err)
	}
	recs, err := LoadFile(path)
	if err != nil || len(recs) != 2 {
		t.Fatalf("got %d games, %v", len(recs), err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.pgn")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
