package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range roundTripFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("ToFEN() = %q, want %q", got, fen)
		}
	}
}

func TestFENDefaultsClocks(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - -")
	if err != nil {
		t.Fatal(err)
	}
	if pos.HalfMoveClock != 0 || pos.FullMoveNumber != 1 {
		t.Errorf("clocks = %d/%d, want 0/1", pos.HalfMoveClock, pos.FullMoveNumber)
	}
	if got, want := pos.KeyFEN(), "4k3/8/8/8/8/8/8/4K3 w - -"; got != want {
		t.Errorf("KeyFEN() = %q, want %q", got, want)
	}
}

func TestFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want error
	}{
		{"empty", "", ErrInvalidFEN},
		{"too few fields", "8/8/8/8/8/8/8/8 w", ErrInvalidFEN},
		{"seven ranks", "8/8/8/8/8/8/8 w - - 0 1", ErrInvalidFEN},
		{"rank overflow", "4k3/9/8/8/8/8/8/4K3 w - - 0 1", ErrInvalidFEN},
		{"short rank", "4k3/7/8/8/8/8/8/4K3 w - - 0 1", ErrInvalidFEN},
		{"bad piece", "4k3/8/8/8/8/8/8/4X3 w - - 0 1", ErrInvalidFEN},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1", ErrInvalidFEN},
		{"bad castling flag", "4k3/8/8/8/8/8/8/4K3 w X - 0 1", ErrInvalidFEN},
		{"repeated castling flag", "r3k2r/8/8/8/8/8/8/R3K2R w KK - 0 1", ErrInvalidFEN},
		{"castling without rook", "4k3/8/8/8/8/8/8/4K3 w K - 0 1", ErrInvalidFEN},
		{"bad en passant square", "4k3/8/8/8/8/8/8/4K3 w - z9 0 1", ErrInvalidFEN},
		{"en passant without pawn", "4k3/8/8/8/8/8/8/4K3 w - e6 0 1", ErrInvalidFEN},
		{"en passant wrong rank", "4k3/8/8/8/4P3/8/8/4K3 b - e4 0 1", ErrInvalidFEN},
		{"negative clock", "4k3/8/8/8/8/8/8/4K3 w - - -1 1", ErrInvalidFEN},
		{"zero move number", "4k3/8/8/8/8/8/8/4K3 w - - 0 0", ErrInvalidFEN},
		{"no black king", "8/8/8/8/8/8/8/4K3 w - - 0 1", ErrInvalidPosition},
		{"two white kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1", ErrInvalidPosition},
		{"pawn on back rank", "4k2P/8/8/8/8/8/8/4K3 w - - 0 1", ErrInvalidPosition},
		{"side not to move in check", "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", ErrInvalidPosition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err == nil {
				t.Fatalf("ParseFEN(%q) = %s, want error", tc.fen, pos.ToFEN())
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFENEnPassantAccepted(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/8/3Pp3/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 2")
	if err != nil {
		t.Fatal(err)
	}
	if pos.EnPassant != D3 {
		t.Fatalf("en passant = %v, want d3", pos.EnPassant)
	}
	if !pos.GenerateLegalMoves().Contains(NewMove(E4, D3, EnPassant)) {
		t.Error("e4d3 should be generated")
	}
}
