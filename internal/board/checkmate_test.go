package board

import "testing"

func TestCheckmate(t *testing.T) {
	// Back rank mate: Ra8 against Kh8 boxed in by its own pawns.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	t.Log(pos)

	if !pos.InCheck() {
		t.Error("expected black to be in check")
	}
	if n := pos.GenerateLegalMoves().Len(); n != 0 {
		t.Errorf("expected no legal moves, got %d", n)
	}
	if !pos.IsCheckmate() {
		t.Error("Expected checkmate but got false")
	}
	if pos.IsStalemate() {
		t.Error("checkmate reported as stalemate")
	}
	if got := pos.Status(); got.Kind != Checkmate || got.Loser != Black {
		t.Errorf("Status() = %v, want checkmate of black", got)
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can take the unprotected rook.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if pos.IsCheckmate() {
		t.Error("Expected NOT checkmate but got true")
	}
	if !pos.GenerateLegalMoves().Contains(NewMove(H8, G8, Capture)) {
		t.Error("expected Kxg8 to be legal")
	}
}

func TestWhiteCheckmated(t *testing.T) {
	// Fool's mate.
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if err != nil {
		t.Fatal(err)
	}
	if got := pos.Status(); got.Kind != Checkmate || got.Loser != White {
		t.Errorf("Status() = %v, want checkmate of white", got)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want StatusKind
	}{
		{"start", StartFEN, Ongoing},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"fifty moves", "7k/8/8/8/8/8/R7/K7 w - - 100 80", FiftyMoveDraw},
		{"fifty moves not yet", "7k/8/8/8/8/8/R7/K7 w - - 99 80", Ongoing},
		{"bare kings", "7k/8/8/8/8/8/8/K7 w - - 0 1", InsufficientMaterial},
		{"king and knight", "7k/8/8/8/8/8/8/KN6 w - - 0 1", InsufficientMaterial},
		{"king and rook", "7k/8/8/8/8/8/8/KR6 w - - 0 1", Ongoing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.Status().Kind; got != tc.want {
				t.Errorf("Status() = %v, want %v", got, tc.want)
			}
		})
	}
}
