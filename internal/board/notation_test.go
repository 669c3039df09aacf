package board

import (
	"errors"
	"testing"
)

func TestDecodeMoveSetsEnPassant(t *testing.T) {
	pos := NewPosition()
	m, err := DecodeMove(pos, "e2e4")
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if got := pos.ToFEN(); got != want {
		t.Errorf("after e2e4: %q, want %q", got, want)
	}
	if _, err := DecodeMove(pos, "e7e5"); err != nil {
		t.Errorf("e7e5 should be legal: %v", err)
	}
}

func TestDecodeMoveErrors(t *testing.T) {
	tests := []struct {
		move string
		want error
	}{
		{"", ErrInvalidNotation},
		{"e2", ErrInvalidNotation},
		{"e2e4qq", ErrInvalidNotation},
		{"i2e4", ErrInvalidNotation},
		{"e2e9", ErrInvalidNotation},
		{"e7e8k", ErrInvalidNotation},
		{"e7e8p", ErrInvalidNotation},
		{"E2E4", ErrInvalidNotation},
		{"e2e5", ErrIllegalMove},
		{"e7e5", ErrIllegalMove},
		{"e1g1", ErrIllegalMove},
		{"e2e4q", ErrIllegalMove},
		{"a1a1", ErrIllegalMove},
	}
	for _, tc := range tests {
		t.Run(tc.move, func(t *testing.T) {
			pos := NewPosition()
			before := pos.Copy()
			_, err := DecodeMove(pos, tc.move)
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeMove(%q) error = %v, want %v", tc.move, err, tc.want)
			}
			if !pos.Equal(before) {
				t.Error("position changed by a rejected move")
			}
		})
	}
}

func TestDecodeMovePromotionRequiresPiece(t *testing.T) {
	pos, err := ParseFEN("7k/3P4/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeMove(pos, "d7d8"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("d7d8 without a piece: error = %v, want illegal move", err)
	}
	m, err := DecodeMove(pos, "d7d8n")
	if err != nil {
		t.Fatal(err)
	}
	if m.Promotion() != Knight {
		t.Errorf("promotion = %v, want knight", m.Promotion())
	}
}

func TestEncodeDecodeAllLegalMoves(t *testing.T) {
	for _, fen := range roundTripFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range pos.GenerateLegalMoves().Slice() {
			s := EncodeMove(m)
			got, err := DecodeMove(pos, s)
			if err != nil {
				t.Errorf("%s: DecodeMove(%s): %v", fen, s, err)
				continue
			}
			if got != m {
				t.Errorf("%s: %s decoded to a different move", fen, s)
			}
		}
	}
}

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		want string
	}{
		{StartFEN, "g1f3", "Nf3"},
		{StartFEN, "e2e4", "e4"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"3k4/8/8/8/8/8/8/R4RK1 w - - 0 1", "a1d1", "Rad1+"},
		{"6k1/5ppp/8/8/8/8/8/K3R3 w - - 0 1", "e1e8", "Re8#"},
		{"7k/3P4/8/8/8/8/8/K7 w - - 0 1", "d7d8q", "d8=Q+"},
		{"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "e4d5", "exd5"},
		{"4k3/8/8/8/8/8/8/N1N1K3 w - - 0 1", "a1b3", "Nab3"},
		{"4k3/8/8/8/8/N7/8/N3K3 w - - 0 1", "a1c2", "N1c2"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			m, err := DecodeMove(pos, tc.move)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.SAN(m); got != tc.want {
				t.Errorf("SAN(%s) = %s, want %s", tc.move, got, tc.want)
			}
		})
	}
}
