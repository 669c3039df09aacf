package board

import "fmt"

// Notation is a syntactically valid long-algebraic move, not yet resolved
// against any position.
type Notation struct {
	From, To  Square
	Promotion PieceType // NoPieceType when absent
}

// ParseNotation checks the shape of a move string such as "e2e4" or
// "e7e8q" and splits it into its parts.
func ParseNotation(s string) (Notation, error) {
	if len(s) != 4 && len(s) != 5 {
		return Notation{}, fmt.Errorf("%w: %q must be 4 or 5 characters", ErrInvalidNotation, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Notation{}, fmt.Errorf("%w: %q has a bad origin square", ErrInvalidNotation, s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Notation{}, fmt.Errorf("%w: %q has a bad destination square", ErrInvalidNotation, s)
	}
	n := Notation{From: from, To: to, Promotion: NoPieceType}
	if len(s) == 5 {
		pt, ok := PromotionFromLetter(s[4])
		if !ok {
			return Notation{}, fmt.Errorf("%w: %q has unknown promotion piece %q", ErrInvalidNotation, s, s[4])
		}
		n.Promotion = pt
	}
	return n, nil
}

// Resolve finds the legal move in pos matching n. The move kind (castle,
// en passant, double push, capture) comes from the generator.
func (n Notation) Resolve(pos *Position) (Move, error) {
	var ml MoveList
	pos.AppendLegalMoves(&ml)
	for _, m := range ml.Slice() {
		if m.From() == n.From && m.To() == n.To && m.Promotion() == n.Promotion {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, n, pos.ToFEN())
}

func (n Notation) String() string {
	s := n.From.String() + n.To.String()
	if n.Promotion != NoPieceType {
		s += string(n.Promotion.Letter())
	}
	return s
}

// DecodeMove parses s and resolves it against pos. It returns an error
// wrapping ErrInvalidNotation or ErrIllegalMove; pos is left unchanged.
func DecodeMove(pos *Position, s string) (Move, error) {
	n, err := ParseNotation(s)
	if err != nil {
		return NoMove, err
	}
	return n.Resolve(pos)
}

// EncodeMove is the inverse of DecodeMove.
func EncodeMove(m Move) string {
	return m.String()
}
