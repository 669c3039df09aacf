package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string. The clock fields are optional and default
// to "0 1". The result is checked with Validate, and castling rights and
// the en-passant target must agree with the placement.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fmt.Errorf("%w: need 4 to 6 fields, got %d", ErrInvalidFEN, len(parts))
	}

	pos := newEmptyPosition()

	if err := parsePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, parts[1])
	}

	if err := parseCastling(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: bad en passant square %q", ErrInvalidFEN, parts[3])
		}
		pos.EnPassant = sq
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad half-move clock %q", ErrInvalidFEN, parts[4])
		}
		pos.HalfMoveClock = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: bad full-move number %q", ErrInvalidFEN, parts[5])
		}
		pos.FullMoveNumber = n
	}

	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if err := checkCastling(pos); err != nil {
		return nil, err
	}
	if err := checkEnPassant(pos); err != nil {
		return nil, err
	}

	pos.Hash = pos.ComputeHash()
	return pos, nil
}

func parsePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				if file > 8 {
					return fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
				}
				continue
			}
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, c)
			}
			if file > 7 {
				return fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
			}
			pos.setPiece(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

func parseCastling(pos *Position, field string) error {
	if field == "-" {
		return nil
	}
	for i := 0; i < len(field); i++ {
		idx := strings.IndexByte("KQkq", field[i])
		if idx < 0 {
			return fmt.Errorf("%w: bad castling flag %q", ErrInvalidFEN, field[i])
		}
		right := CastlingRights(1 << idx)
		if pos.CastlingRights.Has(right) {
			return fmt.Errorf("%w: repeated castling flag %q", ErrInvalidFEN, field[i])
		}
		pos.CastlingRights |= right
	}
	return nil
}

// checkCastling requires the king and rook of every claimed right to stand
// on their home squares.
func checkCastling(pos *Position) error {
	homes := []struct {
		right      CastlingRights
		king, rook Piece
		ksq, rsq   Square
	}{
		{WhiteKingSideCastle, WhiteKing, WhiteRook, E1, H1},
		{WhiteQueenSideCastle, WhiteKing, WhiteRook, E1, A1},
		{BlackKingSideCastle, BlackKing, BlackRook, E8, H8},
		{BlackQueenSideCastle, BlackKing, BlackRook, E8, A8},
	}
	for _, h := range homes {
		if !pos.CastlingRights.Has(h.right) {
			continue
		}
		if pos.PieceAt(h.ksq) != h.king || pos.PieceAt(h.rsq) != h.rook {
			return fmt.Errorf("%w: castling right %s without king and rook at home", ErrInvalidFEN, h.right)
		}
	}
	return nil
}

// checkEnPassant requires the target to sit behind a pawn that could just
// have double-pushed.
func checkEnPassant(pos *Position) error {
	ep := pos.EnPassant
	if ep == NoSquare {
		return nil
	}
	mover := pos.SideToMove.Other()
	if ep.RelativeRank(mover) != 2 {
		return fmt.Errorf("%w: en passant square %s on wrong rank", ErrInvalidFEN, ep)
	}
	pawnSq := Square(int(ep) + pawnStep(mover))
	origin := Square(int(ep) - pawnStep(mover))
	if !pos.IsEmpty(ep) || !pos.IsEmpty(origin) || pos.PieceAt(pawnSq) != NewPiece(Pawn, mover) {
		return fmt.Errorf("%w: en passant square %s without a double-pushed pawn", ErrInvalidFEN, ep)
	}
	return nil
}

// ToFEN returns the full six-field FEN of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := " w "
	if p.SideToMove == Black {
		side = " b "
	}
	sb.WriteString(side)
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))
	return sb.String()
}

// KeyFEN returns the first four FEN fields, which identify the position
// for caching regardless of move counters.
func (p *Position) KeyFEN() string {
	fields := strings.Fields(p.ToFEN())
	return strings.Join(fields[:4], " ")
}
