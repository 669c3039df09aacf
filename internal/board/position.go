package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a set of the four independent castling permissions.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling                         = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Has reports whether every right in r is present.
func (cr CastlingRights) Has(r CastlingRights) bool {
	return cr&r == r
}

// castlingMask[sq] holds the rights lost when a move starts or ends on sq.
var castlingMask [64]CastlingRights

func init() {
	castlingMask[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castlingMask[H1] = WhiteKingSideCastle
	castlingMask[A1] = WhiteQueenSideCastle
	castlingMask[E8] = BlackKingSideCastle | BlackQueenSideCastle
	castlingMask[H8] = BlackKingSideCastle
	castlingMask[A8] = BlackQueenSideCastle
}

// Position is a complete chess position. It is mutated in place through
// MakeMove/UnmakeMove pairs and keeps no move history of its own.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard
	squares     [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // target square behind a just-double-pushed pawn, NoSquare otherwise
	HalfMoveClock  int
	FullMoveNumber int

	// Zobrist hash of placement, side, castling and en passant.
	Hash uint64

	KingSquare [2]Square
}

// PositionKey identifies a position for transposition and repetition
// purposes. Move counters are deliberately absent.
type PositionKey struct {
	Pieces         [2][6]Bitboard
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// newEmptyPosition returns a position with no pieces and White to move.
func newEmptyPosition() *Position {
	p := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
	}
	for i := range p.squares {
		p.squares[i] = NoPiece
	}
	return p
}

// Copy returns an independent clone. Search code uses make/unmake instead.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// Equal reports whether two positions are identical, clocks included.
func (p *Position) Equal(o *Position) bool {
	return *p == *o
}

// Key returns the counter-free identity of the position.
func (p *Position) Key() PositionKey {
	return PositionKey{
		Pieces:         p.Pieces,
		SideToMove:     p.SideToMove,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
	}
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	return p.squares[sq]
}

// IsEmpty reports whether sq is unoccupied.
func (p *Position) IsEmpty(sq Square) bool {
	return p.squares[sq] == NoPiece
}

func (p *Position) setPiece(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.squares[sq] = pc
	p.Hash ^= zobristPiece[c][pt][sq]
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	pc := p.squares[sq]
	if pc == NoPiece {
		return NoPiece
	}
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.squares[sq] = NoPiece
	p.Hash ^= zobristPiece[c][pt][sq]
	return pc
}

func (p *Position) movePiece(from, to Square) {
	pc := p.squares[from]
	c, pt := pc.Color(), pc.Type()
	mask := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= mask
	p.Occupied[c] ^= mask
	p.AllOccupied ^= mask
	p.squares[from] = NoPiece
	p.squares[to] = pc
	p.Hash ^= zobristPiece[c][pt][from] ^ zobristPiece[c][pt][to]
	if pt == King {
		p.KingSquare[c] = to
	}
}

// castleRookSquares returns the rook's origin and destination for a castle
// by the king standing on kingFrom.
func castleRookSquares(kind MoveKind, kingFrom Square) (Square, Square) {
	rank := kingFrom.Rank()
	if kind == CastleKingside {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// MakeMove plays m, which must be legal in p (taken from the generator or
// validated against it), and returns what UnmakeMove needs to revert it.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	}

	us := p.SideToMove
	from, to := m.From(), m.To()
	kind := m.Kind()
	moved := p.squares[from].Type()

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	switch kind {
	case Capture:
		undo.Captured = p.removePiece(to)
	case EnPassant:
		undo.Captured = p.removePiece(Square(int(to) - pawnStep(us)))
	}

	p.movePiece(from, to)

	if promo := m.Promotion(); promo != NoPieceType {
		p.removePiece(to)
		p.setPiece(NewPiece(promo, us), to)
	}

	switch kind {
	case CastleKingside, CastleQueenside:
		rookFrom, rookTo := castleRookSquares(kind, from)
		p.movePiece(rookFrom, rookTo)
	case DoublePush:
		p.EnPassant = Square((int(from) + int(to)) / 2)
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	p.CastlingRights &^= castlingMask[from] | castlingMask[to]
	p.Hash ^= zobristCastling[p.CastlingRights]

	if moved == Pawn || undo.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.Hash ^= zobristSideToMove

	return undo
}

// UnmakeMove reverts m. It must receive the UndoInfo returned by the
// MakeMove call that played m, with no other unmatched MakeMove in between.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	from, to := m.From(), m.To()
	kind := m.Kind()

	if m.IsPromotion() {
		p.removePiece(to)
		p.setPiece(NewPiece(Pawn, us), to)
	}
	p.movePiece(to, from)

	switch kind {
	case Capture:
		p.setPiece(undo.Captured, to)
	case EnPassant:
		p.setPiece(undo.Captured, Square(int(to)-pawnStep(us)))
	case CastleKingside, CastleQueenside:
		rookFrom, rookTo := castleRookSquares(kind, from)
		p.movePiece(rookTo, rookFrom)
	}

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
}

// Validate checks structural legality: one king each, no pawns on the
// back ranks, and the side not to move not in check.
func (p *Position) Validate() error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawn on first or last rank", ErrInvalidPosition)
	}
	if p.IsInCheck(p.SideToMove.Other()) {
		return fmt.Errorf("%w: %s to move but %s is in check", ErrInvalidPosition, p.SideToMove, p.SideToMove.Other())
	}
	return nil
}

// HasNonPawnMaterial reports whether the side to move owns a piece other
// than pawns and the king.
func (p *Position) HasNonPawnMaterial() bool {
	us := &p.Pieces[p.SideToMove]
	return us[Knight]|us[Bishop]|us[Rook]|us[Queen] != 0
}

// String draws the board with the state fields below it.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
