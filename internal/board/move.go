package board

// MoveKind tags what a move does beyond relocating a piece.
type MoveKind uint8

const (
	Normal MoveKind = iota
	Capture
	DoublePush
	EnPassant
	CastleKingside
	CastleQueenside
)

var moveKindNames = [...]string{"normal", "capture", "double-push", "en-passant", "castle-kingside", "castle-queenside"}

func (k MoveKind) String() string {
	if int(k) >= len(moveKindNames) {
		return "unknown"
	}
	return moveKindNames[k]
}

// Move packs a move into 32 bits:
//
//	bits 0-5   origin square
//	bits 6-11  destination square
//	bits 12-14 promotion piece type (NoPieceType when not promoting)
//	bits 15-17 kind
//
// A Move is only meaningful against the position it was generated from.
type Move uint32

// NoMove is the zero move; it never appears in a generated move list
// because origin and destination are equal.
const NoMove Move = 0

// NewMove builds a non-promoting move of the given kind.
func NewMove(from, to Square, kind MoveKind) Move {
	return Move(from) | Move(to)<<6 | Move(NoPieceType)<<12 | Move(kind)<<15
}

// NewPromotion builds a promotion, optionally capturing.
func NewPromotion(from, to Square, promo PieceType, capture bool) Move {
	kind := Normal
	if capture {
		kind = Capture
	}
	return Move(from) | Move(to)<<6 | Move(promo)<<12 | Move(kind)<<15
}

// From returns the origin square.
func (m Move) From() Square { return Square(m & 0x3F) }

// To returns the destination square.
func (m Move) To() Square { return Square((m >> 6) & 0x3F) }

// Promotion returns the promotion piece type, or NoPieceType.
func (m Move) Promotion() PieceType { return PieceType((m >> 12) & 7) }

// Kind returns the move kind tag.
func (m Move) Kind() MoveKind { return MoveKind((m >> 15) & 7) }

func (m Move) IsPromotion() bool { return m.Promotion() != NoPieceType }
func (m Move) IsEnPassant() bool { return m.Kind() == EnPassant }

// IsCastling reports either castling kind.
func (m Move) IsCastling() bool {
	k := m.Kind()
	return k == CastleKingside || k == CastleQueenside
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	k := m.Kind()
	return k == Capture || k == EnPassant
}

// String encodes the move in long algebraic notation ("e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	b := make([]byte, 0, 5)
	b = append(b, m.From().String()...)
	b = append(b, m.To().String()...)
	if m.IsPromotion() {
		b = append(b, m.Promotion().Letter())
	}
	return string(b)
}

// MoveList is a fixed-capacity move buffer that avoids allocation.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList returns an empty list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends m.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the i-th move.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Clear empties the list.
func (ml *MoveList) Clear() { ml.count = 0 }

// Slice returns the moves; the slice aliases the list.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Strings encodes every move in list order.
func (ml *MoveList) Strings() []string {
	out := make([]string, ml.count)
	for i := 0; i < ml.count; i++ {
		out[i] = ml.moves[i].String()
	}
	return out
}

// UndoInfo is everything MakeMove overwrote that cannot be recomputed
// from the move itself.
type UndoInfo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
}
