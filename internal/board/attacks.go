package board

// Ray directions. The first four step toward higher square indices.
const (
	dirNorth = iota
	dirEast
	dirNorthEast
	dirNorthWest
	dirSouth
	dirWest
	dirSouthWest
	dirSouthEast
	numDirs
)

var dirDelta = [numDirs][2]int{
	dirNorth:     {0, 1},
	dirEast:      {1, 0},
	dirNorthEast: {1, 1},
	dirNorthWest: {-1, 1},
	dirSouth:     {0, -1},
	dirWest:      {-1, 0},
	dirSouthWest: {-1, -1},
	dirSouthEast: {1, -1},
}

// Precomputed attack tables.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard
	rays          [numDirs][64]Bitboard
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		f, r := sq.File(), sq.Rank()

		for _, d := range [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			if onBoard(f+d[0], r+d[1]) {
				knightAttacks[sq] |= SquareBB(NewSquare(f+d[0], r+d[1]))
			}
		}

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()

		for dir := 0; dir < numDirs; dir++ {
			df, dr := dirDelta[dir][0], dirDelta[dir][1]
			for x, y := f+df, r+dr; onBoard(x, y); x, y = x+df, y+dr {
				rays[dir][sq] |= SquareBB(NewSquare(x, y))
			}
		}
	}
}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// rayAttacks returns the squares reached along dir from sq, stopping at and
// including the first occupied square.
func rayAttacks(dir int, sq Square, occupied Bitboard) Bitboard {
	attacks := rays[dir][sq]
	blockers := attacks & occupied
	if blockers == 0 {
		return attacks
	}
	var first Square
	if dir < dirSouth {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return attacks ^ rays[dir][first]
}

// KnightAttacks returns the knight targets from sq.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the king targets from sq.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a c-colored pawn on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard { return pawnAttacks[c][sq] }

// BishopAttacks returns diagonal slider targets from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(dirNorthEast, sq, occupied) | rayAttacks(dirNorthWest, sq, occupied) |
		rayAttacks(dirSouthEast, sq, occupied) | rayAttacks(dirSouthWest, sq, occupied)
}

// RookAttacks returns orthogonal slider targets from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(dirNorth, sq, occupied) | rayAttacks(dirEast, sq, occupied) |
		rayAttacks(dirSouth, sq, occupied) | rayAttacks(dirWest, sq, occupied)
}

// QueenAttacks is the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersByColor returns c's pieces attacking sq under the given occupancy.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	pcs := &p.Pieces[c]
	diag := pcs[Bishop] | pcs[Queen]
	orth := pcs[Rook] | pcs[Queen]
	return pawnAttacks[c.Other()][sq]&pcs[Pawn] |
		knightAttacks[sq]&pcs[Knight] |
		kingAttacks[sq]&pcs[King] |
		BishopAttacks(sq, occupied)&diag |
		RookAttacks(sq, occupied)&orth
}

// IsSquareAttacked reports whether any byColor piece attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// IsInCheck reports whether c's king is attacked by the other side.
func (p *Position) IsInCheck(c Color) bool {
	ksq := p.Pieces[c][King].LSB()
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsInCheck(p.SideToMove)
}
