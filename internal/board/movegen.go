package board

// pieceGenerator appends the pseudo-legal moves of the piece on from.
type pieceGenerator func(p *Position, from Square, ml *MoveList)

// generators is indexed by PieceType. Castling is generated separately.
var generators = [6]pieceGenerator{
	Pawn:   genPawn,
	Knight: genKnight,
	Bishop: genBishop,
	Rook:   genRook,
	Queen:  genQueen,
	King:   genKing,
}

// GenerateLegalMoves returns every legal move for the side to move, in a
// deterministic order.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.AppendLegalMoves(ml)
	return ml
}

// GeneratePseudoLegalMoves returns moves that obey piece movement but may
// leave the mover's king in check.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.appendPseudoLegal(ml)
	return ml
}

// AppendLegalMoves clears ml and fills it with the legal moves. It makes
// and unmakes each candidate, so p is changed only transiently.
func (p *Position) AppendLegalMoves(ml *MoveList) {
	ml.Clear()
	p.appendPseudoLegal(ml)

	us := p.SideToMove
	n := 0
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		if p.isLegal(m, us) {
			ml.moves[n] = m
			n++
		}
	}
	ml.count = n
}

// isLegal plays m and reports whether us's king is safe afterwards.
func (p *Position) isLegal(m Move, us Color) bool {
	undo := p.MakeMove(m)
	ok := !p.IsSquareAttacked(p.KingSquare[us], us.Other())
	p.UnmakeMove(m, undo)
	return ok
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.appendPseudoLegal(&ml)
	us := p.SideToMove
	for i := 0; i < ml.count; i++ {
		if p.isLegal(ml.moves[i], us) {
			return true
		}
	}
	return false
}

func (p *Position) appendPseudoLegal(ml *MoveList) {
	us := p.SideToMove
	for pt := Pawn; pt <= King; pt++ {
		gen := generators[pt]
		for bb := p.Pieces[us][pt]; bb != 0; {
			gen(p, bb.PopLSB(), ml)
		}
	}
	p.genCastling(ml)
}

// addTargets appends a move to every square in targets, tagging captures.
func (p *Position) addTargets(from Square, targets Bitboard, ml *MoveList) {
	enemies := p.Occupied[p.SideToMove.Other()]
	for targets != 0 {
		to := targets.PopLSB()
		if enemies.Has(to) {
			ml.Add(NewMove(from, to, Capture))
		} else {
			ml.Add(NewMove(from, to, Normal))
		}
	}
}

func genKnight(p *Position, from Square, ml *MoveList) {
	p.addTargets(from, KnightAttacks(from)&^p.Occupied[p.SideToMove], ml)
}

func genBishop(p *Position, from Square, ml *MoveList) {
	p.addTargets(from, BishopAttacks(from, p.AllOccupied)&^p.Occupied[p.SideToMove], ml)
}

func genRook(p *Position, from Square, ml *MoveList) {
	p.addTargets(from, RookAttacks(from, p.AllOccupied)&^p.Occupied[p.SideToMove], ml)
}

func genQueen(p *Position, from Square, ml *MoveList) {
	p.addTargets(from, QueenAttacks(from, p.AllOccupied)&^p.Occupied[p.SideToMove], ml)
}

func genKing(p *Position, from Square, ml *MoveList) {
	p.addTargets(from, KingAttacks(from)&^p.Occupied[p.SideToMove], ml)
}

func genPawn(p *Position, from Square, ml *MoveList) {
	us := p.SideToMove
	step := pawnStep(us)
	lastRank := from.RelativeRank(us) == 6

	one := Square(int(from) + step)
	if p.IsEmpty(one) {
		if lastRank {
			addPromotions(from, one, false, ml)
		} else {
			ml.Add(NewMove(from, one, Normal))
			if from.RelativeRank(us) == 1 {
				two := Square(int(one) + step)
				if p.IsEmpty(two) {
					ml.Add(NewMove(from, two, DoublePush))
				}
			}
		}
	}

	attacks := PawnAttacks(us, from)
	for caps := attacks & p.Occupied[us.Other()]; caps != 0; {
		to := caps.PopLSB()
		if lastRank {
			addPromotions(from, to, true, ml)
		} else {
			ml.Add(NewMove(from, to, Capture))
		}
	}

	if p.EnPassant != NoSquare && attacks.Has(p.EnPassant) {
		ml.Add(NewMove(from, p.EnPassant, EnPassant))
	}
}

// addPromotions appends one move per promotion choice: queen, rook,
// bishop, knight.
func addPromotions(from, to Square, capture bool, ml *MoveList) {
	for _, pt := range promotionTypes {
		ml.Add(NewPromotion(from, to, pt, capture))
	}
}

// castleSpec describes one castling option.
type castleSpec struct {
	right   CastlingRights
	kind    MoveKind
	king    Square
	rook    Square
	dest    Square
	empty   Bitboard  // squares between king and rook
	transit [2]Square // squares the king crosses or lands on
}

var castleSpecs = [2][2]castleSpec{
	White: {
		{WhiteKingSideCastle, CastleKingside, E1, H1, G1, SquareBB(F1) | SquareBB(G1), [2]Square{F1, G1}},
		{WhiteQueenSideCastle, CastleQueenside, E1, A1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [2]Square{D1, C1}},
	},
	Black: {
		{BlackKingSideCastle, CastleKingside, E8, H8, G8, SquareBB(F8) | SquareBB(G8), [2]Square{F8, G8}},
		{BlackQueenSideCastle, CastleQueenside, E8, A8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [2]Square{D8, C8}},
	},
}

func (p *Position) genCastling(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	if p.CastlingRights&castleSpecs[us][0].right == 0 && p.CastlingRights&castleSpecs[us][1].right == 0 {
		return
	}
	if p.IsSquareAttacked(p.KingSquare[us], them) {
		return
	}
	rook := NewPiece(Rook, us)
	for _, cs := range castleSpecs[us] {
		if !p.CastlingRights.Has(cs.right) || p.KingSquare[us] != cs.king || p.PieceAt(cs.rook) != rook {
			continue
		}
		if p.AllOccupied&cs.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(cs.transit[0], them) || p.IsSquareAttacked(cs.transit[1], them) {
			continue
		}
		ml.Add(NewMove(cs.king, cs.dest, cs.kind))
	}
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var ml MoveList
	p.AppendLegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by notation.
func (p *Position) Divide(depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth < 1 {
		return out
	}
	var ml MoveList
	p.AppendLegalMoves(&ml)
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		out[m.String()] = p.Perft(depth - 1)
		p.UnmakeMove(m, undo)
	}
	return out
}
