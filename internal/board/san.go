package board

import "strings"

// SAN returns the Standard Algebraic Notation of m, which must be legal in
// p. It makes and unmakes m to decide the check suffix.
func (p *Position) SAN(m Move) string {
	if m == NoMove {
		return "--"
	}
	if m.IsCastling() {
		return withCheckSuffix(p, m, castleSAN(m.Kind()))
	}

	from, to := m.From(), m.To()
	pt := p.PieceAt(from).Type()

	var sb strings.Builder
	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(disambiguation(p, m, pt))
	}
	if m.IsCapture() {
		if pt == Pawn {
			sb.WriteByte(byte('a' + from.File()))
		}
		sb.WriteByte('x')
	}
	sb.WriteString(to.String())
	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion()])
	}
	return withCheckSuffix(p, m, sb.String())
}

func castleSAN(kind MoveKind) string {
	if kind == CastleKingside {
		return "O-O"
	}
	return "O-O-O"
}

func withCheckSuffix(pos *Position, m Move, s string) string {
	undo := pos.MakeMove(m)
	defer pos.UnmakeMove(m, undo)
	if !pos.InCheck() {
		return s
	}
	if !pos.HasLegalMoves() {
		return s + "#"
	}
	return s + "+"
}

// disambiguation returns the origin file, rank, or square needed when
// another piece of the same type can reach the same destination.
func disambiguation(pos *Position, m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	same := pos.Pieces[pos.SideToMove][pt]

	var others []Square
	for _, o := range pos.GenerateLegalMoves().Slice() {
		if o.To() == to && o.From() != from && same.Has(o.From()) {
			others = append(others, o.From())
		}
	}
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range others {
		sameFile = sameFile || sq.File() == from.File()
		sameRank = sameRank || sq.Rank() == from.Rank()
	}
	switch {
	case !sameFile:
		return from.String()[:1]
	case !sameRank:
		return from.String()[1:]
	}
	return from.String()
}

// MovesToSAN converts a line of moves played from pos. pos is restored
// before returning.
func MovesToSAN(pos *Position, moves []Move) []string {
	out := make([]string, len(moves))
	undos := make([]UndoInfo, len(moves))
	for i, m := range moves {
		out[i] = pos.SAN(m)
		undos[i] = pos.MakeMove(m)
	}
	for i := len(moves) - 1; i >= 0; i-- {
		pos.UnmakeMove(moves[i], undos[i])
	}
	return out
}
