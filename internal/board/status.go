package board

// StatusKind classifies the state of the game at a position.
type StatusKind uint8

const (
	Ongoing StatusKind = iota
	Checkmate
	Stalemate
	FiftyMoveDraw
	InsufficientMaterial
)

var statusNames = [...]string{"ongoing", "checkmate", "stalemate", "fifty-move draw", "insufficient material"}

func (k StatusKind) String() string {
	if int(k) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[k]
}

// Status is the game state seen by a host. Loser is set only for
// Checkmate and names the mated side.
type Status struct {
	Kind  StatusKind
	Loser Color
}

func (s Status) String() string {
	if s.Kind == Checkmate {
		return "checkmate (" + s.Loser.String() + " is mated)"
	}
	return s.Kind.String()
}

// IsTerminal reports whether the game is over.
func (s Status) IsTerminal() bool {
	return s.Kind != Ongoing
}

// IsCheckmate reports no legal moves while in check.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports no legal moves while not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsFiftyMoveDraw reports a half-move clock of at least 100.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// IsInsufficientMaterial reports K v K and K+minor v K.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.Pieces[White], &p.Pieces[Black]
	if w[Pawn]|b[Pawn]|w[Rook]|b[Rook]|w[Queen]|b[Queen] != 0 {
		return false
	}
	minors := (w[Knight] | w[Bishop] | b[Knight] | b[Bishop]).PopCount()
	return minors <= 1
}

// Status classifies the position. Mate and stalemate take precedence over
// the fifty-move rule.
func (p *Position) Status() Status {
	if !p.HasLegalMoves() {
		if p.InCheck() {
			return Status{Kind: Checkmate, Loser: p.SideToMove}
		}
		return Status{Kind: Stalemate, Loser: NoColor}
	}
	if p.IsFiftyMoveDraw() {
		return Status{Kind: FiftyMoveDraw, Loser: NoColor}
	}
	if p.IsInsufficientMaterial() {
		return Status{Kind: InsufficientMaterial, Loser: NoColor}
	}
	return Status{Kind: Ongoing, Loser: NoColor}
}
