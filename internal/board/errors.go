package board

import "errors"

var (
	// ErrInvalidNotation means a move string is malformed. The position is
	// never touched when it is returned.
	ErrInvalidNotation = errors.New("invalid notation")
	// ErrIllegalMove means a well-formed move is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidFEN means a position string could not be parsed.
	ErrInvalidFEN = errors.New("invalid FEN")
	// ErrInvalidPosition means a parsed position breaks a structural rule.
	ErrInvalidPosition = errors.New("invalid position")
)
