package engine

import "errors"

// Rejections returned by ApplyAction. A rejected action never changes state.
var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrIllegalBid  = errors.New("illegal bid")
	ErrIllegalCard = errors.New("illegal card")
	ErrWrongPhase  = errors.New("wrong phase")
)
