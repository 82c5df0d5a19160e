package room

import (
	"context"

	"github.com/pkg/errors"

	"github.com/christophecraig/coinchette/internal/engine"
)

// Rejections returned by room commands. None of them change room state.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room full")
	ErrSeatOccupied      = errors.New("seat occupied")
	ErrInvalidSeat       = errors.New("invalid seat")
	ErrAlreadyInProgress = errors.New("game already in progress")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrNotSeated         = errors.New("player not seated")
	ErrChatRejected      = errors.New("chat rejected")
)

// Code maps err to the stable identifier sent to clients.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrSeatOccupied):
		return "seat_occupied"
	case errors.Is(err, ErrInvalidSeat):
		return "invalid_seat"
	case errors.Is(err, ErrAlreadyInProgress):
		return "already_in_progress"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrNotSeated):
		return "not_seated"
	case errors.Is(err, ErrChatRejected):
		return "chat_rejected"
	case errors.Is(err, engine.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, engine.ErrIllegalBid):
		return "illegal_bid"
	case errors.Is(err, engine.ErrIllegalCard):
		return "illegal_card"
	case errors.Is(err, engine.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
