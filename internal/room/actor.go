package room

import (
	"github.com/christophecraig/coinchette/internal/bots"
	"github.com/christophecraig/coinchette/internal/engine"
)

// Actor produces the next bid or card for the seat it occupies. Decide
// reports false when the move has to come from outside the room.
type Actor interface {
	Decide(state engine.GameState, seat engine.Seat) (engine.Action, bool)
}

// RemoteActor waits for a connected human to send the move.
type RemoteActor struct{}

func (RemoteActor) Decide(engine.GameState, engine.Seat) (engine.Action, bool) {
	return engine.Action{}, false
}

// ScriptedActor computes the move in place with a bot strategy.
type ScriptedActor struct {
	Bot bots.Bot
}

func (a ScriptedActor) Decide(state engine.GameState, seat engine.Seat) (engine.Action, bool) {
	return a.Bot.ChooseAction(state, seat), true
}
