package eventlog

import (
	"github.com/pkg/errors"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/room"
)

var ErrNoGame = errors.New("log holds no game start")

// Replay rebuilds the most recent game in records from its seed and actions.
// Score checkpoints in the log are compared along the way, so a log that no
// longer matches the engine is reported instead of silently diverging.
func Replay(records []Record) (engine.GameState, error) {
	start := -1
	for i, rec := range records {
		if rec.Type == room.EventGameStarted {
			start = i
		}
	}
	if start < 0 {
		return engine.GameState{}, ErrNoGame
	}
	first := records[start]
	if first.Rules == nil {
		return engine.GameState{}, errors.Errorf("game start at seq %d has no rules", first.Seq)
	}

	g := engine.NewGame(*first.Rules, first.Seed)
	engine.Advance(&g)
	for _, rec := range records[start+1:] {
		switch rec.Type {
		case room.EventBidSubmitted, room.EventCardPlayed:
			if rec.Action == nil {
				return g, errors.Errorf("seq %d: missing action", rec.Seq)
			}
			if err := engine.ApplyAction(&g, rec.Seat, *rec.Action); err != nil {
				return g, errors.Wrapf(err, "seq %d: %s by %s", rec.Seq, rec.Action, rec.Seat)
			}
			engine.Advance(&g)
		case room.EventRoundScored, room.EventGameFinished:
			if g.Scores != rec.Scores {
				return g, errors.Errorf("seq %d: scores %v, log says %v", rec.Seq, g.Scores, rec.Scores)
			}
		}
	}
	return g, nil
}
