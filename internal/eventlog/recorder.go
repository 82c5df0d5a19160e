package eventlog

import (
	"context"
	"time"

	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/room"
)

var recorderLogger = logging.GetZeroLogger("eventlog::recorder", nil)

const writeTimeout = 2 * time.Second

// Recorder writes the game events of every room to a Store. A new game in a
// room replaces that room's previous log.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Observe(code string, env room.Envelope) {
	rec, ok := FromEvent(code, env.Event)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if rec.Type == room.EventGameStarted {
		if err := r.store.Delete(ctx, code); err != nil {
			recorderLogger.Warn().Err(err).Str("room", code).Msg("Could not clear the previous game log")
		}
	}
	if err := r.store.Append(ctx, code, rec); err != nil {
		recorderLogger.Error().Err(err).Str("room", code).Uint64("seq", rec.Seq).Msg("Could not record event")
	}
}
