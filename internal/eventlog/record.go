package eventlog

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/room"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the persisted form of a game event. Only what is needed to
// rebuild the game is kept: the seed and rules, every accepted action, and
// the running scores as checkpoints.
type Record struct {
	Room   string         `json:"room"`
	Seq    uint64         `json:"seq"`
	Type   room.EventType `json:"type"`
	At     time.Time      `json:"at"`
	Seat   engine.Seat    `json:"seat"`
	Seed   int64          `json:"seed,omitempty"`
	Rules  *engine.Rules  `json:"rules,omitempty"`
	Action *engine.Action `json:"action,omitempty"`
	Scores [2]int         `json:"scores"`
	Winner *engine.Team   `json:"winner,omitempty"`
}

// FromEvent converts a room event. It reports false for events that play no
// part in rebuilding a game, such as chat or seat changes.
func FromEvent(code string, ev room.Event) (Record, bool) {
	switch ev.Type {
	case room.EventGameStarted, room.EventBidSubmitted, room.EventCardPlayed,
		room.EventRoundScored, room.EventGameFinished:
	default:
		return Record{}, false
	}
	return Record{
		Room:   code,
		Seq:    ev.Seq,
		Type:   ev.Type,
		At:     ev.At,
		Seat:   ev.Seat,
		Seed:   ev.Seed,
		Rules:  ev.Rules,
		Action: ev.Action,
		Scores: ev.Scores,
		Winner: ev.Winner,
	}, true
}

func encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

func decode(data []byte) (Record, error) {
	var rec Record
	err := json.Unmarshal(data, &rec)
	return rec, err
}
