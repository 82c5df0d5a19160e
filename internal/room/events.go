package room

import (
	"time"

	"github.com/christophecraig/coinchette/internal/engine"
)

type EventType string

const (
	EventSeatsChanged  EventType = "seats_changed"
	EventGameStarted   EventType = "game_started"
	EventBidSubmitted  EventType = "bid_submitted"
	EventContractSet   EventType = "contract_set"
	EventCardPlayed    EventType = "card_played"
	EventTrickResolved EventType = "trick_resolved"
	EventRoundScored   EventType = "round_scored"
	EventRoundVoided   EventType = "round_voided"
	EventGameFinished  EventType = "game_finished"
	EventChatMessage   EventType = "chat_message"
	EventSystemMessage EventType = "system_message"
)

// Event is one entry of a room's ordered stream. Only the fields that matter
// for Type are set.
type Event struct {
	Seq  uint64
	Type EventType
	At   time.Time
	Seat engine.Seat

	// GameStarted
	Seed  int64
	Rules *engine.Rules

	Action   *engine.Action
	Contract *engine.Contract
	Trick    *engine.Trick
	Result   *engine.RoundResult
	Winner   *engine.Team
	Scores   [2]int

	// ChatMessage and SystemMessage
	From string
	Text string
}

// Envelope pairs an event with the room state right after it was applied.
// The snapshot is a private copy; receivers may keep it.
type Envelope struct {
	Event    Event
	Snapshot Snapshot
}

// Sink receives every envelope of every room, outside the room goroutine.
type Sink interface {
	Observe(code string, env Envelope)
}

type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindBot   PlayerKind = "bot"
)

type Player struct {
	ID        string
	Name      string
	Kind      PlayerKind
	Seat      engine.Seat
	Connected bool
	// TakenOver is set while a bot plays for a disconnected human.
	TakenOver bool
}

func (p Player) Occupied() bool {
	return p.ID != ""
}

// Phase is the room phase shown to clients.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseBidding  Phase = "bidding"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type Snapshot struct {
	Code  string
	Phase Phase
	Seq   uint64
	Seats [engine.NumSeats]Player
	// Game is nil until the first start.
	Game *engine.GameState
}

// SeatOf returns the seat held by playerID.
func (s Snapshot) SeatOf(playerID string) (engine.Seat, bool) {
	if playerID == "" {
		return engine.SeatNone, false
	}
	for i, p := range s.Seats {
		if p.ID == playerID {
			return engine.Seat(i), true
		}
	}
	return engine.SeatNone, false
}

type SeatAssignment struct {
	Seat        engine.Seat
	Reconnected bool
}
