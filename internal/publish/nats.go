package publish

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/room"
)

var publishLogger = logging.GetZeroLogger("publish::nats", nil)

// SubjectPrefix is followed by the room code.
const SubjectPrefix = "coinchette.room."

func Subject(code string) string {
	return SubjectPrefix + code
}

// Message is what goes out on the bus for each room event. It carries only
// public information; hands never leave the room.
type Message struct {
	Room     string                  `json:"room"`
	Seq      uint64                  `json:"seq"`
	Type     room.EventType          `json:"type"`
	At       time.Time               `json:"at"`
	Seat     string                  `json:"seat,omitempty"`
	Action   string                  `json:"action,omitempty"`
	Contract *engine.Contract        `json:"contract,omitempty"`
	Result   *engine.RoundResult     `json:"result,omitempty"`
	Winner   string                  `json:"winner,omitempty"`
	Scores   [2]int                  `json:"scores"`
	From     string                  `json:"from,omitempty"`
	Text     string                  `json:"text,omitempty"`
	Phase    room.Phase              `json:"phase"`
	Players  [engine.NumSeats]string `json:"players"`
}

func NewMessage(code string, env room.Envelope) Message {
	ev := env.Event
	m := Message{
		Room:     code,
		Seq:      ev.Seq,
		Type:     ev.Type,
		At:       ev.At,
		Contract: ev.Contract,
		Result:   ev.Result,
		Scores:   ev.Scores,
		From:     ev.From,
		Text:     ev.Text,
		Phase:    env.Snapshot.Phase,
	}
	if ev.Seat.Valid() {
		m.Seat = ev.Seat.String()
	}
	if ev.Action != nil {
		m.Action = ev.Action.String()
	}
	if ev.Winner != nil {
		m.Winner = ev.Winner.String()
	}
	for i, p := range env.Snapshot.Seats {
		m.Players[i] = p.Name
	}
	return m
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher forwards room events to NATS, one subject per room.
type NatsPublisher struct {
	conn publisher
	nc   *natsgo.Conn
}

func Connect(url string) (*NatsPublisher, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name("coinchette"),
		natsgo.MaxReconnects(-1),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				publishLogger.Warn().Err(err).Msg("Disconnected from NATS")
			}
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", url)
	}
	publishLogger.Info().Msgf("NATS URL: %s", url)
	return &NatsPublisher{conn: nc, nc: nc}, nil
}

func (p *NatsPublisher) Observe(code string, env room.Envelope) {
	data, err := jsoniter.Marshal(NewMessage(code, env))
	if err != nil {
		publishLogger.Error().Err(err).Str("room", code).Msg("Could not encode event")
		return
	}
	if err := p.conn.Publish(Subject(code), data); err != nil {
		publishLogger.Error().Err(err).Str("room", code).
			Msg(fmt.Sprintf("Could not publish %s", env.Event.Type))
	}
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Flush(); err != nil {
		publishLogger.Warn().Err(err).Msg("NATS flush failed")
	}
	p.nc.Close()
}
