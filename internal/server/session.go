package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/room"
)

var wsLogger = logging.GetZeroLogger("server::ws", nil)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	requestTimeout = 5 * time.Second
	outBuffer      = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type ClientMessage struct {
	Type      string   `json:"type"`
	RequestID string   `json:"requestId,omitempty"`
	ActionID  string   `json:"actionId,omitempty"`
	Suit      string   `json:"suit,omitempty"`
	Card      *CardDTO `json:"card,omitempty"`
	Declare   bool     `json:"declare,omitempty"`
	Seat      string   `json:"seat,omitempty"`
	Text      string   `json:"text,omitempty"`
}

type ServerMessage struct {
	Type      string     `json:"type"`
	RequestID string     `json:"requestId,omitempty"`
	State     *GameView  `json:"state,omitempty"`
	Events    []Event    `json:"events,omitempty"`
	Error     *ErrorView `json:"error,omitempty"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// session is one websocket client attached to one room. The writer
// goroutine owns every write to the connection.
type session struct {
	id       string
	room     *room.Room
	playerID string
	conn     *websocket.Conn
	out      chan ServerMessage
	stopped  chan struct{}
	logger   zerolog.Logger
}

func newSession(r *room.Room, conn *websocket.Conn, playerID string) *session {
	id := uuid.New().String()
	return &session{
		id:       id,
		room:     r,
		playerID: playerID,
		conn:     conn,
		out:      make(chan ServerMessage, outBuffer),
		stopped:  make(chan struct{}),
		logger: wsLogger.With().
			Str("room", r.Code()).
			Str("conn", id).
			Str("player", playerID).
			Logger(),
	}
}

func (s *session) serve() {
	defer s.conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	sub, err := s.room.Subscribe(ctx, s.playerID)
	cancel()
	if err != nil {
		_ = s.writeNow(*errorMessage("", err))
		return
	}
	defer sub.Close()
	s.logger.Info().Msg("Connected")

	seat, _ := sub.Snapshot.SeatOf(s.playerID)
	s.out <- ServerMessage{Type: "state", State: BuildGameView(sub.Snapshot, seat)}

	quit := make(chan struct{})
	go s.writeLoop(sub, quit)
	s.readLoop()
	close(quit)
	<-s.stopped
	s.logger.Info().Msg("Disconnected")
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Read failed")
			}
			return
		}
		var msg ClientMessage
		if err := jsoniter.Unmarshal(data, &msg); err != nil {
			s.send(ServerMessage{Type: "error", Error: &ErrorView{Code: "bad_request", Message: "invalid json"}})
			continue
		}
		if reply := s.handle(msg); reply != nil {
			s.send(*reply)
		}
	}
}

func (s *session) send(m ServerMessage) {
	select {
	case s.out <- m:
	case <-s.stopped:
	}
}

func (s *session) writeLoop(sub *room.Subscription, quit <-chan struct{}) {
	defer close(s.stopped)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case m := <-s.out:
			if err := s.writeNow(m); err != nil {
				return
			}
		case env, ok := <-sub.C:
			if !ok {
				s.closeFeed()
				return
			}
			m, open := s.batch(env, sub.C)
			if err := s.writeNow(m); err != nil {
				return
			}
			if !open {
				s.closeFeed()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// batch folds every envelope already queued behind env into one state
// message. It reports false when the feed was closed while draining.
func (s *session) batch(env room.Envelope, feed <-chan room.Envelope) (ServerMessage, bool) {
	events := []Event{buildEvent(env.Event)}
	last := env
	for {
		select {
		case more, ok := <-feed:
			if !ok {
				return s.stateMessage(last, events), false
			}
			events = append(events, buildEvent(more.Event))
			last = more
		default:
			return s.stateMessage(last, events), true
		}
	}
}

func (s *session) stateMessage(env room.Envelope, events []Event) ServerMessage {
	seat, _ := env.Snapshot.SeatOf(s.playerID)
	return ServerMessage{Type: "state", State: BuildGameView(env.Snapshot, seat), Events: events}
}

// closeFeed ends the connection once the room stops feeding it, either
// because the room closed or because this client fell too far behind.
func (s *session) closeFeed() {
	s.logger.Info().Msg("Room feed closed")
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "room feed closed"))
	s.conn.Close()
}

func (s *session) writeNow(m ServerMessage) error {
	data, err := jsoniter.Marshal(m)
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not encode message")
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) handle(msg ClientMessage) *ServerMessage {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case "request_state":
		snap, err := s.room.Snapshot(ctx)
		if err != nil {
			return errorMessage(msg.RequestID, err)
		}
		seat, _ := snap.SeatOf(s.playerID)
		return &ServerMessage{Type: "state", RequestID: msg.RequestID, State: BuildGameView(snap, seat)}
	case "pass":
		err = s.room.SubmitBid(ctx, s.playerID, msg.ActionID, engine.Pass())
	case "bid":
		var suit engine.Suit
		if suit, err = parseSuit(msg.Suit); err == nil {
			err = s.room.SubmitBid(ctx, s.playerID, msg.ActionID, engine.Take(suit))
		}
	case "play_card":
		if msg.Card == nil {
			err = errors.Wrap(errBadAction, "card required")
			break
		}
		var card engine.Card
		if card, err = msg.Card.toEngine(); err == nil {
			err = s.room.PlayCard(ctx, s.playerID, msg.ActionID, card, msg.Declare)
		}
	case "chat":
		err = s.room.SendChat(ctx, s.playerID, msg.Text)
	case "start_game":
		err = s.room.Start(ctx)
	case "add_bot":
		var seat engine.Seat
		if seat, err = parseSeat(msg.Seat); err == nil {
			_, err = s.room.AddBot(ctx, seat)
		}
	default:
		return &ServerMessage{Type: "error", RequestID: msg.RequestID,
			Error: &ErrorView{Code: "unknown_type", Message: "unknown message type"}}
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("type", msg.Type).Msg("Request rejected")
		return errorMessage(msg.RequestID, err)
	}
	return nil
}

func errorMessage(requestID string, err error) *ServerMessage {
	return &ServerMessage{Type: "error", RequestID: requestID, Error: errorView(err)}
}

func errorView(err error) *ErrorView {
	code := room.Code(err)
	if errors.Is(err, errBadAction) {
		code = "bad_request"
	}
	return &ErrorView{Code: code, Message: err.Error()}
}
