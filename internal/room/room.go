package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/christophecraig/coinchette/internal/bots"
	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/metrics"
)

var roomLogger = logging.GetZeroLogger("room::room", nil)

// Reasons passed to the registry when a room goes away.
const (
	closeIdle     = "idle"
	closeFailed   = "failed"
	closeShutdown = "shutdown"
)

var errRoomClosed = errors.Wrap(ErrRoomNotFound, "room closed")

type command func()

type subscriber struct {
	playerID string
	ch       chan Envelope
}

// Subscription is a live feed of a room's envelopes. C is closed when the
// subscription ends, either through Close, because the reader fell behind,
// or because the room was torn down.
type Subscription struct {
	C <-chan Envelope
	// Snapshot is the room state when the subscription started; envelopes on
	// C all carry a higher Seq.
	Snapshot Snapshot

	room *Room
	id   uint64
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		_ = s.room.do(context.Background(), func() error {
			s.room.detach(s.id)
			return nil
		})
	})
}

// Room owns one table. All state below is only touched by the room
// goroutine; other goroutines go through do or post.
type Room struct {
	code    string
	opts    Options
	logger  zerolog.Logger
	cmds    chan command
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
	onClose func(code string, reason string)
	sinks   *sinkQueue

	lifecycle *fsm.FSM
	seats     [engine.NumSeats]Player
	actors    [engine.NumSeats]Actor
	takeover  [engine.NumSeats]Actor
	game      *engine.GameState
	seq       uint64
	// turn changes with every accepted move and every new game; timers
	// compare it to drop stale moves.
	turn        uint64
	subs        map[uint64]*subscriber
	nextSub     uint64
	conns       map[string]int
	seen        *lru.Cache
	chat        map[string]*rate.Limiter
	idleTimer   *time.Timer
	idleGen     uint64
	turnTimer   *time.Timer
	botTimer    *time.Timer
	dirty       bool
	closeReason string
}

func newRoom(code string, opts Options, onClose func(code string, reason string)) (*Room, error) {
	seen, err := lru.New(opts.ActionCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "action id cache")
	}
	r := &Room{
		code:      code,
		opts:      opts,
		logger:    roomLogger.With().Str("room", code).Logger(),
		cmds:      make(chan command, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		onClose:   onClose,
		lifecycle: newLifecycle(),
		subs:      map[uint64]*subscriber{},
		conns:     map[string]int{},
		seen:      seen,
		chat:      map[string]*rate.Limiter{},
	}
	for i := range r.seats {
		r.seats[i].Seat = engine.Seat(i)
	}
	if len(opts.Sinks) > 0 {
		r.sinks = newSinkQueue()
	}
	return r, nil
}

func (r *Room) start() {
	if r.sinks != nil {
		go r.sinks.run(r.code, r.opts.Sinks)
	}
	go r.run()
}

func (r *Room) Code() string {
	return r.code
}

// Done is closed once the room has been torn down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Close tears the room down and waits for it to finish.
func (r *Room) Close() {
	r.stopped.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Room) run() {
	r.armIdle()
	for r.closeReason == "" {
		select {
		case cmd := <-r.cmds:
			r.exec(cmd)
		case <-r.stop:
			r.closeReason = closeShutdown
		}
	}
	r.teardown()
}

func (r *Room) exec(cmd command) {
	defer func() {
		if p := recover(); p != nil {
			r.fatal(errors.Errorf("panic: %v", p))
		}
	}()
	cmd()
	for r.dirty && r.closeReason == "" {
		r.dirty = false
		r.pump()
	}
}

// do runs fn on the room goroutine and returns its result. Once admitted a
// command always runs to completion, so ctx only bounds the wait for
// admission.
func (r *Room) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	cmd := func() {
		reply <- fn()
		r.touch()
	}
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return errRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		select {
		case err := <-reply:
			return err
		default:
			return errRoomClosed
		}
	}
}

// post queues fn from a timer goroutine.
func (r *Room) post(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	}
}

func (r *Room) teardown() {
	r.stopTurnTimers()
	if r.idleTimer != nil {
		r.idleTimer.Stop()
	}
	close(r.done)
	for id, sub := range r.subs {
		close(sub.ch)
		delete(r.subs, id)
	}
	if r.sinks != nil {
		r.sinks.close()
	}
	r.logger.Info().Str("reason", r.closeReason).Msg("Room closed")
	if r.onClose != nil {
		r.onClose(r.code, r.closeReason)
	}
}

// fatal closes the room after an internal error. Other rooms are unaffected.
func (r *Room) fatal(err error) {
	r.logger.Error().Err(err).Msg("Room failed")
	r.system("The table hit an internal error and is closing.")
	r.closeReason = closeFailed
}

// Join seats playerID in the lowest free seat. A player already seated gets
// its seat back, which is how a dropped client reconnects to a running game.
func (r *Room) Join(ctx context.Context, playerID, name string) (SeatAssignment, error) {
	var out SeatAssignment
	err := r.do(ctx, func() error {
		var err error
		out, err = r.join(playerID, name)
		return err
	})
	return out, err
}

func (r *Room) join(playerID, name string) (SeatAssignment, error) {
	if playerID == "" {
		return SeatAssignment{}, errors.Wrap(ErrNotSeated, "player id required")
	}
	if seat, ok := r.seatOf(playerID); ok {
		return SeatAssignment{Seat: seat, Reconnected: true}, nil
	}
	if r.lifecycle.Current() == lifecycleInProgress {
		return SeatAssignment{}, errors.Wrapf(ErrAlreadyInProgress, "room %s", r.code)
	}
	seat, ok := r.freeSeat()
	if !ok {
		return SeatAssignment{}, errors.Wrapf(ErrRoomFull, "room %s", r.code)
	}
	if name == "" {
		name = playerID
	}
	r.seats[seat] = Player{
		ID:        playerID,
		Name:      name,
		Kind:      KindHuman,
		Seat:      seat,
		Connected: r.conns[playerID] > 0,
	}
	r.actors[seat] = RemoteActor{}
	r.seatsChanged(fmt.Sprintf("%s sits %s.", name, seat))
	return SeatAssignment{Seat: seat}, nil
}

// AddBot seats a bot. engine.SeatNone picks the lowest free seat.
func (r *Room) AddBot(ctx context.Context, seat engine.Seat) (engine.Seat, error) {
	out := engine.SeatNone
	err := r.do(ctx, func() error {
		var err error
		out, err = r.addBot(seat)
		return err
	})
	return out, err
}

func (r *Room) addBot(seat engine.Seat) (engine.Seat, error) {
	if r.lifecycle.Current() == lifecycleInProgress {
		return engine.SeatNone, errors.Wrapf(ErrAlreadyInProgress, "room %s", r.code)
	}
	switch {
	case seat == engine.SeatNone:
		free, ok := r.freeSeat()
		if !ok {
			return engine.SeatNone, errors.Wrapf(ErrRoomFull, "room %s", r.code)
		}
		seat = free
	case !seat.Valid():
		return engine.SeatNone, errors.Wrapf(ErrInvalidSeat, "seat %d", seat)
	case r.seats[seat].Occupied():
		return engine.SeatNone, errors.Wrapf(ErrSeatOccupied, "%s is taken by %s", seat, r.seats[seat].Name)
	}
	r.seats[seat] = Player{
		ID:        "bot-" + uuid.New().String(),
		Name:      "Bot " + seat.String(),
		Kind:      KindBot,
		Seat:      seat,
		Connected: true,
	}
	r.actors[seat] = ScriptedActor{Bot: r.opts.NewBot(r.opts.Seed() + int64(seat))}
	r.seatsChanged(fmt.Sprintf("A bot sits %s.", seat))
	return seat, nil
}

// Leave frees the seat held by playerID. Seats are sealed while a game runs.
func (r *Room) Leave(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		seat, ok := r.seatOf(playerID)
		if !ok {
			return errors.Wrapf(ErrNotSeated, "player %s", playerID)
		}
		if r.lifecycle.Current() == lifecycleInProgress {
			return errors.Wrapf(ErrAlreadyInProgress, "room %s", r.code)
		}
		name := r.seats[seat].Name
		r.seats[seat] = Player{Seat: seat}
		r.actors[seat] = nil
		r.takeover[seat] = nil
		delete(r.chat, playerID)
		r.seatsChanged(fmt.Sprintf("%s left the table.", name))
		return nil
	})
}

// Start deals the first round. It needs four seated players and a room still
// in the lobby; a finished room goes through Restart.
func (r *Room) Start(ctx context.Context) error {
	return r.do(ctx, func() error {
		switch r.lifecycle.Current() {
		case lifecycleInProgress:
			return errors.Wrapf(ErrAlreadyInProgress, "room %s", r.code)
		case lifecycleFinished:
			return errors.Wrap(engine.ErrWrongPhase, "game is over, restart it instead")
		}
		return r.startGame(lifecycleEventStart)
	})
}

// Restart starts a new game in a finished room.
func (r *Room) Restart(ctx context.Context) error {
	return r.do(ctx, func() error {
		if r.lifecycle.Current() != lifecycleFinished {
			return errors.Wrap(engine.ErrWrongPhase, "only a finished game can be restarted")
		}
		return r.startGame(lifecycleEventRestart)
	})
}

func (r *Room) startGame(event string) error {
	if n := r.occupied(); n < engine.NumSeats {
		return errors.Wrapf(ErrNotEnoughPlayers, "%d of %d seats filled", n, engine.NumSeats)
	}
	if err := r.lifecycle.Event(event); err != nil {
		return errors.Wrap(err, "room lifecycle")
	}

	seed := r.opts.Seed()
	g := engine.NewGame(r.opts.Rules, seed)
	engine.Advance(&g)
	r.game = &g
	r.turn++
	r.seen.Purge()
	for i := range r.takeover {
		r.takeover[i] = nil
	}

	metrics.Metrics.GameStarted()
	rules := g.Rules
	r.emit(Event{Type: EventGameStarted, Seat: g.Round.Dealer, Seed: seed, Rules: &rules})
	r.system(fmt.Sprintf("New game. %s deals, %s speaks first.", g.Round.Dealer, g.Round.Turn))
	r.logger.Info().Int64("seed", seed).Msg("Game started")
	r.dirty = true
	return nil
}

// SubmitBid sends a pass or a take for the seat held by playerID.
func (r *Room) SubmitBid(ctx context.Context, playerID, actionID string, bid engine.Action) error {
	if bid.Type != engine.ActionPass && bid.Type != engine.ActionTake {
		return errors.Wrapf(engine.ErrIllegalBid, "%s is not a bid", bid.Type)
	}
	return r.Act(ctx, playerID, actionID, bid)
}

// PlayCard plays card for the seat held by playerID; declare announces
// belote or rebelote with it.
func (r *Room) PlayCard(ctx context.Context, playerID, actionID string, card engine.Card, declare bool) error {
	a := engine.PlayCard(card)
	a.Declare = declare
	return r.Act(ctx, playerID, actionID, a)
}

// Act applies a for the seat held by playerID. A non-empty actionID that was
// already accepted is acknowledged without being applied again.
func (r *Room) Act(ctx context.Context, playerID, actionID string, a engine.Action) error {
	return r.do(ctx, func() error {
		err := r.act(playerID, actionID, a)
		if err != nil {
			metrics.Metrics.ActionRejected(Code(err))
		}
		return err
	})
}

func (r *Room) act(playerID, actionID string, a engine.Action) error {
	if r.game == nil || r.lifecycle.Current() != lifecycleInProgress {
		return errors.Wrap(engine.ErrWrongPhase, "no game in progress")
	}
	seat, ok := r.seatOf(playerID)
	if !ok {
		return errors.Wrapf(ErrNotSeated, "player %s", playerID)
	}
	key := ""
	if actionID != "" {
		key = playerID + "/" + actionID
		if r.seen.Contains(key) {
			return nil
		}
	}
	if err := r.step(seat, a); err != nil {
		return err
	}
	if key != "" {
		r.seen.Add(key, struct{}{})
	}
	r.dirty = true
	return nil
}

// step applies one move and broadcasts what it caused. It is the only place
// where the game state changes.
func (r *Room) step(seat engine.Seat, a engine.Action) error {
	g := r.game
	voids := g.Voids
	tricks := len(g.Round.Tricks)
	rounds := len(g.History)
	hadContract := g.Round.Contract != nil
	name := r.seats[seat].Name

	if err := engine.ApplyAction(g, seat, a); err != nil {
		return err
	}
	r.turn++

	act := a
	events := []Event{}
	switch a.Type {
	case engine.ActionPass, engine.ActionTake:
		events = append(events,
			Event{Type: EventBidSubmitted, Seat: seat, Action: &act},
			systemEvent(bidText(name, a)))
		switch {
		case g.Voids > voids:
			metrics.Metrics.RoundVoided()
			events = append(events,
				Event{Type: EventRoundVoided, Seat: g.Round.Dealer},
				systemEvent(fmt.Sprintf("Everybody passed. %s deals again.", g.Round.Dealer)))
		case !hadContract && g.Round.Contract != nil:
			c := *g.Round.Contract
			events = append(events,
				Event{Type: EventContractSet, Seat: c.Taker, Contract: &c},
				systemEvent(contractText(c)))
		}
	case engine.ActionPlayCard:
		events = append(events, Event{Type: EventCardPlayed, Seat: seat, Action: &act})
		if a.Declare {
			word := "Belote"
			if g.Round.Belote[seat] == engine.BeloteDone {
				word = "Rebelote"
			}
			events = append(events, systemEvent(fmt.Sprintf("%s: %s! (%s)", name, word, cardLabel(*a.Card))))
		}
		if len(g.Round.Tricks) > tricks {
			t := g.Round.Tricks[len(g.Round.Tricks)-1]
			t.Plays = append([]engine.Play(nil), t.Plays...)
			events = append(events,
				Event{Type: EventTrickResolved, Seat: t.Winner, Trick: &t},
				systemEvent(fmt.Sprintf("Team %s won the trick.", t.Winner.Team())))
		}
		if len(g.History) > rounds {
			res := g.History[len(g.History)-1]
			metrics.Metrics.RoundScored()
			events = append(events,
				Event{Type: EventRoundScored, Seat: res.Contract.Taker, Result: &res, Scores: g.Scores},
				systemEvent(roundText(res)))
		}
	}

	if err := engine.CheckInvariants(*g); err != nil {
		r.fatal(err)
		return errors.Wrap(err, "game state corrupted")
	}

	engine.Advance(g)
	if g.Round.Phase == engine.PhaseGameOver && r.lifecycle.Current() == lifecycleInProgress {
		if err := r.lifecycle.Event(lifecycleEventFinish); err != nil {
			r.logger.Error().Err(err).Msg("Could not finish the game")
		}
		metrics.Metrics.GameFinished()
		winner := *g.Winner
		events = append(events,
			Event{Type: EventGameFinished, Seat: engine.SeatNone, Winner: &winner, Scores: g.Scores},
			systemEvent(gameOverText(winner, g.Scores)))
		r.logger.Info().Str("winner", winner.String()).Msgf("Game over after %d rounds", len(g.History))
	}
	for _, ev := range events {
		r.emit(ev)
	}
	return nil
}

// pump lets scripted actors move until a human is to play, scheduling
// paced moves and turn timeouts on the way.
func (r *Room) pump() {
	r.stopTurnTimers()
	for r.closeReason == "" && r.game != nil && r.lifecycle.Current() == lifecycleInProgress {
		seat, ok := engine.CurrentPlayer(*r.game)
		if !ok {
			return
		}
		a, scripted := r.actorFor(seat).Decide(r.game.Clone(), seat)
		if !scripted {
			r.armTurnTimeout(seat)
			return
		}
		if r.opts.BotDelay > 0 {
			r.scheduleBot(seat, a)
			return
		}
		r.playFor(seat, a)
	}
}

func (r *Room) actorFor(seat engine.Seat) Actor {
	p := r.seats[seat]
	if p.Kind == KindHuman && p.TakenOver {
		if r.takeover[seat] == nil {
			r.takeover[seat] = ScriptedActor{Bot: r.opts.NewBot(r.opts.Seed() + int64(seat))}
		}
		return r.takeover[seat]
	}
	if r.actors[seat] == nil {
		return RemoteActor{}
	}
	return r.actors[seat]
}

// playFor applies a scripted move. A rejected move is logged and replaced by
// the fallback; if that fails too the room cannot continue.
func (r *Room) playFor(seat engine.Seat, a engine.Action) {
	err := r.step(seat, a)
	if err == nil || r.closeReason != "" {
		return
	}
	r.logger.Error().Err(err).Msgf("Scripted move %v for %s rejected", a, seat)
	if err := r.step(seat, bots.Fallback(r.game.Clone(), seat)); err != nil && r.closeReason == "" {
		r.fatal(errors.Wrap(err, "fallback move rejected"))
	}
}

func (r *Room) scheduleBot(seat engine.Seat, a engine.Action) {
	tag := r.turn
	r.botTimer = time.AfterFunc(r.opts.BotDelay, func() {
		r.post(func() {
			if !r.stillTurn(tag, seat) {
				return
			}
			if _, remote := r.actorFor(seat).(RemoteActor); !remote {
				r.playFor(seat, a)
			}
			r.dirty = true
		})
	})
}

func (r *Room) armTurnTimeout(seat engine.Seat) {
	if r.opts.TurnTimeout <= 0 {
		return
	}
	tag := r.turn
	r.turnTimer = time.AfterFunc(r.opts.TurnTimeout, func() {
		r.post(func() {
			if !r.stillTurn(tag, seat) {
				return
			}
			r.system(fmt.Sprintf("%s ran out of time.", r.seats[seat].Name))
			r.playFor(seat, bots.Fallback(r.game.Clone(), seat))
			r.dirty = true
		})
	})
}

func (r *Room) stillTurn(tag uint64, seat engine.Seat) bool {
	if r.turn != tag || r.game == nil || r.lifecycle.Current() != lifecycleInProgress {
		return false
	}
	cur, ok := engine.CurrentPlayer(*r.game)
	return ok && cur == seat
}

func (r *Room) stopTurnTimers() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
}

// SendChat relays text from a seated player to the whole room.
func (r *Room) SendChat(ctx context.Context, playerID, text string) error {
	return r.do(ctx, func() error {
		seat, ok := r.seatOf(playerID)
		if !ok {
			return errors.Wrapf(ErrNotSeated, "player %s", playerID)
		}
		text = strings.TrimSpace(text)
		if text == "" || utf8.RuneCountInString(text) > r.opts.ChatMaxLength {
			metrics.Metrics.ChatRejected()
			return errors.Wrapf(ErrChatRejected, "message must be 1 to %d characters", r.opts.ChatMaxLength)
		}
		lim, ok := r.chat[playerID]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(r.opts.ChatPerSecond), r.opts.ChatBurst)
			r.chat[playerID] = lim
		}
		if !lim.Allow() {
			metrics.Metrics.ChatRejected()
			return errors.Wrap(ErrChatRejected, "too many messages")
		}
		r.emit(Event{Type: EventChatMessage, Seat: seat, From: playerID, Text: text})
		return nil
	})
}

func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	err := r.do(ctx, func() error {
		out = r.snapshot()
		return nil
	})
	return out, err
}

// Subscribe opens a feed of the room's envelopes. A non-empty playerID marks
// that player as connected for as long as the subscription lives.
func (r *Room) Subscribe(ctx context.Context, playerID string) (*Subscription, error) {
	var out *Subscription
	err := r.do(ctx, func() error {
		if playerID != "" {
			r.conns[playerID]++
			if r.conns[playerID] == 1 {
				r.connected(playerID)
			}
		}
		r.nextSub++
		id := r.nextSub
		ch := make(chan Envelope, r.opts.SubscriberBuffer)
		r.subs[id] = &subscriber{playerID: playerID, ch: ch}
		r.idleGen++
		if r.idleTimer != nil {
			r.idleTimer.Stop()
		}
		out = &Subscription{C: ch, Snapshot: r.snapshot(), room: r, id: id}
		return nil
	})
	return out, err
}

func (r *Room) detach(id uint64) {
	sub, ok := r.subs[id]
	if !ok {
		return
	}
	delete(r.subs, id)
	close(sub.ch)
	if sub.playerID != "" {
		r.conns[sub.playerID]--
		if r.conns[sub.playerID] <= 0 {
			delete(r.conns, sub.playerID)
			r.disconnected(sub.playerID)
		}
	}
	r.armIdle()
}

func (r *Room) connected(playerID string) {
	seat, ok := r.seatOf(playerID)
	if !ok || r.seats[seat].Kind != KindHuman {
		return
	}
	p := &r.seats[seat]
	p.Connected = true
	if p.TakenOver {
		p.TakenOver = false
		r.seatsChanged(fmt.Sprintf("%s is back and plays %s again.", p.Name, seat))
		r.dirty = true
		return
	}
	r.seatsChanged(fmt.Sprintf("%s connected.", p.Name))
}

// disconnected applies the takeover policy: during a game a bot plays the
// seat until its player reconnects.
func (r *Room) disconnected(playerID string) {
	seat, ok := r.seatOf(playerID)
	if !ok || r.seats[seat].Kind != KindHuman {
		return
	}
	p := &r.seats[seat]
	p.Connected = false
	if r.lifecycle.Current() == lifecycleInProgress {
		p.TakenOver = true
		r.seatsChanged(fmt.Sprintf("%s disconnected, a bot plays %s for now.", p.Name, seat))
		r.dirty = true
		return
	}
	r.seatsChanged(fmt.Sprintf("%s disconnected.", p.Name))
}

func (r *Room) armIdle() {
	if r.opts.IdleTimeout <= 0 || len(r.subs) > 0 {
		return
	}
	r.idleGen++
	gen := r.idleGen
	if r.idleTimer != nil {
		r.idleTimer.Stop()
	}
	r.idleTimer = time.AfterFunc(r.opts.IdleTimeout, func() {
		r.post(func() {
			if gen == r.idleGen && len(r.subs) == 0 {
				r.closeReason = closeIdle
			}
		})
	})
}

// touch counts an admitted command as activity, so a room driven without a
// subscription is only torn down once its callers go quiet.
func (r *Room) touch() {
	if r.closeReason == "" {
		r.armIdle()
	}
}

func (r *Room) seatsChanged(text string) {
	r.emit(Event{Type: EventSeatsChanged, Seat: engine.SeatNone})
	r.system(text)
}

func (r *Room) system(text string) {
	r.emit(systemEvent(text))
}

func systemEvent(text string) Event {
	return Event{Type: EventSystemMessage, Seat: engine.SeatNone, Text: text}
}

// emit sequences ev and fans it out. Subscribers that cannot keep up are
// dropped instead of blocking the room.
func (r *Room) emit(ev Event) {
	r.seq++
	ev.Seq = r.seq
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	env := Envelope{Event: ev, Snapshot: r.snapshot()}

	var dropped []uint64
	for id, sub := range r.subs {
		select {
		case sub.ch <- env:
		default:
			dropped = append(dropped, id)
		}
	}
	if r.sinks != nil {
		r.sinks.push(env)
	}
	for _, id := range dropped {
		metrics.Metrics.SubscriberDropped()
		r.logger.Warn().Uint64("subscriber", id).Msg("Subscriber fell behind and was dropped")
		r.detach(id)
	}
}

func (r *Room) snapshot() Snapshot {
	s := Snapshot{
		Code:  r.code,
		Phase: r.phase(),
		Seq:   r.seq,
		Seats: r.seats,
	}
	if r.game != nil {
		g := r.game.Clone()
		s.Game = &g
	}
	return s
}

func (r *Room) phase() Phase {
	switch r.lifecycle.Current() {
	case lifecycleLobby:
		return PhaseLobby
	case lifecycleFinished:
		return PhaseFinished
	}
	if r.game != nil && r.game.Round.Phase == engine.PhasePlaying {
		return PhasePlaying
	}
	return PhaseBidding
}

func (r *Room) seatOf(playerID string) (engine.Seat, bool) {
	if playerID == "" {
		return engine.SeatNone, false
	}
	for i, p := range r.seats {
		if p.ID == playerID {
			return engine.Seat(i), true
		}
	}
	return engine.SeatNone, false
}

func (r *Room) freeSeat() (engine.Seat, bool) {
	for i, p := range r.seats {
		if !p.Occupied() {
			return engine.Seat(i), true
		}
	}
	return engine.SeatNone, false
}

func (r *Room) occupied() int {
	n := 0
	for _, p := range r.seats {
		if p.Occupied() {
			n++
		}
	}
	return n
}
