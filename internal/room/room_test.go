package room

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophecraig/coinchette/internal/bots"
	"github.com/christophecraig/coinchette/internal/engine"
)

func testOptions() Options {
	var n int64
	return Options{
		Seed: func() int64 { return atomic.AddInt64(&n, 1) },
	}
}

func next(t *testing.T, sub *Subscription) Envelope {
	t.Helper()
	select {
	case env, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return env
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no envelope received")
	}
	return Envelope{}
}

func snapshot(t *testing.T, r *Room) Snapshot {
	t.Helper()
	s, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestStartNeedsFourSeats(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = reg.JoinRoom(ctx, r.Code(), "alice", "Alice")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = reg.AddBot(ctx, r.Code(), engine.SeatNone)
		require.NoError(t, err)
	}

	err = reg.StartGame(ctx, r.Code())
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, "not_enough_players", Code(err))
	s := snapshot(t, r)
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Nil(t, s.Game)

	_, err = reg.AddBot(ctx, r.Code(), engine.SeatNone)
	require.NoError(t, err)
	require.NoError(t, reg.StartGame(ctx, r.Code()))
	assert.Equal(t, PhaseBidding, snapshot(t, r).Phase)
}

func TestSoloGameTakeClosesBidding(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)

	s := snapshot(t, r)
	require.Equal(t, PhaseBidding, s.Phase)
	assert.Equal(t, KindHuman, s.Seats[engine.SeatSouth].Kind)
	for _, seat := range []engine.Seat{engine.SeatWest, engine.SeatNorth, engine.SeatEast} {
		assert.Equal(t, KindBot, s.Seats[seat].Kind)
	}
	require.NotNil(t, s.Game)
	assert.Equal(t, engine.SeatEast, s.Game.Round.Dealer)
	assert.Equal(t, engine.SeatSouth, s.Game.Round.Turn)

	require.NoError(t, r.SubmitBid(ctx, "alice", "a1", engine.Take(engine.SuitSpades)))

	s = snapshot(t, r)
	assert.Equal(t, PhasePlaying, s.Phase)
	require.NotNil(t, s.Game.Round.Contract)
	assert.Equal(t, engine.SuitSpades, s.Game.Round.Contract.Trump)
	assert.Equal(t, engine.SeatSouth, s.Game.Round.Contract.Taker)
	assert.Equal(t, engine.SeatSouth, s.Game.Round.Turn)
	for _, p := range s.Game.Players {
		assert.Len(t, p.Hand, engine.HandSize)
	}
}

func TestEventsAreSequenced(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, r.SubmitBid(ctx, "alice", "", engine.Take(engine.SuitHearts)))

	want := []EventType{EventBidSubmitted, EventSystemMessage, EventContractSet, EventSystemMessage}
	last := sub.Snapshot.Seq
	for _, typ := range want {
		env := next(t, sub)
		assert.Equal(t, typ, env.Event.Type)
		assert.Equal(t, last+1, env.Event.Seq)
		assert.Equal(t, env.Event.Seq, env.Snapshot.Seq)
		last = env.Event.Seq
	}
}

func TestJoinErrors(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	_, err := reg.JoinRoom(ctx, "NOPE99", "alice", "")
	require.ErrorIs(t, err, ErrRoomNotFound)

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	for i, id := range []string{"a", "b", "c", "d"} {
		got, err := reg.JoinRoom(ctx, strings.ToLower(r.Code()), id, "")
		require.NoError(t, err)
		assert.Equal(t, engine.Seat(i), got.Seat)
	}
	_, err = r.Join(ctx, "e", "")
	require.ErrorIs(t, err, ErrRoomFull)

	require.NoError(t, r.Start(ctx))
	_, err = r.Join(ctx, "e", "")
	require.ErrorIs(t, err, ErrAlreadyInProgress)

	again, err := r.Join(ctx, "c", "")
	require.NoError(t, err)
	assert.Equal(t, engine.SeatNorth, again.Seat)
	assert.True(t, again.Reconnected)
}

func TestAddBotErrors(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)

	seat, err := r.AddBot(ctx, engine.SeatNorth)
	require.NoError(t, err)
	assert.Equal(t, engine.SeatNorth, seat)

	_, err = r.AddBot(ctx, engine.SeatNorth)
	require.ErrorIs(t, err, ErrSeatOccupied)
	_, err = r.AddBot(ctx, engine.Seat(7))
	require.ErrorIs(t, err, ErrInvalidSeat)

	for i := 0; i < 3; i++ {
		_, err = r.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	_, err = r.AddBot(ctx, engine.SeatNone)
	require.ErrorIs(t, err, ErrRoomFull)
}

func TestDuplicateActionIDIsAcknowledged(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, r.SubmitBid(ctx, "alice", "t1", engine.Take(engine.SuitClubs)))
	before := snapshot(t, r)

	require.NoError(t, r.SubmitBid(ctx, "alice", "t1", engine.Take(engine.SuitClubs)))
	after := snapshot(t, r)
	assert.Equal(t, before.Seq, after.Seq)
	assert.Equal(t, before.Game.Moves, after.Game.Moves)

	err = r.SubmitBid(ctx, "alice", "t2", engine.Take(engine.SuitClubs))
	require.ErrorIs(t, err, engine.ErrWrongPhase)
}

func TestRejectedCardLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)

	// Not alice's turn to play yet: bidding is open.
	hand := snapshot(t, r).Game.Players[engine.SeatSouth].Hand
	err = r.PlayCard(ctx, "alice", "", hand[0], false)
	require.ErrorIs(t, err, engine.ErrWrongPhase)

	require.NoError(t, r.SubmitBid(ctx, "alice", "", engine.Take(engine.SuitSpades)))
	before := snapshot(t, r)

	missing := engine.Card{}
	for _, c := range engine.BuildDeck() {
		held := false
		for _, h := range before.Game.Players[engine.SeatSouth].Hand {
			if h == c {
				held = true
			}
		}
		if !held {
			missing = c
			break
		}
	}
	err = r.PlayCard(ctx, "alice", "", missing, false)
	require.ErrorIs(t, err, engine.ErrIllegalCard)
	assert.Equal(t, "illegal_card", Code(err))

	err = r.PlayCard(ctx, "mallory", "", missing, false)
	require.ErrorIs(t, err, ErrNotSeated)

	after := snapshot(t, r)
	assert.Equal(t, before.Seq, after.Seq)
	assert.Equal(t, before.Game.Players[engine.SeatSouth].Hand, after.Game.Players[engine.SeatSouth].Hand)
	assert.Empty(t, after.Game.Round.Trick)
}

func TestBotsPlayWholeGame(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.Rules = engine.CoinchePreset()
	opts.Rules.WinScore = 400
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	for i := 0; i < engine.NumSeats; i++ {
		_, err = r.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	require.NoError(t, r.Start(ctx))

	s := snapshot(t, r)
	require.Equal(t, PhaseFinished, s.Phase)
	require.NotNil(t, s.Game.Winner)
	sum := [2]int{}
	for _, res := range s.Game.History {
		sum[0] += res.Scores[0]
		sum[1] += res.Scores[1]
	}
	assert.Equal(t, s.Game.Scores, sum)
	assert.GreaterOrEqual(t, s.Game.Scores[*s.Game.Winner], 400)

	require.ErrorIs(t, r.Start(ctx), engine.ErrWrongPhase)
	assert.Equal(t, s.Seq, snapshot(t, r).Seq)

	require.NoError(t, r.Restart(ctx))
	again := snapshot(t, r)
	assert.Equal(t, PhaseFinished, again.Phase)
	assert.NotEqual(t, s.Game.Seed, again.Game.Seed)
}

type collectSink struct {
	mu   sync.Mutex
	envs []Envelope
}

func (c *collectSink) Observe(code string, env Envelope) {
	c.mu.Lock()
	c.envs = append(c.envs, env)
	c.mu.Unlock()
}

func (c *collectSink) all() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.envs...)
}

func TestSinksSeeEveryEnvelopeInOrder(t *testing.T) {
	ctx := context.Background()
	sink := &collectSink{}
	opts := testOptions()
	opts.Rules = engine.CoinchePreset()
	opts.Rules.WinScore = 400
	opts.Sinks = []Sink{sink}
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	for i := 0; i < engine.NumSeats; i++ {
		_, err = r.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	require.NoError(t, r.Start(ctx))
	s := snapshot(t, r)
	require.Equal(t, PhaseFinished, s.Phase)

	require.Eventually(t, func() bool { return uint64(len(sink.all())) == s.Seq }, 2*time.Second, 5*time.Millisecond)
	for i, env := range sink.all() {
		require.Equal(t, uint64(i+1), env.Event.Seq)
	}
	last := sink.all()[s.Seq-1]
	assert.Equal(t, EventSystemMessage, last.Event.Type)
	assert.Equal(t, PhaseFinished, last.Snapshot.Phase)
}

func TestRestartNeedsFinishedGame(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	require.ErrorIs(t, r.Restart(ctx), engine.ErrWrongPhase)
	require.ErrorIs(t, r.Start(ctx), ErrAlreadyInProgress)
}

func TestDisconnectHandsSeatToBot(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.Rules = engine.CoinchePreset()
	opts.Rules.WinScore = 300
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, sub.Snapshot.Seats[engine.SeatSouth].Connected)

	sub.Close()
	_, open := <-sub.C
	assert.False(t, open)

	s := snapshot(t, r)
	assert.True(t, s.Seats[engine.SeatSouth].TakenOver)
	assert.False(t, s.Seats[engine.SeatSouth].Connected)
	// Nobody is left to wait for, so the bots finish the game.
	assert.Equal(t, PhaseFinished, s.Phase)

	back, err := r.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer back.Close()
	assert.False(t, back.Snapshot.Seats[engine.SeatSouth].TakenOver)
	assert.True(t, back.Snapshot.Seats[engine.SeatSouth].Connected)
}

func TestTakeoverEndsOnReconnect(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.BotDelay = time.Hour
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "alice")
	require.NoError(t, err)
	sub.Close()
	assert.True(t, snapshot(t, r).Seats[engine.SeatSouth].TakenOver)

	back, err := r.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer back.Close()
	s := snapshot(t, r)
	assert.False(t, s.Seats[engine.SeatSouth].TakenOver)
	// The paced takeover move was dropped, so alice still has to speak.
	assert.Equal(t, 0, s.Game.Moves)
	require.NoError(t, r.SubmitBid(ctx, "alice", "", engine.Pass()))
}

func TestBotDelayPacesMoves(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.BotDelay = 200 * time.Millisecond
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, r.SubmitBid(ctx, "alice", "", engine.Pass()))
	assert.Equal(t, 1, snapshot(t, r).Game.Moves)

	require.Eventually(t, func() bool {
		s, err := r.Snapshot(ctx)
		return err == nil && s.Game.Moves >= 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestTurnTimeoutPasses(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.TurnTimeout = 20 * time.Millisecond
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = r.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = r.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	sub, err := r.Subscribe(ctx, "")
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, r.Start(ctx))

	sawTimeout := false
	for {
		env := next(t, sub)
		if env.Event.Type == EventSystemMessage && strings.Contains(env.Event.Text, "ran out of time") {
			sawTimeout = true
		}
		if env.Event.Type == EventBidSubmitted {
			require.True(t, sawTimeout)
			assert.Equal(t, engine.SeatSouth, env.Event.Seat)
			assert.Equal(t, engine.ActionPass, env.Event.Action.Type)
			return
		}
	}
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.ChatBurst = 2
	opts.ChatPerSecond = 0.001
	opts.ChatMaxLength = 10
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = r.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, r.SendChat(ctx, "alice", " hello "))
	env := next(t, sub)
	assert.Equal(t, EventChatMessage, env.Event.Type)
	assert.Equal(t, "hello", env.Event.Text)
	assert.Equal(t, "alice", env.Event.From)

	require.ErrorIs(t, r.SendChat(ctx, "alice", "   "), ErrChatRejected)
	require.ErrorIs(t, r.SendChat(ctx, "alice", "far too long for this"), ErrChatRejected)
	require.ErrorIs(t, r.SendChat(ctx, "bob", "hi"), ErrNotSeated)

	require.NoError(t, r.SendChat(ctx, "alice", "again"))
	err = r.SendChat(ctx, "alice", "spam")
	require.ErrorIs(t, err, ErrChatRejected)
	assert.Equal(t, "chat_rejected", Code(err))
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = r.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, r.Leave(ctx, "alice"))
	assert.False(t, snapshot(t, r).Seats[engine.SeatSouth].Occupied())
	require.ErrorIs(t, r.Leave(ctx, "alice"), ErrNotSeated)

	solo, err := reg.CreateSoloGame(ctx, "bob", "Bob")
	require.NoError(t, err)
	require.ErrorIs(t, solo.Leave(ctx, "bob"), ErrAlreadyInProgress)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.SubscriberBuffer = 1
	opts.ChatBurst = 10
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = r.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.SendChat(ctx, "alice", "hi"))
	}
	_, ok := <-sub.C
	assert.True(t, ok)
	_, ok = <-sub.C
	assert.False(t, ok, "expected the lagging subscription to be closed")
}

func TestIdleRoomIsTornDown(t *testing.T) {
	opts := testOptions()
	opts.IdleTimeout = 20 * time.Millisecond
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "room was not torn down")
	}
	require.Eventually(t, func() bool {
		_, err := reg.Get(r.Code())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = r.Snapshot(context.Background())
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSubscribedRoomStaysAlive(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.IdleTimeout = 20 * time.Millisecond
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	sub, err := r.Subscribe(ctx, "")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	_, err = reg.Get(r.Code())
	require.NoError(t, err)
	sub.Close()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "room was not torn down after the last subscriber left")
	}
}

func TestCommandsKeepRoomAlive(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.IdleTimeout = 150 * time.Millisecond
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	r, err := reg.CreateSoloGame(ctx, "alice", "Alice")
	require.NoError(t, err)
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := r.Snapshot(ctx)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	_, err = reg.Get(r.Code())
	require.NoError(t, err)

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "room was not torn down once commands stopped")
	}
}

func TestActionIDsArePerPlayer(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(testOptions())
	defer reg.Shutdown()

	r, err := reg.CreateRoom()
	require.NoError(t, err)
	_, err = r.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
	as, err := r.Join(ctx, "bob", "Bob")
	require.NoError(t, err)
	require.Equal(t, engine.SeatWest, as.Seat)
	for i := 0; i < 2; i++ {
		_, err = r.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	require.NoError(t, r.Start(ctx))

	require.NoError(t, r.SubmitBid(ctx, "alice", "x", engine.Pass()))
	require.NoError(t, r.SubmitBid(ctx, "bob", "x", engine.Take(engine.SuitHearts)))

	s := snapshot(t, r)
	require.NotNil(t, s.Game.Round.Contract)
	assert.Equal(t, engine.SeatWest, s.Game.Round.Contract.Taker)
	assert.Equal(t, engine.SuitHearts, s.Game.Round.Contract.Trump)
}

type panicBot struct{}

func (panicBot) ChooseAction(engine.GameState, engine.Seat) engine.Action {
	panic("broken bot")
}

func TestPanicClosesOnlyThatRoom(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.NewBot = func(int64) bots.Bot { return panicBot{} }
	reg := NewRegistry(opts)
	defer reg.Shutdown()

	healthy, err := reg.CreateRoom()
	require.NoError(t, err)
	broken, err := reg.CreateRoom()
	require.NoError(t, err)
	for i := 0; i < engine.NumSeats; i++ {
		_, err = broken.AddBot(ctx, engine.SeatNone)
		require.NoError(t, err)
	}
	require.NoError(t, broken.Start(ctx))

	select {
	case <-broken.Done():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "broken room still running")
	}
	require.Eventually(t, func() bool {
		_, err := reg.Get(broken.Code())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = healthy.Join(ctx, "alice", "Alice")
	require.NoError(t, err)
}
