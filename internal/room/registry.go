package room

import (
	"context"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/metrics"
)

var registryLogger = logging.GetZeroLogger("room::registry", nil)

// maxCodeAttempts bounds the retries when a fresh code is already live.
const maxCodeAttempts = 16

// Registry holds the live rooms by code. A code stays reserved until its
// room is torn down.
type Registry struct {
	rooms cmap.ConcurrentMap
	opts  Options
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		rooms: cmap.New(),
		opts:  opts.withDefaults(),
	}
}

func (g *Registry) CreateRoom() (*Room, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := g.opts.codeGen(g.opts.CodeLength)
		if err != nil {
			return nil, errors.Wrap(err, "room code")
		}
		r, err := newRoom(code, g.opts, g.release)
		if err != nil {
			return nil, err
		}
		if !g.rooms.SetIfAbsent(code, r) {
			registryLogger.Debug().Str("room", code).Msg("Room code collision, retrying")
			continue
		}
		r.start()
		metrics.Metrics.RoomCreated()
		metrics.Metrics.SetActiveRooms(g.rooms.Count())
		registryLogger.Info().Str("room", code).Msg("Room created")
		return r, nil
	}
	return nil, errors.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

func (g *Registry) release(code string, reason string) {
	g.rooms.Remove(code)
	metrics.Metrics.RoomClosed(reason)
	metrics.Metrics.SetActiveRooms(g.rooms.Count())
}

func (g *Registry) Get(code string) (*Room, error) {
	v, ok := g.rooms.Get(NormalizeCode(code))
	if !ok {
		return nil, errors.Wrapf(ErrRoomNotFound, "code %q", code)
	}
	return v.(*Room), nil
}

func (g *Registry) Count() int {
	return g.rooms.Count()
}

func (g *Registry) JoinRoom(ctx context.Context, code, playerID, name string) (SeatAssignment, error) {
	r, err := g.Get(code)
	if err != nil {
		return SeatAssignment{}, err
	}
	return r.Join(ctx, playerID, name)
}

func (g *Registry) AddBot(ctx context.Context, code string, seat engine.Seat) (engine.Seat, error) {
	r, err := g.Get(code)
	if err != nil {
		return engine.SeatNone, err
	}
	return r.AddBot(ctx, seat)
}

func (g *Registry) StartGame(ctx context.Context, code string) error {
	r, err := g.Get(code)
	if err != nil {
		return err
	}
	return r.Start(ctx)
}

func (g *Registry) Restart(ctx context.Context, code string) error {
	r, err := g.Get(code)
	if err != nil {
		return err
	}
	return r.Restart(ctx)
}

// CreateSoloGame opens a room with playerID in the first seat and bots in
// the other three, and starts it.
func (g *Registry) CreateSoloGame(ctx context.Context, playerID, name string) (*Room, error) {
	r, err := g.CreateRoom()
	if err != nil {
		return nil, err
	}
	if _, err := r.Join(ctx, playerID, name); err != nil {
		r.Close()
		return nil, err
	}
	for i := 1; i < engine.NumSeats; i++ {
		if _, err := r.AddBot(ctx, engine.SeatNone); err != nil {
			r.Close()
			return nil, err
		}
	}
	if err := r.Start(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Shutdown closes every live room.
func (g *Registry) Shutdown() {
	for _, v := range g.rooms.Items() {
		v.(*Room).Close()
	}
}
