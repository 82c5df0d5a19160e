package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophecraig/coinchette/internal/room"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *room.Registry) {
	t.Helper()
	var n int64
	reg := room.NewRegistry(room.Options{
		Seed: func() int64 { return atomic.AddInt64(&n, 1) },
	})
	t.Cleanup(reg.Shutdown)
	return New(reg, ""), reg
}

func call(t *testing.T, s *Server, method, path, playerID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		data, err := jsoniter.Marshal(body)
		require.NoError(t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if playerID != "" {
		req.Header.Set(PlayerHeader, playerID)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := call(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s, http.MethodPost, "/api/rooms", "", nil)
	w := call(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coinchette_rooms_created_total")
}

func TestRoomLifecycleOverREST(t *testing.T) {
	s, _ := newTestServer(t)

	w := call(t, s, http.MethodPost, "/api/rooms", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created roomResponse
	decodeBody(t, w, &created)
	require.Len(t, created.Code, 6)
	base := "/api/rooms/" + created.Code

	w = call(t, s, http.MethodPost, base+"/join", "alice", joinRequest{Name: "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	var joined joinResponse
	decodeBody(t, w, &joined)
	assert.Equal(t, "alice", joined.PlayerID)
	assert.Equal(t, "South", joined.Seat)
	assert.False(t, joined.Reconnected)

	w = call(t, s, http.MethodPost, base+"/start", "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var ev ErrorView
	decodeBody(t, w, &ev)
	assert.Equal(t, "not_enough_players", ev.Code)

	for _, want := range []string{"West", "North", "East"} {
		w = call(t, s, http.MethodPost, base+"/bots", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var bot botResponse
		decodeBody(t, w, &bot)
		assert.Equal(t, want, bot.Seat)
	}

	w = call(t, s, http.MethodPost, base+"/bots", "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, s, http.MethodPost, base+"/start", "alice", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, s, http.MethodGet, base, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view GameView
	decodeBody(t, w, &view)
	assert.Equal(t, "bidding", view.Phase)
	assert.Equal(t, "South", view.You)
	assert.Equal(t, "South", view.Turn)
	assert.Equal(t, "East", view.Dealer)
	assert.Len(t, view.Hand, 8)
	assert.Len(t, view.LegalActions, 5)
	assert.Equal(t, "pass", view.LegalActions[0].Type)
	for _, seat := range view.Seats {
		assert.Equal(t, 8, seat.HandCount)
	}

	w = call(t, s, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var spectator GameView
	decodeBody(t, w, &spectator)
	assert.Empty(t, spectator.You)
	assert.Empty(t, spectator.Hand)
	assert.Empty(t, spectator.LegalActions)

	w = call(t, s, http.MethodPost, base+"/restart", "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRejoinIsReconnect(t *testing.T) {
	s, _ := newTestServer(t)
	var created roomResponse
	decodeBody(t, call(t, s, http.MethodPost, "/api/rooms", "", nil), &created)

	call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/join", "bob", joinRequest{Name: "Bob"})
	w := call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/join", "bob", joinRequest{Name: "Bob"})
	require.Equal(t, http.StatusOK, w.Code)
	var joined joinResponse
	decodeBody(t, w, &joined)
	assert.True(t, joined.Reconnected)
}

func TestJoinWithoutPlayerIDGetsOne(t *testing.T) {
	s, _ := newTestServer(t)
	var created roomResponse
	decodeBody(t, call(t, s, http.MethodPost, "/api/rooms", "", nil), &created)

	w := call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/join", "", joinRequest{Name: "Carol"})
	require.Equal(t, http.StatusOK, w.Code)
	var joined joinResponse
	decodeBody(t, w, &joined)
	assert.NotEmpty(t, joined.PlayerID)
}

func TestUnknownRoom(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/api/rooms/ZZZZZZ/join", "/api/rooms/ZZZZZZ/start", "/api/rooms/ZZZZZZ/bots"} {
		w := call(t, s, http.MethodPost, path, "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		var ev ErrorView
		decodeBody(t, w, &ev)
		assert.Equal(t, "room_not_found", ev.Code)
	}
}

func TestBadSeat(t *testing.T) {
	s, _ := newTestServer(t)
	var created roomResponse
	decodeBody(t, call(t, s, http.MethodPost, "/api/rooms", "", nil), &created)

	w := call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/bots", "", botRequest{Seat: "Nowhere"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/bots", "", botRequest{Seat: "North"})
	require.Equal(t, http.StatusOK, w.Code)
	w = call(t, s, http.MethodPost, "/api/rooms/"+created.Code+"/bots", "", botRequest{Seat: "North"})
	assert.Equal(t, http.StatusConflict, w.Code)
	var ev ErrorView
	decodeBody(t, w, &ev)
	assert.Equal(t, "seat_occupied", ev.Code)
}

func TestSoloGame(t *testing.T) {
	s, _ := newTestServer(t)
	w := call(t, s, http.MethodPost, "/api/solo", "dana", joinRequest{Name: "Dana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var joined joinResponse
	decodeBody(t, w, &joined)
	assert.Equal(t, "South", joined.Seat)

	w = call(t, s, http.MethodGet, "/api/rooms/"+joined.Code, "dana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view GameView
	decodeBody(t, w, &view)
	assert.Equal(t, "bidding", view.Phase)
	assert.Equal(t, "Dana", view.Seats[0].Name)
	for _, seat := range view.Seats[1:] {
		assert.Equal(t, "bot", seat.Kind)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httpStatus("room_not_found"))
	assert.Equal(t, http.StatusForbidden, httpStatus("not_your_turn"))
	assert.Equal(t, http.StatusGatewayTimeout, httpStatus("timeout"))
	assert.Equal(t, http.StatusInternalServerError, httpStatus("internal"))
}

func TestActionsOverREST(t *testing.T) {
	s, _ := newTestServer(t)
	var joined joinResponse
	decodeBody(t, call(t, s, http.MethodPost, "/api/solo", "erin", joinRequest{Name: "Erin"}), &joined)
	base := "/api/rooms/" + joined.Code

	w := call(t, s, http.MethodPost, base+"/actions", "erin", actionRequest{Action: &ActionDTO{Type: "fold"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, s, http.MethodPost, base+"/actions", "mallory", actionRequest{Action: &ActionDTO{Type: "pass"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	take := actionRequest{ActionID: "t1", Action: &ActionDTO{Type: "take", Suit: "H"}}
	w = call(t, s, http.MethodPost, base+"/actions", "erin", take)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	// A retried action id is acknowledged without being applied twice.
	w = call(t, s, http.MethodPost, base+"/actions", "erin", take)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var view GameView
	decodeBody(t, call(t, s, http.MethodGet, base, "erin", nil), &view)
	assert.Equal(t, "playing", view.Phase)
	require.NotNil(t, view.Contract)
	assert.Equal(t, "H", view.Contract.Trump)
	assert.Equal(t, "South", view.Contract.Taker)
	require.Len(t, view.Bids, 1)
}
