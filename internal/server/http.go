package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/room"
)

var restLogger = logging.GetZeroLogger("server::rest", nil)

// PlayerHeader carries the caller's player id on REST calls. Websocket
// clients pass it as the "player" query parameter instead.
const PlayerHeader = "X-Player-ID"

type Server struct {
	reg       *room.Registry
	router    *gin.Engine
	staticDir string
}

// New builds the HTTP surface over reg. staticDir holds the web client
// build; an empty value serves no static files.
func New(reg *room.Registry, staticDir string) *Server {
	s := &Server{
		reg:       reg,
		router:    gin.New(),
		staticDir: staticDir,
	}
	s.router.Use(gin.Recovery(), requestLogger())

	s.router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws/:code", s.handleWS)

	api := s.router.Group("/api")
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:code", s.getRoom)
	api.POST("/rooms/:code/join", s.joinRoom)
	api.POST("/rooms/:code/leave", s.leaveRoom)
	api.POST("/rooms/:code/bots", s.addBot)
	api.POST("/rooms/:code/start", s.startGame)
	api.POST("/rooms/:code/restart", s.restartGame)
	api.POST("/rooms/:code/actions", s.act)
	api.POST("/solo", s.createSolo)

	if staticDir != "" {
		s.router.NoRoute(s.serveStatic)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		restLogger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("Request")
	}
}

type roomResponse struct {
	Code string `json:"code"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	Code        string `json:"code"`
	PlayerID    string `json:"playerId"`
	Seat        string `json:"seat"`
	Reconnected bool   `json:"reconnected,omitempty"`
}

type botRequest struct {
	Seat string `json:"seat"`
}

type botResponse struct {
	Seat string `json:"seat"`
}

func (s *Server) createRoom(c *gin.Context) {
	r, err := s.reg.CreateRoom()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, roomResponse{Code: r.Code()})
}

func (s *Server) getRoom(c *gin.Context) {
	r, err := s.reg.Get(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := r.Snapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	seat, _ := snap.SeatOf(c.GetHeader(PlayerHeader))
	c.JSON(http.StatusOK, BuildGameView(snap, seat))
}

func (s *Server) joinRoom(c *gin.Context) {
	var req joinRequest
	if err := bindOptional(c, &req); err != nil {
		s.badRequest(c, err)
		return
	}
	playerID := playerIDFrom(c)
	name := req.Name
	if name == "" {
		name = "Player"
	}
	code := room.NormalizeCode(c.Param("code"))
	as, err := s.reg.JoinRoom(c.Request.Context(), code, playerID, name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, joinResponse{
		Code:        code,
		PlayerID:    playerID,
		Seat:        as.Seat.String(),
		Reconnected: as.Reconnected,
	})
}

func (s *Server) leaveRoom(c *gin.Context) {
	r, err := s.reg.Get(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := r.Leave(c.Request.Context(), c.GetHeader(PlayerHeader)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addBot(c *gin.Context) {
	// An empty body asks for the first free seat.
	var req botRequest
	if err := bindOptional(c, &req); err != nil {
		s.badRequest(c, err)
		return
	}
	seat, err := parseSeat(req.Seat)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	got, err := s.reg.AddBot(c.Request.Context(), c.Param("code"), seat)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, botResponse{Seat: got.String()})
}

type actionRequest struct {
	ActionID string     `json:"actionId"`
	Action   *ActionDTO `json:"action"`
}

// act is the polling client's way to bid or play; socket clients send the
// same moves as messages.
func (s *Server) act(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	a, err := req.Action.ToEngine()
	if err != nil {
		s.badRequest(c, err)
		return
	}
	r, err := s.reg.Get(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := r.Act(c.Request.Context(), c.GetHeader(PlayerHeader), req.ActionID, a); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) startGame(c *gin.Context) {
	if err := s.reg.StartGame(c.Request.Context(), c.Param("code")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) restartGame(c *gin.Context) {
	if err := s.reg.Restart(c.Request.Context(), c.Param("code")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createSolo(c *gin.Context) {
	var req joinRequest
	if err := bindOptional(c, &req); err != nil {
		s.badRequest(c, err)
		return
	}
	playerID := playerIDFrom(c)
	name := req.Name
	if name == "" {
		name = "Player"
	}
	r, err := s.reg.CreateSoloGame(c.Request.Context(), playerID, name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, joinResponse{
		Code:     r.Code(),
		PlayerID: playerID,
		Seat:     engine.SeatSouth.String(),
	})
}

func (s *Server) handleWS(c *gin.Context) {
	r, err := s.reg.Get(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wsLogger.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	newSession(r, conn, c.Query("player")).serve()
}

func (s *Server) serveStatic(c *gin.Context) {
	path := filepath.Join(s.staticDir, filepath.Clean(c.Request.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.File(path)
		return
	}
	c.File(filepath.Join(s.staticDir, "index.html"))
}

func bindOptional(c *gin.Context, v interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}

func playerIDFrom(c *gin.Context) string {
	if id := c.GetHeader(PlayerHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorView{Code: "bad_request", Message: err.Error()})
}

func (s *Server) fail(c *gin.Context, err error) {
	view := errorView(err)
	status := httpStatus(view.Code)
	if status >= http.StatusInternalServerError {
		restLogger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, view)
}

func httpStatus(code string) int {
	switch code {
	case "room_not_found":
		return http.StatusNotFound
	case "room_full", "seat_occupied", "already_in_progress", "not_enough_players", "wrong_phase":
		return http.StatusConflict
	case "invalid_seat", "illegal_bid", "illegal_card", "chat_rejected", "bad_request":
		return http.StatusBadRequest
	case "not_seated", "not_your_turn":
		return http.StatusForbidden
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Shutdown closes every room, giving up waiting once ctx is done.
func (s *Server) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.reg.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		restLogger.Warn().Msg("Room shutdown did not finish in time")
	}
}
