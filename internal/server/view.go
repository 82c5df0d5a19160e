package server

import (
	"github.com/christophecraig/coinchette/internal/engine"
	"github.com/christophecraig/coinchette/internal/room"
)

type SeatView struct {
	Seat      string `json:"seat"`
	Team      string `json:"team"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Connected bool   `json:"connected"`
	TakenOver bool   `json:"takenOver,omitempty"`
	HandCount int    `json:"handCount"`
}

type BidView struct {
	Seat string `json:"seat"`
	Take bool   `json:"take"`
	Suit string `json:"suit,omitempty"`
}

type ContractView struct {
	Taker string `json:"taker"`
	Team  string `json:"team"`
	Trump string `json:"trump"`
}

type PlayView struct {
	Seat string  `json:"seat"`
	Card CardDTO `json:"card"`
}

type TrickView struct {
	Plays  []PlayView `json:"plays"`
	Winner string     `json:"winner"`
	Points int        `json:"points"`
}

type RoundView struct {
	Round      int          `json:"round"`
	Contract   ContractView `json:"contract"`
	CardPoints [2]int       `json:"cardPoints"`
	Belote     [2]int       `json:"belote"`
	Fulfilled  bool         `json:"fulfilled"`
	Capot      bool         `json:"capot"`
	Scores     [2]int       `json:"scores"`
}

type RulesView struct {
	WinScore       int    `json:"winScore"`
	MaxRounds      int    `json:"maxRounds,omitempty"`
	ContractTarget int    `json:"contractTarget"`
	AllowRaises    bool   `json:"allowRaises"`
	TieBreak       string `json:"tieBreak"`
}

// GameView is what one viewer may see of a room. Only the viewer's own hand
// is included.
type GameView struct {
	Code         string        `json:"code"`
	Phase        string        `json:"phase"`
	Seq          uint64        `json:"seq"`
	You          string        `json:"you,omitempty"`
	Seats        []SeatView    `json:"seats"`
	Hand         []CardDTO     `json:"hand,omitempty"`
	Dealer       string        `json:"dealer,omitempty"`
	Turn         string        `json:"turn,omitempty"`
	Bids         []BidView     `json:"bids,omitempty"`
	Contract     *ContractView `json:"contract,omitempty"`
	Trick        []PlayView    `json:"trick,omitempty"`
	LastTrick    *TrickView    `json:"lastTrick,omitempty"`
	TricksWon    [2]int        `json:"tricksWon"`
	Scores       [2]int        `json:"scores"`
	History      []RoundView   `json:"history,omitempty"`
	Winner       string        `json:"winner,omitempty"`
	Rules        *RulesView    `json:"rules,omitempty"`
	LegalActions []ActionDTO   `json:"legalActions"`
	Playable     []CardDTO     `json:"playable,omitempty"`
}

// BuildGameView renders s for viewer. Pass engine.SeatNone for a spectator.
func BuildGameView(s room.Snapshot, viewer engine.Seat) *GameView {
	v := &GameView{
		Code:         s.Code,
		Phase:        string(s.Phase),
		Seq:          s.Seq,
		You:          seatToString(viewer),
		LegalActions: []ActionDTO{},
	}
	for i, p := range s.Seats {
		seat := engine.Seat(i)
		sv := SeatView{
			Seat:      seat.String(),
			Team:      seat.Team().String(),
			Name:      p.Name,
			Kind:      string(p.Kind),
			Connected: p.Connected,
			TakenOver: p.TakenOver,
		}
		if s.Game != nil {
			sv.HandCount = len(s.Game.Hand(seat))
		}
		v.Seats = append(v.Seats, sv)
	}

	g := s.Game
	if g == nil {
		return v
	}
	v.Rules = &RulesView{
		WinScore:       g.Rules.WinScore,
		MaxRounds:      g.Rules.MaxRounds,
		ContractTarget: g.Rules.ContractTarget,
		AllowRaises:    g.Rules.AllowRaises,
		TieBreak:       string(g.Rules.TieBreak),
	}
	v.Scores = g.Scores
	v.Dealer = seatToString(g.Round.Dealer)
	v.Turn = seatToString(g.Round.Turn)
	if g.Winner != nil {
		v.Winner = g.Winner.String()
	}
	if viewer.Valid() {
		v.Hand = cardsToDTO(g.Hand(viewer))
	}
	for _, b := range g.Round.Bids {
		bv := BidView{Seat: b.Seat.String(), Take: b.Take}
		if b.Suit != nil {
			bv.Suit = suitToString(*b.Suit)
		}
		v.Bids = append(v.Bids, bv)
	}
	if c := g.Round.Contract; c != nil {
		cv := contractView(*c)
		v.Contract = &cv
	}
	for _, p := range g.Round.Trick {
		v.Trick = append(v.Trick, PlayView{Seat: p.Seat.String(), Card: *cardToDTO(p.Card)})
	}
	if n := len(g.Round.Tricks); n > 0 {
		tv := trickView(g.Round.Tricks[n-1])
		v.LastTrick = &tv
		for _, t := range g.Round.Tricks {
			v.TricksWon[t.Winner.Team()]++
		}
	}
	for _, res := range g.History {
		v.History = append(v.History, roundView(res))
	}

	if s.Phase == room.PhaseBidding || s.Phase == room.PhasePlaying {
		for _, a := range engine.LegalActions(*g, viewer) {
			v.LegalActions = append(v.LegalActions, ActionFromEngine(a))
		}
		if g.Round.Phase == engine.PhasePlaying && g.Round.Turn == viewer {
			v.Playable = cardsToDTO(engine.PlayableCards(*g, viewer))
		}
	}
	return v
}

func contractView(c engine.Contract) ContractView {
	return ContractView{
		Taker: c.Taker.String(),
		Team:  c.Team.String(),
		Trump: suitToString(c.Trump),
	}
}

func trickView(t engine.Trick) TrickView {
	tv := TrickView{Winner: t.Winner.String(), Points: t.Points}
	for _, p := range t.Plays {
		tv.Plays = append(tv.Plays, PlayView{Seat: p.Seat.String(), Card: *cardToDTO(p.Card)})
	}
	return tv
}

func roundView(res engine.RoundResult) RoundView {
	return RoundView{
		Round:      res.Round,
		Contract:   contractView(res.Contract),
		CardPoints: res.CardPoints,
		Belote:     res.Belote,
		Fulfilled:  res.Fulfilled,
		Capot:      res.Capot,
		Scores:     res.Scores,
	}
}
