package server

import (
	"github.com/pkg/errors"

	"github.com/christophecraig/coinchette/internal/engine"
)

var errBadAction = errors.New("bad action")

type CardDTO struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

type ActionDTO struct {
	Type    string   `json:"type"`
	Suit    string   `json:"suit,omitempty"`
	Card    *CardDTO `json:"card,omitempty"`
	Declare bool     `json:"declare,omitempty"`
}

func (a *ActionDTO) ToEngine() (engine.Action, error) {
	if a == nil {
		return engine.Action{}, errors.Wrap(errBadAction, "action missing")
	}
	switch a.Type {
	case "pass":
		return engine.Pass(), nil
	case "take":
		s, err := parseSuit(a.Suit)
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Take(s), nil
	case "play_card":
		if a.Card == nil {
			return engine.Action{}, errors.Wrap(errBadAction, "card required")
		}
		card, err := a.Card.toEngine()
		if err != nil {
			return engine.Action{}, err
		}
		act := engine.PlayCard(card)
		act.Declare = a.Declare
		return act, nil
	default:
		return engine.Action{}, errors.Wrapf(errBadAction, "unknown action type %q", a.Type)
	}
}

func ActionFromEngine(a engine.Action) ActionDTO {
	switch a.Type {
	case engine.ActionPass:
		return ActionDTO{Type: "pass"}
	case engine.ActionTake:
		if a.Suit == nil {
			return ActionDTO{Type: "take"}
		}
		return ActionDTO{Type: "take", Suit: suitToString(*a.Suit)}
	case engine.ActionPlayCard:
		if a.Card == nil {
			return ActionDTO{Type: "play_card"}
		}
		return ActionDTO{Type: "play_card", Card: cardToDTO(*a.Card), Declare: a.Declare}
	default:
		return ActionDTO{Type: "unknown"}
	}
}

func (c CardDTO) toEngine() (engine.Card, error) {
	s, err := parseSuit(c.Suit)
	if err != nil {
		return engine.Card{}, err
	}
	r, err := parseRank(c.Rank)
	if err != nil {
		return engine.Card{}, err
	}
	return engine.Card{Suit: s, Rank: r}, nil
}

func cardToDTO(c engine.Card) *CardDTO {
	return &CardDTO{Suit: suitToString(c.Suit), Rank: rankToString(c.Rank)}
}

func cardsToDTO(cards []engine.Card) []CardDTO {
	out := make([]CardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, *cardToDTO(c))
	}
	return out
}

func parseSuit(s string) (engine.Suit, error) {
	switch s {
	case "C":
		return engine.SuitClubs, nil
	case "D":
		return engine.SuitDiamonds, nil
	case "H":
		return engine.SuitHearts, nil
	case "S":
		return engine.SuitSpades, nil
	default:
		return engine.SuitClubs, errors.Wrapf(errBadAction, "invalid suit %q", s)
	}
}

func parseRank(r string) (engine.Rank, error) {
	for _, rank := range engine.Ranks {
		if rank.String() == r {
			return rank, nil
		}
	}
	return engine.Rank7, errors.Wrapf(errBadAction, "invalid rank %q", r)
}

func parseSeat(s string) (engine.Seat, error) {
	if s == "" {
		return engine.SeatNone, nil
	}
	for i := 0; i < engine.NumSeats; i++ {
		if engine.Seat(i).String() == s {
			return engine.Seat(i), nil
		}
	}
	return engine.SeatNone, errors.Wrapf(errBadAction, "invalid seat %q", s)
}

func suitToString(s engine.Suit) string {
	return s.String()
}

func rankToString(r engine.Rank) string {
	return r.String()
}

func seatToString(s engine.Seat) string {
	if !s.Valid() {
		return ""
	}
	return s.String()
}
