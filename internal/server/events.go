package server

import (
	"github.com/christophecraig/coinchette/internal/room"
)

type Event struct {
	Type string       `json:"type"`
	Seq  uint64       `json:"seq"`
	Data EventPayload `json:"data"`
}

type EventPayload struct {
	Seat     string        `json:"seat,omitempty"`
	Action   *ActionDTO    `json:"action,omitempty"`
	Contract *ContractView `json:"contract,omitempty"`
	Trick    *TrickView    `json:"trick,omitempty"`
	Result   *RoundView    `json:"result,omitempty"`
	Winner   string        `json:"winner,omitempty"`
	Scores   *[2]int       `json:"scores,omitempty"`
	From     string        `json:"from,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// buildEvent converts a room event for the wire. The seed of a new game is
// left out so clients cannot rebuild the deal.
func buildEvent(ev room.Event) Event {
	p := EventPayload{
		Seat: seatToString(ev.Seat),
		From: ev.From,
		Text: ev.Text,
	}
	if ev.Action != nil {
		a := ActionFromEngine(*ev.Action)
		p.Action = &a
	}
	if ev.Contract != nil {
		c := contractView(*ev.Contract)
		p.Contract = &c
	}
	if ev.Trick != nil {
		t := trickView(*ev.Trick)
		p.Trick = &t
	}
	if ev.Result != nil {
		r := roundView(*ev.Result)
		p.Result = &r
	}
	if ev.Winner != nil {
		p.Winner = ev.Winner.String()
	}
	switch ev.Type {
	case room.EventRoundScored, room.EventGameFinished:
		scores := ev.Scores
		p.Scores = &scores
	}
	return Event{Type: string(ev.Type), Seq: ev.Seq, Data: p}
}
