package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

type ActionType int

const (
	ActionPass ActionType = iota
	ActionTake
	ActionPlayCard
)

func (t ActionType) String() string {
	switch t {
	case ActionPass:
		return "pass"
	case ActionTake:
		return "take"
	case ActionPlayCard:
		return "play_card"
	default:
		return "unknown"
	}
}

type Action struct {
	Type ActionType
	Suit *Suit
	Card *Card
	// Declare announces Belote or Rebelote with the card being played.
	Declare bool
}

func (a Action) String() string {
	switch a.Type {
	case ActionTake:
		if a.Suit == nil {
			return "take ?"
		}
		return "take " + a.Suit.String()
	case ActionPlayCard:
		if a.Card == nil {
			return "play ?"
		}
		if a.Declare {
			return "play " + a.Card.String() + " (belote)"
		}
		return "play " + a.Card.String()
	default:
		return a.Type.String()
	}
}

func Pass() Action {
	return Action{Type: ActionPass}
}

func Take(s Suit) Action {
	return Action{Type: ActionTake, Suit: suitPtr(s)}
}

func PlayCard(c Card) Action {
	return Action{Type: ActionPlayCard, Card: &c}
}

func LegalActions(g GameState, seat Seat) []Action {
	// Ordering is deterministic: pass before takes by suit tier, cards in hand order.
	switch g.Round.Phase {
	case PhaseBidding:
		return legalBids(g, seat)
	case PhasePlaying:
		return legalPlays(g, seat)
	default:
		return nil
	}
}

// CurrentPlayer returns the seat expected to act in the current phase.
func CurrentPlayer(g GameState) (Seat, bool) {
	switch g.Round.Phase {
	case PhaseBidding, PhasePlaying:
		if g.Round.Turn.Valid() {
			return g.Round.Turn, true
		}
		return SeatNone, false
	default:
		return SeatNone, false
	}
}

// ApplyAction validates a and applies it for seat. On error g is unchanged.
func ApplyAction(g *GameState, seat Seat, a Action) error {
	if !seat.Valid() {
		return errors.Wrapf(ErrNotYourTurn, "invalid seat %d", seat)
	}
	switch g.Round.Phase {
	case PhaseBidding:
		return applyBid(g, seat, a)
	case PhasePlaying:
		return applyPlay(g, seat, a)
	default:
		return errors.Wrapf(ErrWrongPhase, "no action accepted during %s", g.Round.Phase)
	}
}

func applyBid(g *GameState, seat Seat, a Action) error {
	if a.Type != ActionTake && a.Type != ActionPass {
		return errors.Wrap(ErrWrongPhase, "cards cannot be played during bidding")
	}
	if seat != g.Round.Turn {
		return errors.Wrapf(ErrNotYourTurn, "%s to bid", g.Round.Turn)
	}
	if a.Type == ActionTake {
		if err := validateTake(g, a); err != nil {
			return err
		}
	}

	bid := Bid{Seat: seat, Take: a.Type == ActionTake}
	if bid.Take {
		bid.Suit = suitPtr(*a.Suit)
	}
	g.Round.Bids = append(g.Round.Bids, bid)
	g.Moves++

	best := bestTake(g.Round.Bids)
	if bid.Take && !g.Rules.AllowRaises {
		openPlay(g, best)
		return nil
	}
	passes := trailingPasses(g.Round.Bids)
	if best == nil && passes == NumSeats {
		// All passed, redeal with the next dealer.
		g.Voids++
		g.Round.Dealer = g.Round.Dealer.Next()
		g.ResetRound()
		return nil
	}
	if best != nil && passes == NumSeats-1 {
		openPlay(g, best)
		return nil
	}
	g.Round.Turn = seat.Next()
	return nil
}

func validateTake(g *GameState, a Action) error {
	if a.Suit == nil {
		return errors.Wrap(ErrIllegalBid, "trump suit must be declared")
	}
	if *a.Suit < SuitClubs || *a.Suit > SuitSpades {
		return errors.Wrapf(ErrIllegalBid, "unknown suit %d", *a.Suit)
	}
	if best := bestTake(g.Round.Bids); best != nil && *a.Suit <= *best.Suit {
		return errors.Wrapf(ErrIllegalBid, "%s does not raise %s", a.Suit.Symbol(), best.Suit.Symbol())
	}
	return nil
}

func openPlay(g *GameState, take *Bid) {
	g.Round.Contract = &Contract{
		Taker: take.Seat,
		Team:  take.Seat.Team(),
		Trump: *take.Suit,
	}
	g.Round.Phase = PhasePlaying
	g.Round.Trick = nil
	g.Round.Turn = g.Round.Leader
}

func applyPlay(g *GameState, seat Seat, a Action) error {
	if a.Type != ActionPlayCard {
		return errors.Wrap(ErrWrongPhase, "bidding is closed")
	}
	if a.Card == nil {
		return errors.Wrap(ErrIllegalCard, "card required")
	}
	if seat != g.Round.Turn {
		return errors.Wrapf(ErrNotYourTurn, "%s to play", g.Round.Turn)
	}
	card := *a.Card
	trump := g.Round.Contract.Trump
	hand := g.Players[seat].Hand
	if !containsCard(hand, card) {
		return errors.Wrapf(ErrIllegalCard, "%s not in hand", card)
	}
	if !containsCard(LegalCards(seat, hand, g.Round.Trick, trump), card) {
		return errors.Wrapf(ErrIllegalCard, "%s is not playable", card)
	}
	eligible := beloteEligible(*g, seat, card)
	if a.Declare && !eligible {
		return errors.Wrapf(ErrIllegalCard, "belote cannot be declared with %s", card)
	}

	if eligible {
		switch {
		case !a.Declare:
			g.Round.Belote[seat] = BeloteForfeited
		case g.Round.Belote[seat] == BeloteNone:
			g.Round.Belote[seat] = BeloteAnnounced
		default:
			g.Round.Belote[seat] = BeloteDone
		}
	}
	removeCard(&g.Players[seat].Hand, card)
	g.Round.Trick = append(g.Round.Trick, Play{Seat: seat, Card: card})
	g.Moves++

	if len(g.Round.Trick) < NumSeats {
		g.Round.Turn = seat.Next()
		return nil
	}

	winner := TrickWinner(g.Round.Trick, trump)
	g.Round.Tricks = append(g.Round.Tricks, Trick{
		Plays:  g.Round.Trick,
		Winner: winner,
		Points: TrickPoints(g.Round.Trick, trump),
	})
	g.Round.Trick = nil
	g.Round.Leader = winner
	g.Round.Turn = winner
	if len(g.Round.Tricks) == Tricks {
		scoreRound(g)
	}
	return nil
}

func beloteEligible(g GameState, seat Seat, card Card) bool {
	if g.Round.Contract == nil || !isBeloteCard(card, g.Round.Contract.Trump) {
		return false
	}
	switch g.Round.Belote[seat] {
	case BeloteNone:
		return holdsBelote(g.Players[seat].Hand, g.Round.Contract.Trump)
	case BeloteAnnounced:
		return true
	default:
		return false
	}
}

func legalBids(g GameState, seat Seat) []Action {
	if seat != g.Round.Turn {
		return nil
	}
	out := []Action{Pass()}
	best := bestTake(g.Round.Bids)
	for _, s := range Suits {
		if best != nil && s <= *best.Suit {
			continue
		}
		out = append(out, Take(s))
	}
	return out
}

func legalPlays(g GameState, seat Seat) []Action {
	if seat != g.Round.Turn || g.Round.Contract == nil {
		return nil
	}
	hand := g.Players[seat].Hand
	if len(hand) == 0 {
		return nil
	}
	cards := LegalCards(seat, hand, g.Round.Trick, g.Round.Contract.Trump)
	out := make([]Action, 0, len(cards))
	for i := range cards {
		c := cards[i]
		out = append(out, Action{Type: ActionPlayCard, Card: &c})
		if beloteEligible(g, seat, c) {
			out = append(out, Action{Type: ActionPlayCard, Card: &c, Declare: true})
		}
	}
	return out
}

// PlayableCards is the set a client highlights for the seat to move.
func PlayableCards(g GameState, seat Seat) []Card {
	if g.Round.Phase != PhasePlaying || seat != g.Round.Turn || g.Round.Contract == nil {
		return nil
	}
	return LegalCards(seat, g.Players[seat].Hand, g.Round.Trick, g.Round.Contract.Trump)
}

func bestTake(bids []Bid) *Bid {
	var best *Bid
	for i := range bids {
		if bids[i].Take {
			best = &bids[i]
		}
	}
	return best
}

func trailingPasses(bids []Bid) int {
	n := 0
	for i := len(bids) - 1; i >= 0 && !bids[i].Take; i-- {
		n++
	}
	return n
}

func suitPtr(s Suit) *Suit {
	return &s
}

// ActionInList reports whether a matches one of the entries in list.
func ActionInList(a Action, list []Action) bool {
	for _, l := range list {
		if a.Type != l.Type {
			continue
		}
		switch a.Type {
		case ActionPass:
			return true
		case ActionTake:
			if a.Suit != nil && l.Suit != nil && *a.Suit == *l.Suit {
				return true
			}
		case ActionPlayCard:
			if a.Card != nil && l.Card != nil && *a.Card == *l.Card && a.Declare == l.Declare {
				return true
			}
		}
	}
	return false
}

// CheckInvariants verifies that the 32 cards are all accounted for exactly once.
func CheckInvariants(g GameState) error {
	if !g.Round.HandsDealt || (g.Round.Phase != PhaseBidding && g.Round.Phase != PhasePlaying && g.Round.Phase != PhaseScored) {
		return nil
	}
	seen := map[Card]bool{}
	total := 0
	add := func(c Card) error {
		total++
		if seen[c] {
			return fmt.Errorf("duplicate card %s", c)
		}
		seen[c] = true
		return nil
	}
	for _, p := range g.Players {
		for _, c := range p.Hand {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	for _, p := range g.Round.Trick {
		if err := add(p.Card); err != nil {
			return err
		}
	}
	for _, t := range g.Round.Tricks {
		for _, p := range t.Plays {
			if err := add(p.Card); err != nil {
				return err
			}
		}
	}
	if total != DeckSize {
		return fmt.Errorf("card count mismatch: %d", total)
	}
	if len(g.Round.Trick) >= NumSeats {
		return fmt.Errorf("invalid trick size: %d", len(g.Round.Trick))
	}
	if len(g.Round.Tricks) > Tricks {
		return fmt.Errorf("too many tricks: %d", len(g.Round.Tricks))
	}
	return nil
}
