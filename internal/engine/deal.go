package engine

import "math/rand"

const (
	DeckSize = 32
	HandSize = 8
	Tricks   = HandSize
)

// dealPattern is the packet size per pass around the table.
var dealPattern = []int{3, 2, 3}

func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

func Shuffle(deck []Card, seed int64) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DealRound deals eight cards to every seat in 3-2-3 packets starting at the
// dealer's left, and opens the auction. The shuffle is derived from the game
// seed and the number of deals so far, so replays reproduce every hand.
func DealRound(g *GameState) {
	deck := Shuffle(BuildDeck(), g.Seed+int64(g.Deals))
	g.Deals++

	for i := range g.Players {
		g.Players[i].Hand = make([]Card, 0, HandSize)
	}
	idx := 0
	for _, packet := range dealPattern {
		seat := g.Round.Dealer.Next()
		for n := 0; n < NumSeats; n++ {
			g.Players[seat].Hand = append(g.Players[seat].Hand, deck[idx:idx+packet]...)
			idx += packet
			seat = seat.Next()
		}
	}
	if idx != len(deck) {
		panic("invalid deal configuration: does not exhaust deck")
	}

	g.Round.HandsDealt = true
	g.Round.Phase = PhaseBidding
	g.Round.Bids = nil
	g.Round.Contract = nil
	g.Round.Trick = nil
	g.Round.Tricks = nil
	g.Round.Belote = [NumSeats]BeloteState{}
	g.Round.Turn = g.Round.Dealer.Next()
	g.Round.Leader = g.Round.Dealer.Next()
}
