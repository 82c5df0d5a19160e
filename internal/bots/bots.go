package bots

import (
	"math/rand"

	"github.com/christophecraig/coinchette/internal/engine"
)

// Bot picks an action for seat. The returned action is always one of
// engine.LegalActions(state, seat); the engine still re-validates it.
type Bot interface {
	ChooseAction(state engine.GameState, seat engine.Seat) engine.Action
}

// takeThreshold is the hand estimate from which NormalBot takes.
const takeThreshold = 70

type EasyBot struct {
	RNG *rand.Rand
}

func NewEasy(seed int64) *EasyBot {
	return &EasyBot{RNG: rand.New(rand.NewSource(seed))}
}

func (b *EasyBot) ChooseAction(state engine.GameState, seat engine.Seat) engine.Action {
	legal := engine.LegalActions(state, seat)
	if len(legal) == 0 {
		return engine.Pass()
	}
	return legal[b.RNG.Intn(len(legal))]
}

type NormalBot struct {
	RNG *rand.Rand
}

func NewNormal(seed int64) *NormalBot {
	return &NormalBot{RNG: rand.New(rand.NewSource(seed))}
}

func (b *NormalBot) ChooseAction(state engine.GameState, seat engine.Seat) engine.Action {
	legal := engine.LegalActions(state, seat)
	if len(legal) == 0 {
		return engine.Pass()
	}
	switch state.Round.Phase {
	case engine.PhaseBidding:
		return bidByHeuristic(state, seat, legal)
	case engine.PhasePlaying:
		return withDeclare(b.playHeuristic(state, seat, legal), legal)
	default:
		return legal[0]
	}
}

// HandEstimate scores hand as if trump were the given suit: trump card points,
// trump length and side aces.
func HandEstimate(hand []engine.Card, trump engine.Suit) int {
	est := 0
	for _, c := range hand {
		if c.Suit == trump {
			est += engine.CardPoints(c, trump) + 8
			continue
		}
		if c.Rank == engine.RankA {
			est += 6
		}
	}
	return est
}

func bidByHeuristic(state engine.GameState, seat engine.Seat, legal []engine.Action) engine.Action {
	hand := state.Players[seat].Hand
	best := engine.Pass()
	bestEst := takeThreshold - 1
	for _, a := range legal {
		if a.Type != engine.ActionTake || a.Suit == nil {
			continue
		}
		if est := HandEstimate(hand, *a.Suit); est > bestEst {
			bestEst = est
			best = a
		}
	}
	return best
}

func (b *NormalBot) playHeuristic(state engine.GameState, seat engine.Seat, legal []engine.Action) engine.Action {
	trump := state.Round.Contract.Trump
	trick := state.Round.Trick
	if len(trick) == 0 {
		// Lead with the strongest card, ties broken at random.
		best := []engine.Action{}
		bestScore := -1
		for _, a := range legal {
			score := cardScore(*a.Card, trump)
			switch {
			case score > bestScore:
				bestScore = score
				best = []engine.Action{a}
			case score == bestScore:
				best = append(best, a)
			}
		}
		return best[b.RNG.Intn(len(best))]
	}

	// Partner already holds the trick: keep the good cards.
	if engine.TrickWinner(trick, trump) == seat.Partner() {
		return lowest(legal, trump)
	}

	// Try to win the trick with the cheapest winning card.
	var cheapest *engine.Action
	for i := range legal {
		a := legal[i]
		if !winsIfPlayed(trick, seat, *a.Card, trump) {
			continue
		}
		if cheapest == nil || engine.RankStrength(*a.Card, trump) < engine.RankStrength(*cheapest.Card, trump) {
			cheapest = &a
		}
	}
	if cheapest != nil {
		return *cheapest
	}
	return lowest(legal, trump)
}

func lowest(legal []engine.Action, trump engine.Suit) engine.Action {
	out := legal[0]
	lowestScore := 1 << 30
	for _, a := range legal {
		if a.Card == nil {
			continue
		}
		if score := cardScore(*a.Card, trump); score < lowestScore {
			lowestScore = score
			out = a
		}
	}
	return out
}

// cardScore weighs points first, then rank; trump sorts above plain cards.
func cardScore(c engine.Card, trump engine.Suit) int {
	score := engine.CardPoints(c, trump)*10 + engine.RankStrength(c, trump)
	if c.Suit == trump {
		score += 5
	}
	return score
}

func winsIfPlayed(trick []engine.Play, seat engine.Seat, card engine.Card, trump engine.Suit) bool {
	plays := append(append([]engine.Play(nil), trick...), engine.Play{Seat: seat, Card: card})
	return engine.TrickWinner(plays, trump) == seat
}

// withDeclare swaps a for its declaring variant when belote is available.
func withDeclare(a engine.Action, legal []engine.Action) engine.Action {
	if a.Type != engine.ActionPlayCard || a.Card == nil || a.Declare {
		return a
	}
	d := engine.Action{Type: engine.ActionPlayCard, Card: a.Card, Declare: true}
	if engine.ActionInList(d, legal) {
		return d
	}
	return a
}

// Fallback is the action played for a human seat whose turn timed out:
// pass while bidding, the lowest legal card while playing.
func Fallback(state engine.GameState, seat engine.Seat) engine.Action {
	legal := engine.LegalActions(state, seat)
	if len(legal) == 0 || state.Round.Phase != engine.PhasePlaying {
		return engine.Pass()
	}
	return withDeclare(lowest(legal, state.Round.Contract.Trump), legal)
}
