package room

import (
	"fmt"

	"github.com/christophecraig/coinchette/internal/engine"
)

func cardLabel(c engine.Card) string {
	return c.Rank.String() + c.Suit.Symbol()
}

func bidText(name string, a engine.Action) string {
	if a.Type == engine.ActionTake && a.Suit != nil {
		return fmt.Sprintf("%s takes with %s trump.", name, a.Suit.Symbol())
	}
	return fmt.Sprintf("%s passes.", name)
}

func contractText(c engine.Contract) string {
	return fmt.Sprintf("Team %s plays the contract, trump is %s.", c.Team, c.Trump.Symbol())
}

func roundText(res engine.RoundResult) string {
	outcome := "made"
	if !res.Fulfilled {
		outcome = "failed"
	}
	if res.Capot {
		outcome += " with a capot"
	}
	return fmt.Sprintf("Round %d: contract %s. North/South %d, East/West %d.",
		res.Round, outcome, res.Scores[engine.TeamNorthSouth], res.Scores[engine.TeamEastWest])
}

func gameOverText(winner engine.Team, scores [2]int) string {
	return fmt.Sprintf("Team %s wins the game %d to %d.", winner, scores[winner], scores[winner.Other()])
}
