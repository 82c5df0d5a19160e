package engine

// CardPointsTotal is the sum of all card points in the deck for any trump.
const CardPointsTotal = 152

func scoreRound(g *GameState) {
	c := *g.Round.Contract
	res := RoundResult{Round: len(g.History) + 1, Contract: c}
	for _, t := range g.Round.Tricks {
		team := t.Winner.Team()
		res.CardPoints[team] += t.Points
		res.TricksWon[team]++
	}
	res.LastTrick = g.Round.Tricks[len(g.Round.Tricks)-1].Winner.Team()
	for seat, st := range g.Round.Belote {
		if st == BeloteDone {
			res.Belote[Seat(seat).Team()] += g.Rules.BeloteBonus
		}
	}
	for t := range res.Totals {
		res.Totals[t] = res.CardPoints[t] + res.Belote[t]
	}
	res.Totals[res.LastTrick] += g.Rules.LastTrickBonus

	takers := c.Team
	defenders := takers.Other()
	res.Capot = res.TricksWon[takers] == Tricks
	res.Fulfilled = res.Totals[takers] >= g.Rules.ContractTarget
	if res.Fulfilled {
		res.Scores[takers] = res.Totals[takers]
		if res.Capot {
			res.Scores[takers] = g.Rules.CapotBonus + res.Belote[takers]
		}
		res.Scores[defenders] = res.Totals[defenders]
	} else {
		pool := CardPointsTotal + g.Rules.LastTrickBonus
		if res.TricksWon[defenders] == Tricks {
			pool = g.Rules.CapotBonus
		}
		// Belote always stays with the team that declared it.
		res.Scores[defenders] = pool + res.Belote[defenders]
		res.Scores[takers] = res.Belote[takers]
	}

	for t := range g.Scores {
		g.Scores[t] += res.Scores[t]
	}
	g.History = append(g.History, res)
	g.Round.Phase = PhaseScored
	g.Round.Turn = SeatNone
}

// Advance performs the transitions that need no player input: dealing an
// undealt round, and closing a scored round into either the next deal or
// the end of the game. It reports whether anything changed.
func Advance(g *GameState) bool {
	changed := false
	for {
		switch {
		case g.Round.Phase == PhaseScored:
			if endGame(g) {
				return true
			}
			g.Round.Dealer = g.Round.Dealer.Next()
			g.ResetRound()
			changed = true
		case g.Round.Phase == PhaseDeal && !g.Round.HandsDealt:
			DealRound(g)
			return true
		default:
			return changed
		}
	}
}

func endGame(g *GameState) bool {
	reached := g.Scores[TeamNorthSouth] >= g.Rules.WinScore || g.Scores[TeamEastWest] >= g.Rules.WinScore
	capped := g.Rules.MaxRounds > 0 && len(g.History) >= g.Rules.MaxRounds
	if !reached && !capped {
		return false
	}

	var winner Team
	switch {
	case g.Scores[TeamNorthSouth] > g.Scores[TeamEastWest]:
		winner = TeamNorthSouth
	case g.Scores[TeamEastWest] > g.Scores[TeamNorthSouth]:
		winner = TeamEastWest
	case g.Rules.TieBreak == TieBreakLastTaker && len(g.History) > 0:
		winner = g.History[len(g.History)-1].Contract.Team
	default:
		return false
	}
	g.Winner = &winner
	g.Round.Phase = PhaseGameOver
	g.Round.Turn = SeatNone
	return true
}
