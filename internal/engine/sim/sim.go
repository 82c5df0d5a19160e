package sim

import (
	"fmt"

	"github.com/christophecraig/coinchette/internal/engine"
)

type ActionRecord struct {
	Round int
	Step  int
	Phase engine.Phase
	Seat  engine.Seat
	A     engine.Action
}

// RunSelfPlayGames plays whole games with a deterministic chooser, checking
// card conservation and point conservation after every step.
func RunSelfPlayGames(seed int64, games int, maxSteps int) error {
	for n := 0; n < games; n++ {
		rules := engine.CoinchePreset()
		rules.WinScore = 501
		state := engine.NewGame(rules, seed+int64(n)*7919)
		if err := playGame(&state, seed, maxSteps); err != nil {
			return err
		}
	}
	return nil
}

func playGame(state *engine.GameState, seed int64, maxSteps int) error {
	records := []ActionRecord{}
	engine.Advance(state)
	for step := 0; step < maxSteps; step++ {
		if state.Round.Phase == engine.PhaseGameOver {
			return checkGameOver(*state)
		}
		seat, ok := engine.CurrentPlayer(*state)
		if !ok {
			return failure(seed, len(state.History), step, state.Round.Phase, engine.SeatNone, records, "no current player")
		}
		legal := engine.LegalActions(*state, seat)
		if len(legal) == 0 {
			return failure(seed, len(state.History), step, state.Round.Phase, seat, records, "no legal actions")
		}
		action := chooseAction(*state, step, legal)
		phase := state.Round.Phase
		rounds := len(state.History)
		if err := engine.ApplyAction(state, seat, action); err != nil {
			return failure(seed, rounds, step, phase, seat, records, fmt.Sprintf("apply error: %v", err))
		}
		records = append(records, ActionRecord{Round: rounds, Step: step, Phase: phase, Seat: seat, A: action})
		if err := engine.CheckInvariants(*state); err != nil {
			return failure(seed, rounds, step, phase, seat, records, err.Error())
		}
		if len(state.History) > rounds {
			if err := checkRoundResult(state.History[len(state.History)-1], state.Rules); err != nil {
				return failure(seed, rounds, step, phase, seat, records, err.Error())
			}
		}
		engine.Advance(state)
	}
	return fmt.Errorf("seed=%d game did not finish in %d steps", seed, maxSteps)
}

// chooseAction takes with a rotating suit on roughly one deal in three and
// otherwise plays the lowest legal card, declaring belote when offered.
func chooseAction(state engine.GameState, step int, legal []engine.Action) engine.Action {
	if state.Round.Phase == engine.PhaseBidding {
		if (state.Deals+len(state.Round.Bids))%3 == 0 && len(legal) > 1 {
			return legal[1+step%(len(legal)-1)]
		}
		return legal[0]
	}
	return lowestLegalPlay(state, legal)
}

func lowestLegalPlay(state engine.GameState, legal []engine.Action) engine.Action {
	trump := state.Round.Contract.Trump
	best := legal[0]
	bestScore := 1<<31 - 1
	for _, a := range legal {
		if a.Type != engine.ActionPlayCard || a.Card == nil {
			continue
		}
		score := engine.CardPoints(*a.Card, trump)*10 + engine.RankStrength(*a.Card, trump)
		if a.Declare {
			score--
		}
		if score < bestScore {
			bestScore = score
			best = a
		}
	}
	return best
}

func checkRoundResult(res engine.RoundResult, rules engine.Rules) error {
	cards := res.CardPoints[0] + res.CardPoints[1]
	if cards != engine.CardPointsTotal {
		return fmt.Errorf("card points leak: %d", cards)
	}
	totals := res.Totals[0] + res.Totals[1]
	if want := engine.CardPointsTotal + rules.LastTrickBonus + res.Belote[0] + res.Belote[1]; totals != want {
		return fmt.Errorf("round totals %d, want %d", totals, want)
	}
	if res.TricksWon[0]+res.TricksWon[1] != engine.Tricks {
		return fmt.Errorf("trick count mismatch: %d", res.TricksWon[0]+res.TricksWon[1])
	}
	return nil
}

func checkGameOver(state engine.GameState) error {
	if state.Winner == nil {
		return fmt.Errorf("game over without a winner")
	}
	sum := [2]int{}
	for _, r := range state.History {
		sum[0] += r.Scores[0]
		sum[1] += r.Scores[1]
	}
	if sum != state.Scores {
		return fmt.Errorf("score drift: history %v, game %v", sum, state.Scores)
	}
	return nil
}

func failure(seed int64, round int, step int, phase engine.Phase, seat engine.Seat, records []ActionRecord, reason string) error {
	start := 0
	if len(records) > 20 {
		start = len(records) - 20
	}
	log := ""
	for _, r := range records[start:] {
		log += fmt.Sprintf("[r%d s%d %v %v] %v\n", r.Round, r.Step, r.Seat, r.Phase, r.A)
	}
	return fmt.Errorf("seed=%d round=%d step=%d phase=%v seat=%v reason=%s\nlast actions:\n%s",
		seed, round, step, phase, seat, reason, log)
}
