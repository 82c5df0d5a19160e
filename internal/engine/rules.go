package engine

// RankStrength orders cards within a suit; trump uses J 9 A 10 K Q 8 7.
func RankStrength(c Card, trump Suit) int {
	if c.Suit == trump {
		switch c.Rank {
		case RankJ:
			return 8
		case Rank9:
			return 7
		case RankA:
			return 6
		case Rank10:
			return 5
		case RankK:
			return 4
		case RankQ:
			return 3
		case Rank8:
			return 2
		case Rank7:
			return 1
		}
		return 0
	}
	switch c.Rank {
	case RankA:
		return 8
	case RankK:
		return 7
	case RankQ:
		return 6
	case RankJ:
		return 5
	case Rank10:
		return 4
	case Rank9:
		return 3
	case Rank8:
		return 2
	case Rank7:
		return 1
	default:
		return 0
	}
}

func CardPoints(c Card, trump Suit) int {
	if c.Suit == trump {
		switch c.Rank {
		case RankJ:
			return 20
		case Rank9:
			return 14
		case RankA:
			return 11
		case Rank10:
			return 10
		case RankK:
			return 4
		case RankQ:
			return 3
		}
		return 0
	}
	switch c.Rank {
	case RankA:
		return 11
	case Rank10:
		return 10
	case RankK:
		return 4
	case RankQ:
		return 3
	case RankJ:
		return 2
	default:
		return 0
	}
}

// TrickWinner returns the seat holding the highest trump, or the highest card
// of the lead suit when no trump was played.
func TrickWinner(plays []Play, trump Suit) Seat {
	if len(plays) == 0 {
		return SeatNone
	}
	leadSuit := plays[0].Card.Suit
	bestIdx := 0
	for i := 1; i < len(plays); i++ {
		c := plays[i].Card
		best := plays[bestIdx].Card

		if c.Suit == trump && best.Suit != trump {
			bestIdx = i
			continue
		}
		if c.Suit != trump && best.Suit == trump {
			continue
		}
		if c.Suit == best.Suit {
			if RankStrength(c, trump) > RankStrength(best, trump) {
				bestIdx = i
			}
			continue
		}
		if best.Suit != leadSuit && c.Suit == leadSuit {
			bestIdx = i
		}
	}
	return plays[bestIdx].Seat
}

func TrickPoints(plays []Play, trump Suit) int {
	total := 0
	for _, p := range plays {
		total += CardPoints(p.Card, trump)
	}
	return total
}

// LegalCards returns the cards seat may play from hand onto the open trick.
func LegalCards(seat Seat, hand []Card, trick []Play, trump Suit) []Card {
	if len(trick) == 0 {
		return append([]Card(nil), hand...)
	}
	lead := trick[0].Card.Suit
	partnerWinning := TrickWinner(trick, trump) == seat.Partner()
	highest, trumped := highestTrump(trick, trump)

	if hasSuit(hand, lead) {
		follow := filterBySuit(hand, lead)
		if lead == trump && !partnerWinning {
			if over := beating(follow, highest, trump); len(over) > 0 {
				return over
			}
		}
		return follow
	}
	if trumped && !partnerWinning {
		if over := beating(filterBySuit(hand, trump), highest, trump); len(over) > 0 {
			return over
		}
	}
	return append([]Card(nil), hand...)
}

func highestTrump(trick []Play, trump Suit) (Card, bool) {
	var best Card
	found := false
	for _, p := range trick {
		if p.Card.Suit != trump {
			continue
		}
		if !found || RankStrength(p.Card, trump) > RankStrength(best, trump) {
			best = p.Card
			found = true
		}
	}
	return best, found
}

func beating(cards []Card, than Card, trump Suit) []Card {
	out := []Card{}
	for _, c := range cards {
		if c.Suit == trump && RankStrength(c, trump) > RankStrength(than, trump) {
			out = append(out, c)
		}
	}
	return out
}

func hasSuit(cards []Card, suit Suit) bool {
	for _, c := range cards {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func filterBySuit(cards []Card, suit Suit) []Card {
	out := []Card{}
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

func containsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

func removeCard(hand *[]Card, card Card) bool {
	for i, c := range *hand {
		if c == card {
			*hand = append((*hand)[:i], (*hand)[i+1:]...)
			return true
		}
	}
	return false
}

// holdsBelote reports whether hand still holds both the king and queen of trump.
func holdsBelote(hand []Card, trump Suit) bool {
	return containsCard(hand, Card{Suit: trump, Rank: RankK}) &&
		containsCard(hand, Card{Suit: trump, Rank: RankQ})
}

func isBeloteCard(c Card, trump Suit) bool {
	return c.Suit == trump && (c.Rank == RankK || c.Rank == RankQ)
}
