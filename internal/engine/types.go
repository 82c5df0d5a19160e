package engine

import "fmt"

type Suit int

type Rank int

const (
	SuitClubs Suit = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

// Suits is ordered by bidding tier, lowest first.
var Suits = []Suit{SuitClubs, SuitDiamonds, SuitHearts, SuitSpades}

const (
	Rank7 Rank = iota
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
)

var Ranks = []Rank{Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA}

func (s Suit) String() string {
	switch s {
	case SuitClubs:
		return "C"
	case SuitDiamonds:
		return "D"
	case SuitHearts:
		return "H"
	case SuitSpades:
		return "S"
	default:
		return "?"
	}
}

// Symbol returns the suit glyph used in system messages.
func (s Suit) Symbol() string {
	switch s {
	case SuitClubs:
		return "♣"
	case SuitDiamonds:
		return "♦"
	case SuitHearts:
		return "♥"
	case SuitSpades:
		return "♠"
	default:
		return "?"
	}
}

func (r Rank) String() string {
	switch r {
	case Rank7:
		return "7"
	case Rank8:
		return "8"
	case Rank9:
		return "9"
	case Rank10:
		return "10"
	case RankJ:
		return "J"
	case RankQ:
		return "Q"
	case RankK:
		return "K"
	case RankA:
		return "A"
	default:
		return "?"
	}
}

type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank.String(), c.Suit.String())
}

// Seat is a fixed table position. Seats are numbered clockwise.
type Seat int

const (
	SeatNone  Seat = -1
	SeatSouth Seat = 0
	SeatWest  Seat = 1
	SeatNorth Seat = 2
	SeatEast  Seat = 3
)

const NumSeats = 4

func (s Seat) String() string {
	switch s {
	case SeatSouth:
		return "South"
	case SeatWest:
		return "West"
	case SeatNorth:
		return "North"
	case SeatEast:
		return "East"
	default:
		return "None"
	}
}

func (s Seat) Valid() bool {
	return s >= 0 && s < NumSeats
}

// Next returns the seat to the left (clockwise).
func (s Seat) Next() Seat {
	return (s + 1) % NumSeats
}

func (s Seat) Partner() Seat {
	return (s + 2) % NumSeats
}

func (s Seat) Team() Team {
	return Team(s % 2)
}

type Team int

const (
	TeamNorthSouth Team = 0
	TeamEastWest   Team = 1
)

func (t Team) String() string {
	if t == TeamNorthSouth {
		return "North/South"
	}
	return "East/West"
}

func (t Team) Other() Team {
	return 1 - t
}

type Phase int

const (
	PhaseDeal Phase = iota
	PhaseBidding
	PhasePlaying
	PhaseScored
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseDeal:
		return "deal"
	case PhaseBidding:
		return "bidding"
	case PhasePlaying:
		return "playing"
	case PhaseScored:
		return "scored"
	case PhaseGameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

type TieBreak string

const (
	// TieBreakSuddenDeath keeps dealing rounds until the scores differ.
	TieBreakSuddenDeath TieBreak = "sudden_death"
	// TieBreakLastTaker awards the game to the team that took the last contract.
	TieBreakLastTaker TieBreak = "last_taker"
)

type Rules struct {
	WinScore       int
	MaxRounds      int
	ContractTarget int
	CapotBonus     int
	BeloteBonus    int
	LastTrickBonus int
	AllowRaises    bool
	TieBreak       TieBreak
	FirstDealer    Seat
}

func CoinchePreset() Rules {
	return Rules{
		WinScore:       1000,
		MaxRounds:      0,
		ContractTarget: 81,
		CapotBonus:     250,
		BeloteBonus:    20,
		LastTrickBonus: 10,
		AllowRaises:    false,
		TieBreak:       TieBreakSuddenDeath,
		FirstDealer:    SeatEast,
	}
}

type Bid struct {
	Seat Seat
	Take bool
	Suit *Suit
}

type Contract struct {
	Taker Seat
	Team  Team
	Trump Suit
}

type Play struct {
	Seat Seat
	Card Card
}

type Trick struct {
	Plays  []Play
	Winner Seat
	Points int
}

type BeloteState int

const (
	BeloteNone BeloteState = iota
	BeloteAnnounced
	BeloteDone
	BeloteForfeited
)

type RoundResult struct {
	Round      int
	Contract   Contract
	CardPoints [2]int
	LastTrick  Team
	Belote     [2]int
	Totals     [2]int
	TricksWon  [2]int
	Fulfilled  bool
	Capot      bool
	Scores     [2]int
}

type PlayerState struct {
	Seat Seat
	Hand []Card
}

type RoundState struct {
	Phase      Phase
	Dealer     Seat
	Turn       Seat
	Leader     Seat
	HandsDealt bool
	Bids       []Bid
	Contract   *Contract
	Trick      []Play
	Tricks     []Trick
	Belote     [NumSeats]BeloteState
}

type GameState struct {
	Rules   Rules
	Seed    int64
	Deals   int
	Round   RoundState
	Players []PlayerState
	Scores  [2]int
	History []RoundResult
	Winner  *Team
	Voids   int
	// Moves counts accepted actions; it identifies a turn for stale checks.
	Moves int
}

func NewGame(r Rules, seed int64) GameState {
	players := make([]PlayerState, NumSeats)
	for i := 0; i < NumSeats; i++ {
		players[i] = PlayerState{Seat: Seat(i)}
	}
	dealer := r.FirstDealer
	if !dealer.Valid() {
		dealer = SeatEast
	}

	return GameState{
		Rules: r,
		Seed:  seed,
		Round: RoundState{
			Phase:  PhaseDeal,
			Dealer: dealer,
			Turn:   SeatNone,
		},
		Players: players,
	}
}

func (g *GameState) ResetRound() {
	g.Round = RoundState{
		Phase:  PhaseDeal,
		Dealer: g.Round.Dealer,
		Turn:   SeatNone,
	}
	for i := range g.Players {
		g.Players[i].Hand = nil
	}
}

// Clone returns a deep copy that shares no slices with g.
func (g GameState) Clone() GameState {
	out := g
	out.Players = make([]PlayerState, len(g.Players))
	for i, p := range g.Players {
		out.Players[i] = PlayerState{Seat: p.Seat, Hand: append([]Card(nil), p.Hand...)}
	}
	out.Round.Bids = make([]Bid, len(g.Round.Bids))
	for i, b := range g.Round.Bids {
		out.Round.Bids[i] = b
		if b.Suit != nil {
			out.Round.Bids[i].Suit = suitPtr(*b.Suit)
		}
	}
	if g.Round.Contract != nil {
		c := *g.Round.Contract
		out.Round.Contract = &c
	}
	out.Round.Trick = append([]Play(nil), g.Round.Trick...)
	out.Round.Tricks = make([]Trick, len(g.Round.Tricks))
	for i, t := range g.Round.Tricks {
		out.Round.Tricks[i] = Trick{Plays: append([]Play(nil), t.Plays...), Winner: t.Winner, Points: t.Points}
	}
	out.History = append([]RoundResult(nil), g.History...)
	if g.Winner != nil {
		w := *g.Winner
		out.Winner = &w
	}
	return out
}

func (g GameState) Hand(seat Seat) []Card {
	if !seat.Valid() || int(seat) >= len(g.Players) {
		return nil
	}
	return g.Players[seat].Hand
}
