// Package rentz implements the authoritative rule engine for the Rentz
// placement sub-game.
//
// Each suit has a lane that opens with the seed rank and then grows outward
// one rank at a time from either end, so a lane always holds a contiguous
// run of ranks anchored at the seed. Players place or pass in turn; playing
// the minimum rank skips the next live seat once, playing an Ace grants an
// extra turn while a legal move remains. Seats score by the order in which
// they empty their hands.
package rentz

import (
	"errors"

	"github.com/rentzmp/rentz-server/internal/deck"
)

const seats = 4

// Validation failures. All are local to the offending intent and never
// mutate state.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrAlreadyFinished = errors.New("seat has already finished")
	ErrMustPlay        = errors.New("a legal move exists, cannot pass")
	ErrCardNotHeld     = errors.New("card not in hand")
	ErrIllegalMove     = errors.New("card cannot be placed on its lane")
	ErrUnknownIntent   = errors.New("unknown intent kind")
)

// SeedRank returns the rank that opens a lane, derived from player count
func SeedRank(n int) deck.Rank {
	if n <= 3 {
		return deck.Jack
	}
	if n == 4 {
		return deck.Ten
	}
	return deck.Nine
}

// MinRank returns the lowest rank in play, derived from player count. Four
// seats play the 32-card deck down to the 7; five and six seats extend the
// deck down to the 5 and the 3.
func MinRank(n int) deck.Rank {
	switch {
	case n <= 3:
		return deck.Nine
	case n == 4:
		return deck.Seven
	case n == 5:
		return deck.Five
	default:
		return deck.Three
	}
}

// Lane is the placement track for one suit. Left and Right carry the numeric
// rank values of the two open ends once the lane is open.
type Lane struct {
	Open  bool
	Run   []deck.Rank
	Left  int
	Right int
}

// CanPlace reports whether card may be placed on the lane: the seed rank on
// a closed lane, or a rank adjacent to either boundary on an open one.
func (l *Lane) CanPlace(card deck.Card, seedRank deck.Rank) bool {
	if !l.Open {
		return card.Rank == seedRank
	}
	v := card.Rank.Value()
	return v == l.Left-1 || v == l.Left+1 || v == l.Right-1 || v == l.Right+1
}

// place appends or prepends the card's rank, extending whichever boundary it
// attached to. Callers must have validated with CanPlace first.
func (l *Lane) place(card deck.Card) {
	v := card.Rank.Value()
	if !l.Open {
		l.Open = true
		l.Run = []deck.Rank{card.Rank}
		l.Left, l.Right = v, v
		return
	}
	if v == l.Left-1 || v == l.Left+1 {
		l.Run = append([]deck.Rank{card.Rank}, l.Run...)
		l.Left = v
		return
	}
	l.Run = append(l.Run, card.Rank)
	l.Right = v
}

// IntentKind discriminates player intents
type IntentKind string

const (
	IntentPlay IntentKind = "play"
	IntentPass IntentKind = "pass"
)

// Intent is a single player action: pass, or play the card with CardID
type Intent struct {
	Kind   IntentKind
	CardID int
}

// Result is returned when a play ends the sub-game
type Result struct {
	OrderOut []int      `json:"orderOut"`
	Scores   [seats]int `json:"scores"`
}

// Refusal reports a deal rejected at init: the named seat held too many
// "capete" (Aces or minimum-rank cards) and the deal must be repeated with
// the same chooser.
type Refusal struct {
	Seat   int
	Capete int
}

// refuseThreshold is the capete count at which a seat may refuse the deal
const refuseThreshold = 4

// State is the authoritative sub-game state. It owns the hand slices passed
// to New for the duration of the sub-game.
type State struct {
	SeedRank deck.Rank
	MinRank  deck.Rank
	Turn     int
	Finished [seats]bool
	OrderOut []int
	SkipFor  int // seat pending a forced skip, -1 when none
	Lanes    map[deck.Suit]*Lane
	Hands    [seats][]deck.Card
	Names    [seats]string
}

// New validates the deal and builds a fresh state with all lanes closed and
// the chooser to act first. A seat holding refuseThreshold or more capete
// refuses the whole deal instead; the caller must redeal with the same
// chooser.
func New(hands [seats][]deck.Card, chooser int, names [seats]string) (*State, *Refusal) {
	seedRank := SeedRank(seats)
	minRank := MinRank(seats)

	for seat, hand := range hands {
		capete := 0
		for _, c := range hand {
			if c.Rank == deck.Ace || c.Rank == minRank {
				capete++
			}
		}
		if capete >= refuseThreshold {
			return nil, &Refusal{Seat: seat, Capete: capete}
		}
	}

	lanes := make(map[deck.Suit]*Lane, len(deck.Suits))
	for _, suit := range deck.Suits {
		lanes[suit] = &Lane{}
	}

	return &State{
		SeedRank: seedRank,
		MinRank:  minRank,
		Turn:     chooser,
		SkipFor:  -1,
		Lanes:    lanes,
		Hands:    hands,
		Names:    names,
	}, nil
}

// AnyPlayable reports whether the seat has at least one legal placement. It
// is false whenever the seat is finished or it is not the seat's turn.
func (s *State) AnyPlayable(seat int) bool {
	if s.Finished[seat] || s.Turn != seat {
		return false
	}
	for _, c := range s.Hands[seat] {
		if s.Lanes[c.Suit].CanPlace(c, s.SeedRank) {
			return true
		}
	}
	return false
}

// nextAlive returns the next unfinished seat after from, wrapping in seat
// order. Returns from itself when every other seat is finished.
func (s *State) nextAlive(from int) int {
	t := from
	for k := 0; k < seats; k++ {
		t = (t + 1) % seats
		if !s.Finished[t] {
			return t
		}
	}
	return from
}

// advanceTurn moves the turn to the next live seat, consuming at most one
// pending skip
func (s *State) advanceTurn() {
	next := s.nextAlive(s.Turn)
	if s.SkipFor >= 0 && next == s.SkipFor {
		s.SkipFor = -1
		next = s.nextAlive(next)
	}
	s.Turn = next
}

// Apply validates and applies one intent for the given seat. A non-nil
// Result means the play ended the sub-game. On error nothing changed.
func (s *State) Apply(seat int, intent Intent) (*Result, error) {
	if s.Turn != seat {
		return nil, ErrNotYourTurn
	}
	if s.Finished[seat] {
		return nil, ErrAlreadyFinished
	}

	switch intent.Kind {
	case IntentPass:
		if s.AnyPlayable(seat) {
			return nil, ErrMustPlay
		}
		s.advanceTurn()
		return nil, nil

	case IntentPlay:
		idx := -1
		for i, c := range s.Hands[seat] {
			if c.ID == intent.CardID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrCardNotHeld
		}
		card := s.Hands[seat][idx]
		if !s.Lanes[card.Suit].CanPlace(card, s.SeedRank) {
			return nil, ErrIllegalMove
		}

		s.Hands[seat] = append(s.Hands[seat][:idx], s.Hands[seat][idx+1:]...)
		s.Lanes[card.Suit].place(card)

		// Minimum rank forces the next live seat to miss its next turn.
		if card.Rank == s.MinRank {
			s.SkipFor = s.nextAlive(seat)
		}

		if len(s.Hands[seat]) == 0 {
			s.Finished[seat] = true
			s.OrderOut = append(s.OrderOut, seat)
		}

		if s.allEmpty() {
			// Force-finish stragglers in seat order; they take the last
			// scoring slots in arrival order.
			for i := 0; i < seats; i++ {
				if !s.Finished[i] {
					s.Finished[i] = true
					s.OrderOut = append(s.OrderOut, i)
				}
			}
			return &Result{OrderOut: append([]int(nil), s.OrderOut...), Scores: Score(s.OrderOut)}, nil
		}

		// An Ace earns another turn while a legal move remains.
		if card.Rank == deck.Ace && s.AnyPlayable(seat) {
			return nil, nil
		}

		s.advanceTurn()
		return nil, nil

	default:
		return nil, ErrUnknownIntent
	}
}

func (s *State) allEmpty() bool {
	for _, hand := range s.Hands {
		if len(hand) > 0 {
			return false
		}
	}
	return true
}

// Score maps finishing order onto points: position p (0-indexed) in orderOut
// scores (4-p)*100, so the first seat out scores 400 and the last 100.
func Score(orderOut []int) [seats]int {
	var scores [seats]int
	for pos, seat := range orderOut {
		scores[seat] = (seats - pos) * 100
	}
	return scores
}
