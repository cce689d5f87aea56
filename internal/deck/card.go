package deck

import "fmt"

// Suit represents a card suit. The zero value is invalid so that masked
// wire representations can omit the field entirely.
type Suit int

const (
	Clubs Suit = iota + 1
	Diamonds
	Hearts
	Spades
)

// Suits lists all suits in deck-construction order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the suit symbol used on the wire
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// MarshalText encodes the suit as its symbol. Suits are used both as JSON
// values and as lane map keys, so text marshalling covers both.
func (s Suit) MarshalText() ([]byte, error) {
	if s < Clubs || s > Spades {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a suit symbol
func (s *Suit) UnmarshalText(text []byte) error {
	for _, candidate := range Suits {
		if string(text) == candidate.String() {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", text)
}

// Rank represents a card rank. The 32-card deck holds Seven through Ace;
// ranks below Seven exist only through the player-count rank tables for the
// larger decks. The numeric value doubles as the comparison value used by
// lane adjacency.
type Rank int

const (
	Three Rank = iota + 3
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the rank label used on the wire ("10" rather than "T")
func (r Rank) String() string {
	switch r {
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Value returns the numeric value of the rank (3..14, Aces high)
func (r Rank) Value() int {
	return int(r)
}

// MarshalText encodes the rank as its label
func (r Rank) MarshalText() ([]byte, error) {
	if r < Three || r > Ace {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rank label
func (r *Rank) UnmarshalText(text []byte) error {
	for candidate := Three; candidate <= Ace; candidate++ {
		if string(text) == candidate.String() {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", text)
}

// Card represents a playing card. The ID is unique within a deal and is the
// only part of a card other viewers ever see; identity is immutable once dealt.
type Card struct {
	ID   int  `json:"id"`
	Suit Suit `json:"suit,omitzero"`
	Rank Rank `json:"rank,omitzero"`
}

// String returns e.g. "10♣"
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Masked returns a copy retaining only the card's identity. The zero Suit
// and Rank are omitted when marshalled, which is how hidden hands appear
// on the wire.
func (c Card) Masked() Card {
	return Card{ID: c.ID}
}

// New creates a full 32-card deck in canonical order: suits ♣ ♦ ♥ ♠, ranks
// descending A..7 within each suit, IDs assigned 0..31 in that order. The
// order is load-bearing: deals are reproduced from a logged seed, so the
// pre-shuffle deck must be identical on every run.
func New() []Card {
	cards := make([]Card, 0, 32)
	id := 0
	for _, suit := range Suits {
		for rank := Ace; rank >= Seven; rank-- {
			cards = append(cards, Card{ID: id, Suit: suit, Rank: rank})
			id++
		}
	}
	return cards
}
