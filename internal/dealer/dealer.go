// Package dealer produces reproducible deals for a four-seat room.
//
// A deal is a pure function of a 32-bit seed: the seed drives a mulberry32
// stream feeding a Fisher-Yates shuffle, and the shuffled deck is dealt
// round-robin into four hands of eight. Rooms log their seed, so the same
// seed must partition the deck identically on every run and every build.
package dealer

import (
	"time"

	"github.com/rentzmp/rentz-server/internal/deck"
)

// Seats is the fixed number of seats in a room
const Seats = 4

// HandSize is the number of cards dealt to each seat
const HandSize = 8

// Deal shuffles the 32-card deck with the given seed and splits it into four
// ordered hands. The returned lead seat is whichever seat holds the 7 of
// clubs. Same seed, same partition, always.
func Deal(seed uint32) (hands [Seats][]deck.Card, lead int) {
	next := mulberry32(seed)
	cards := shuffle(deck.New(), next)

	for i := range hands {
		hands[i] = make([]deck.Card, 0, HandSize)
	}
	// Deal from the tail of the shuffled deck, one card per seat per round.
	top := len(cards)
	for n := 0; n < HandSize; n++ {
		for p := 0; p < Seats; p++ {
			top--
			hands[p] = append(hands[p], cards[top])
		}
	}

	for i, hand := range hands {
		for _, c := range hand {
			if c.Suit == deck.Clubs && c.Rank == deck.Seven {
				lead = i
			}
		}
	}
	return hands, lead
}

// IntSource supplies the random draw mixed into fresh seeds. Callers that
// share one source across goroutines must pass a synchronized one.
type IntSource interface {
	IntN(n int) int
}

// NewSeed derives a fresh deal seed by mixing wall-clock milliseconds with a
// random draw. Callers inject the clock reading and rand source so tests can
// fix both.
func NewSeed(now time.Time, rng IntSource) uint32 {
	return uint32(now.UnixMilli()) ^ uint32(rng.IntN(1_000_000_000))
}

// mulberry32 returns a generator of uniform floats in [0,1). The constants
// are the standard mulberry32 ones; changing them breaks replay of every
// previously logged seed.
func mulberry32(seed uint32) func() float64 {
	a := seed
	return func() float64 {
		a += 0x6D2B79F5
		t := (a ^ (a >> 15)) * (a | 1)
		t = (t + (t^(t>>7))*(t|61)) ^ t
		return float64(t^(t>>14)) / 4294967296.0
	}
}

// shuffle performs a Fisher-Yates pass over a copy of cards, drawing indexes
// from the float stream
func shuffle(cards []deck.Card, next func() float64) []deck.Card {
	shuffled := make([]deck.Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(next() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
