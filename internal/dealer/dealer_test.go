package dealer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentzmp/rentz-server/internal/deck"
	"github.com/rentzmp/rentz-server/internal/randutil"
)

func TestDealIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint32{0, 1, 42, 0xDEADBEEF, 4294967295} {
		first, firstLead := Deal(seed)
		second, secondLead := Deal(seed)

		assert.Equal(t, first, second, "seed %d", seed)
		assert.Equal(t, firstLead, secondLead, "seed %d", seed)
	}
}

func TestDealPartitionsFullDeck(t *testing.T) {
	t.Parallel()

	hands, _ := Deal(42)

	seen := make(map[int]bool)
	for _, hand := range hands {
		require.Len(t, hand, HandSize)
		for _, c := range hand {
			assert.False(t, seen[c.ID], "card %d dealt twice", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, 32)
}

func TestLeadSeatHoldsSevenOfClubs(t *testing.T) {
	t.Parallel()

	for seed := uint32(0); seed < 50; seed++ {
		hands, lead := Deal(seed)
		require.GreaterOrEqual(t, lead, 0)
		require.Less(t, lead, Seats)

		found := false
		for _, c := range hands[lead] {
			if c.Suit == deck.Clubs && c.Rank == deck.Seven {
				found = true
			}
		}
		assert.True(t, found, "seed %d: lead seat %d missing 7♣", seed, lead)
	}
}

func TestDifferentSeedsVaryTheDeal(t *testing.T) {
	t.Parallel()

	a, _ := Deal(1)
	b, _ := Deal(2)
	assert.NotEqual(t, a, b)
}

func TestNewSeedIsStableForFixedInputs(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	a := NewSeed(now, randutil.New(7))
	b := NewSeed(now, randutil.New(7))
	assert.Equal(t, a, b)

	c := NewSeed(now, randutil.New(8))
	assert.NotEqual(t, a, c)
}
