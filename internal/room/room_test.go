package room

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentzmp/rentz-server/internal/deck"
	"github.com/rentzmp/rentz-server/internal/randutil"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(testLogger(), randutil.New(1), quartz.NewReal(), 0)
}

// fullRoom creates a started-ready room with four connected players
func fullRoom(t *testing.T) (*Registry, *Room) {
	t.Helper()
	reg := testRegistry(t)
	r, host, err := reg.Create("Host", 4, "conn-0")
	require.NoError(t, err)
	require.Equal(t, 0, host.Index)

	for i, name := range []string{"Ana", "Bob", "Cara"} {
		seat, err := r.Join(name, connID(i+1))
		require.NoError(t, err)
		require.Equal(t, i+1, seat.Index)
	}
	return reg, r
}

func connID(i int) string {
	return string(rune('a' + i))
}

func TestCreateAssignsHostSeat(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	r, seat, err := reg.Create("Host", 4, "conn-0")
	require.NoError(t, err)
	assert.Equal(t, 0, seat.Index)
	assert.Equal(t, RoleHost, seat.Role)
	assert.True(t, seat.IsHost())
	assert.Len(t, r.Code, 6)
	assert.False(t, r.Started)
	assert.Equal(t, 1, r.ConnectedCount())
}

func TestCreateClampsMaxHumans(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	r, _, err := reg.Create("Solo", 0, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, r.MaxHumans)

	r, _, err = reg.Create("Crowd", 9, "d")
	require.NoError(t, err)
	assert.Equal(t, 4, r.MaxHumans)
}

func TestJoinAssignsLowestFreeSeat(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)

	assert.Equal(t, 4, r.ConnectedCount())
	for i := 0; i < Seats; i++ {
		require.NotNil(t, r.SeatByIndex(i))
	}
}

func TestJoinRejectsFullRoom(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)

	_, err := r.Join("Eve", "conn-x")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinReclaimsSeatBySameName(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)

	// Ana (seat 1) and Bob (seat 2) drop; Ana returns and must get her
	// original seat back, not Bob's.
	require.NotNil(t, r.Disconnect(connID(1)))
	require.NotNil(t, r.Disconnect(connID(2)))
	assert.Equal(t, 2, r.ConnectedCount())

	seat, err := r.Join("Ana", "conn-ana2")
	require.NoError(t, err)
	assert.Equal(t, 1, seat.Index)
	assert.Equal(t, "conn-ana2", seat.ConnID)
}

func TestJoinFallsBackToAnyDisconnectedSeat(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)

	require.NotNil(t, r.Disconnect(connID(2)))

	seat, err := r.Join("Zoe", "conn-zoe")
	require.NoError(t, err)
	assert.Equal(t, 2, seat.Index)
	assert.Equal(t, "Zoe", seat.Name)
	assert.Equal(t, RoleGuest, seat.Role)
}

func TestStartRequiresHostAndFullTable(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)

	guest := r.SeatByIndex(1)
	assert.ErrorIs(t, r.Start(guest, 42), ErrNotHost)

	host := r.SeatByIndex(0)
	r.Disconnect(connID(3))
	assert.ErrorIs(t, r.Start(host, 42), ErrNeedAllSeats)

	_, err := r.Join("Cara", connID(3))
	require.NoError(t, err)
	require.NoError(t, r.Start(host, 42))
	assert.True(t, r.Started)
	assert.Equal(t, uint32(42), r.Seed)
	for i := 0; i < Seats; i++ {
		assert.Len(t, r.Hands[i], 8)
	}

	assert.ErrorIs(t, r.Start(host, 43), ErrAlreadyStarted)
	assert.Equal(t, uint32(42), r.Seed, "failed start must not redeal")
}

func TestChooseGameGuards(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)

	_, err := r.ChooseGame(host, "Whist")
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, r.Start(host, 42))

	_, err = r.ChooseGame(r.SeatByIndex(2), "Whist")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	refusal, err := r.ChooseGame(host, "Whist")
	require.NoError(t, err)
	assert.Nil(t, refusal)
	assert.Equal(t, "Whist", r.CurrentGame)
	assert.Nil(t, r.Rentz)

	over, err := r.EndRound(host, "Whist")
	require.NoError(t, err)
	assert.False(t, over)
	assert.Equal(t, "", r.CurrentGame)

	_, err = r.ChooseGame(host, "Whist")
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestChooseRentzStartsEngine(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	// Replace the dealt hands with a clean synthetic deal so the refusal
	// check cannot trip.
	r.Hands = [Seats][]deck.Card{
		{{ID: 0, Suit: deck.Clubs, Rank: deck.Ten}},
		{{ID: 1, Suit: deck.Hearts, Rank: deck.King}},
		{{ID: 2, Suit: deck.Spades, Rank: deck.Queen}},
		{{ID: 3, Suit: deck.Diamonds, Rank: deck.Jack}},
	}

	refusal, err := r.ChooseGame(host, SubgameRentz)
	require.NoError(t, err)
	assert.Nil(t, refusal)
	require.NotNil(t, r.Rentz)
	assert.Equal(t, r.ChooserSeat, r.Rentz.Turn)
	assert.Equal(t, "Host", r.Rentz.Names[0])
	assert.Equal(t, "Ana", r.Rentz.Names[1])
}

func TestChooseRentzSurfacesRefusal(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	r.Hands = [Seats][]deck.Card{
		{
			{ID: 0, Suit: deck.Clubs, Rank: deck.Ace},
			{ID: 1, Suit: deck.Diamonds, Rank: deck.Ace},
			{ID: 2, Suit: deck.Hearts, Rank: deck.Ace},
			{ID: 3, Suit: deck.Spades, Rank: deck.Ace},
		},
		{{ID: 4, Suit: deck.Hearts, Rank: deck.King}},
		{{ID: 5, Suit: deck.Spades, Rank: deck.Queen}},
		{{ID: 6, Suit: deck.Diamonds, Rank: deck.Jack}},
	}

	refusal, err := r.ChooseGame(host, SubgameRentz)
	require.NoError(t, err)
	require.NotNil(t, refusal)
	assert.Equal(t, 0, refusal.Seat)
	assert.Equal(t, 4, refusal.Capete)
	assert.Nil(t, r.Rentz)
	assert.Equal(t, "", r.CurrentGame, "refused deal leaves no sub-game running")
}

func TestEndRoundDetectsGameOver(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	// Everyone has used everything except the chooser's last sub-game.
	for i := 0; i < Seats; i++ {
		r.ChosenGames[i] = append([]string(nil), Subgames...)
	}
	r.ChosenGames[r.ChooserSeat] = r.ChosenGames[r.ChooserSeat][:len(Subgames)-1]
	last := Subgames[len(Subgames)-1]

	over, err := r.EndRound(host, last)
	require.NoError(t, err)
	assert.True(t, over)

	// Recording is idempotent.
	assert.Equal(t, len(Subgames), len(r.ChosenGames[r.ChooserSeat]))
	over, err = r.EndRound(host, last)
	require.NoError(t, err)
	assert.True(t, over)
	assert.Equal(t, len(Subgames), len(r.ChosenGames[r.ChooserSeat]))
}

func TestNextRoundSkipsExhaustedSeats(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	r.ChosenGames[1] = append([]string(nil), Subgames...)
	oldSeed := r.Seed

	require.NoError(t, r.NextRound(host, 99))
	assert.Equal(t, 2, r.ChooserSeat, "seat 1 is exhausted and must be skipped")
	assert.Equal(t, uint32(99), r.Seed)
	assert.NotEqual(t, oldSeed, r.Seed)
	assert.Nil(t, r.Rentz)
	assert.Equal(t, "", r.CurrentGame)
}

func TestRedealSameChooserKeepsChooser(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))
	r.ChooserSeat = 2

	assert.ErrorIs(t, r.RedealSameChooser(r.SeatByIndex(1), 7), ErrNotHost)

	require.NoError(t, r.RedealSameChooser(host, 7))
	assert.Equal(t, 2, r.ChooserSeat)
	assert.Equal(t, uint32(7), r.Seed)
}

func TestProjectRevealsOnlyOwnHand(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	viewer := r.SeatByIndex(1)
	state := r.Project(viewer)

	// Own hand matches the authoritative hand card for card.
	assert.Equal(t, r.Hands[1], state.Players[1].Hand)

	// Every other hand exposes identifiers only.
	for i := 0; i < Seats; i++ {
		if i == 1 {
			continue
		}
		require.Len(t, state.Players[i].Hand, len(r.Hands[i]))
		for j, c := range state.Players[i].Hand {
			assert.Equal(t, r.Hands[i][j].ID, c.ID)
			assert.Zero(t, c.Suit)
			assert.Zero(t, c.Rank)
		}
	}

	assert.Equal(t, r.Seed, state.Seed)
	assert.Equal(t, r.ChooserSeat, state.ChooserIndex)
}

func TestProjectHostSeesDisconnectedSeats(t *testing.T) {
	t.Parallel()
	_, r := fullRoom(t)
	host := r.SeatByIndex(0)
	require.NoError(t, r.Start(host, 42))

	r.Disconnect(connID(2))

	state := r.Project(host)
	assert.Equal(t, r.Hands[0], state.Players[0].Hand, "own hand")
	assert.Equal(t, r.Hands[2], state.Players[2].Hand, "bot fallback hand")
	for _, c := range state.Players[1].Hand {
		assert.Zero(t, c.Suit, "connected guests stay masked")
	}

	// A guest never gets the fallback view.
	guestView := r.Project(r.SeatByIndex(1))
	for _, c := range guestView.Players[2].Hand {
		assert.Zero(t, c.Suit)
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Ana", "Ana"},
		{"  Ana   Maria  ", "Ana Maria"},
		{"Ștefan", "Ștefan"},
		{"check http://evil.example/x out", "check out"},
		{"<script>alert(1)</script>", "scriptalert1script"},
		{"🃏🃏🃏", "Player"},
		{"", "Player"},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
		{"dot.dash-under_score", "dot.dash-under_score"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}
}
