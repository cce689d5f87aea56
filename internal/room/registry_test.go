package room

import (
	"strconv"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentzmp/rentz-server/internal/randutil"
)

// seqSource replays a fixed sequence of draws, for forcing code collisions
type seqSource struct {
	vals []int
	next int
}

func (s *seqSource) IntN(n int) int {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v % n
}

func TestRoomCodesAreSixDigits(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	for i := 0; i < 20; i++ {
		r, _, err := reg.Create("Host", 4, "c"+strconv.Itoa(i))
		require.NoError(t, err)
		require.Len(t, r.Code, 6)
		n, err := strconv.Atoi(r.Code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
	assert.Equal(t, 20, reg.Len())
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	t.Parallel()

	// The first room takes code 100005; the second draws the same number
	// twice before landing on a free one.
	reg := NewRegistry(testLogger(), &seqSource{vals: []int{5, 5, 5, 7}}, quartz.NewReal(), 0)

	first, _, err := reg.Create("A", 4, "c1")
	require.NoError(t, err)
	assert.Equal(t, "100005", first.Code)

	second, _, err := reg.Create("B", 4, "c2")
	require.NoError(t, err)
	assert.Equal(t, "100007", second.Code)
	assert.Equal(t, 2, reg.Len())
}

func TestLookupUnknownCode(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	_, err := reg.Lookup("000000")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	r, _, err := reg.Create("Host", 4, "c1")
	require.NoError(t, err)
	got, err := reg.Lookup(r.Code)
	require.NoError(t, err)
	assert.Same(t, r, got)
}

func TestReapRemovesOnlyIdleRooms(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	reg := NewRegistry(testLogger(), randutil.New(3), mock, time.Hour)

	idle, _, err := reg.Create("Idle", 4, "c-idle")
	require.NoError(t, err)
	live, _, err := reg.Create("Live", 4, "c-live")
	require.NoError(t, err)

	// Idle loses its only player; Live keeps a connection.
	idle.Lock()
	idle.Disconnect("c-idle")
	idle.Unlock()

	mock.Advance(2 * time.Hour)

	assert.Equal(t, 1, reg.Reap())
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Lookup(idle.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.Lookup(live.Code)
	assert.NoError(t, err)
}

func TestReapKeepsRecentRooms(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	reg := NewRegistry(testLogger(), randutil.New(4), mock, time.Hour)

	r, _, err := reg.Create("Host", 4, "c1")
	require.NoError(t, err)
	r.Lock()
	r.Disconnect("c1")
	r.Unlock()

	mock.Advance(30 * time.Minute)
	assert.Equal(t, 0, reg.Reap())
	assert.Equal(t, 1, reg.Len())
}
