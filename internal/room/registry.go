package room

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// DefaultTTL is how long a room with no connected players survives before
// the reaper removes it
const DefaultTTL = 24 * time.Hour

// codeAttempts bounds the collision retry loop when allocating codes
const codeAttempts = 64

// RandSource supplies the random draws for room codes. *rand.Rand from
// math/rand/v2 satisfies it; tests inject stubs to force collisions.
type RandSource interface {
	IntN(n int) int
}

// Registry maps room codes to rooms. It is an explicit dependency of the
// dispatcher rather than process-global state, created once at startup and
// pruned by the reaper.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	rng    RandSource
	clock  quartz.Clock
	ttl    time.Duration
	logger *log.Logger
}

// NewRegistry creates an empty registry. A non-positive ttl falls back to
// DefaultTTL.
func NewRegistry(logger *log.Logger, rng RandSource, clock quartz.Clock, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		rng:    rng,
		clock:  clock,
		ttl:    ttl,
		logger: logger.WithPrefix("registry"),
	}
}

// Create allocates a fresh room with a unique 6-digit code and seats the
// creator as host on seat 0. maxHumans is clamped to [1,4].
func (g *Registry) Create(hostName string, maxHumans int, connID string) (*Room, *Seat, error) {
	if maxHumans < 1 {
		maxHumans = 1
	}
	if maxHumans > Seats {
		maxHumans = Seats
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	code, err := g.newCode()
	if err != nil {
		return nil, nil, err
	}

	r := newRoom(code, hostName, connID, maxHumans, g.clock, g.logger.With("room", code))
	g.rooms[code] = r
	g.logger.Info("Room created", "code", code, "host", hostName, "maxHumans", maxHumans)
	return r, r.Seats[0], nil
}

// newCode draws 6-digit codes until one is unused. Callers hold g.mu.
func (g *Registry) newCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := strconv.Itoa(100000 + g.rng.IntN(900000))
		if _, taken := g.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique room code after %d attempts", codeAttempts)
}

// Lookup resolves a room code
func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Len returns the number of live rooms
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Reap removes rooms that have had no connected players for longer than the
// TTL and returns how many were removed
func (g *Registry) Reap() int {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	reaped := 0
	for code, r := range g.rooms {
		r.Lock()
		idle := r.ConnectedCount() == 0 && now.Sub(r.lastActive) > g.ttl
		r.Unlock()
		if idle {
			delete(g.rooms, code)
			reaped++
			g.logger.Info("Reaped idle room", "code", code)
		}
	}
	return reaped
}

// RunReaper prunes idle rooms on the given interval until ctx is cancelled
func (g *Registry) RunReaper(ctx context.Context, interval time.Duration) error {
	waiter := g.clock.TickerFunc(ctx, interval, func() error {
		g.Reap()
		return nil
	}, "reaper")
	return waiter.Wait()
}
