// Package room owns the authoritative state of a game room: seat
// bookkeeping, the sub-game catalog, dealing, and the per-viewer masked
// projections every client sees.
package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/rentzmp/rentz-server/internal/dealer"
	"github.com/rentzmp/rentz-server/internal/deck"
	"github.com/rentzmp/rentz-server/internal/rentz"
)

// Seats is the fixed seat count of a room
const Seats = 4

// Subgames is the fixed catalog every chooser works through once per match
var Subgames = []string{"Carouri", "Dame", "Popa Roșu", "10 Trefla", "Whist", "Totale", "Rentz"}

// SubgameRentz is the one sub-game the server enforces itself; the rest are
// relayed to clients, a documented trust boundary of the legacy flow.
const SubgameRentz = "Rentz"

// Validation failures reported back to the requesting viewer only
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNotHost        = errors.New("only the host may do that")
	ErrNotYourTurn    = errors.New("not your turn to choose")
	ErrAlreadyUsed    = errors.New("sub-game already used by this seat")
	ErrAlreadyStarted = errors.New("room already started")
	ErrNotStarted     = errors.New("room not started")
	ErrNeedAllSeats   = errors.New("every seat must be connected to start")
	ErrNoRentzRunning = errors.New("no Rentz round in progress")
)

// Role is the capability a seat carries. Authority checks go through the
// role, never through seat index comparisons.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Seat is one of the four player slots. A seat keeps its reservation while
// disconnected so the same player can reclaim it; ConnID is empty in that
// window.
type Seat struct {
	Index  int
	Name   string
	Role   Role
	ConnID string
}

// Connected reports whether a live connection currently holds the seat
func (s *Seat) Connected() bool {
	return s.ConnID != ""
}

// IsHost reports whether the seat carries the host capability
func (s *Seat) IsHost() bool {
	return s.Role == RoleHost
}

// Room is the authoritative state for one session. The embedded mutex
// serializes all access: the dispatcher locks the room for the full span of
// handling one message, mutation and broadcast included, so viewers observe
// state updates in mutation order.
type Room struct {
	sync.Mutex

	Code        string
	CreatedAt   time.Time
	MaxHumans   int
	Started     bool
	ChooserSeat int
	ChosenGames [Seats][]string
	CurrentGame string
	Seed        uint32
	Hands       [Seats][]deck.Card
	Rentz       *rentz.State
	Seats       []*Seat

	lastActive time.Time
	clock      quartz.Clock
	logger     *log.Logger
}

func newRoom(code, hostName, connID string, maxHumans int, clock quartz.Clock, logger *log.Logger) *Room {
	now := clock.Now()
	r := &Room{
		Code:       code,
		CreatedAt:  now,
		MaxHumans:  maxHumans,
		Seats:      []*Seat{{Index: 0, Name: hostName, Role: RoleHost, ConnID: connID}},
		lastActive: now,
		clock:      clock,
		logger:     logger,
	}
	for i := range r.ChosenGames {
		r.ChosenGames[i] = []string{}
	}
	return r
}

func (r *Room) touch() {
	r.lastActive = r.clock.Now()
}

// ConnectedCount returns the number of seats with a live connection
func (r *Room) ConnectedCount() int {
	count := 0
	for _, s := range r.Seats {
		if s.Connected() {
			count++
		}
	}
	return count
}

// SeatByConn returns the seat held by the given connection, or nil
func (r *Room) SeatByConn(connID string) *Seat {
	for _, s := range r.Seats {
		if s.ConnID == connID {
			return s
		}
	}
	return nil
}

// SeatByIndex returns the seat record at index, or nil when unreserved
func (r *Room) SeatByIndex(index int) *Seat {
	for _, s := range r.Seats {
		if s.Index == index {
			return s
		}
	}
	return nil
}

// SeatName returns the display name for a seat index, with the bot
// placeholder for seats that were never claimed
func (r *Room) SeatName(index int) string {
	if s := r.SeatByIndex(index); s != nil {
		return s.Name
	}
	return fmt.Sprintf("Bot %d", index+1)
}

// Join claims a seat for a new connection. Reclaim policy: a disconnected
// seat previously held by the same display name wins, then any disconnected
// seat, then the lowest unused index. Capacity counts connected players
// only, so reservations never block a rejoin.
func (r *Room) Join(name, connID string) (*Seat, error) {
	if r.ConnectedCount() >= Seats {
		return nil, ErrRoomFull
	}

	var reclaim *Seat
	for _, s := range r.Seats {
		if s.Connected() {
			continue
		}
		if s.Name == name {
			reclaim = s
			break
		}
		if reclaim == nil {
			reclaim = s
		}
	}

	if reclaim != nil {
		reclaim.Name = name
		reclaim.ConnID = connID
		r.touch()
		return reclaim, nil
	}

	used := make(map[int]bool, len(r.Seats))
	for _, s := range r.Seats {
		used[s.Index] = true
	}
	index := 0
	for used[index] {
		index++
	}

	seat := &Seat{Index: index, Name: name, Role: RoleGuest, ConnID: connID}
	r.Seats = append(r.Seats, seat)
	r.touch()
	return seat, nil
}

// Disconnect releases the connection but keeps the seat reserved for a
// later reclaim
func (r *Room) Disconnect(connID string) *Seat {
	seat := r.SeatByConn(connID)
	if seat == nil {
		return nil
	}
	seat.ConnID = ""
	r.touch()
	return seat
}

// Start deals the first round. Host only; requires every expected player
// connected; a second start fails without mutating anything.
func (r *Room) Start(seat *Seat, seed uint32) error {
	if !seat.IsHost() {
		return ErrNotHost
	}
	if r.Started {
		return ErrAlreadyStarted
	}
	if r.ConnectedCount() != r.MaxHumans {
		return fmt.Errorf("%w: need %d connected", ErrNeedAllSeats, r.MaxHumans)
	}

	r.Started = true
	r.redeal(seed)
	r.logger.Info("Room started", "seed", seed)
	return nil
}

// ChooseGame records the chooser's pick for this round. Choosing Rentz
// initializes the authoritative engine; a refused deal is surfaced to the
// caller and leaves no sub-game running.
func (r *Room) ChooseGame(seat *Seat, name string) (*rentz.Refusal, error) {
	if !r.Started {
		return nil, ErrNotStarted
	}
	if seat.Index != r.ChooserSeat {
		return nil, ErrNotYourTurn
	}
	for _, used := range r.ChosenGames[r.ChooserSeat] {
		if used == name {
			return nil, ErrAlreadyUsed
		}
	}

	r.CurrentGame = name
	r.Rentz = nil
	r.touch()

	if name != SubgameRentz {
		return nil, nil
	}

	var names [Seats]string
	for i := range names {
		names[i] = r.SeatName(i)
	}
	state, refusal := rentz.New(r.Hands, r.ChooserSeat, names)
	if refusal != nil {
		r.CurrentGame = ""
		r.logger.Info("Rentz deal refused", "seat", refusal.Seat, "capete", refusal.Capete)
		return refusal, nil
	}
	r.Rentz = state
	return nil, nil
}

// EndRound marks the current sub-game as used by the chooser. Host only and
// idempotent; reports whether every seat has now exhausted the catalog.
func (r *Room) EndRound(seat *Seat, name string) (gameOver bool, err error) {
	if !seat.IsHost() {
		return false, ErrNotHost
	}
	if !r.Started {
		return false, ErrNotStarted
	}

	if name == "" {
		name = r.CurrentGame
	}
	if name != "" && !contains(r.ChosenGames[r.ChooserSeat], name) {
		r.ChosenGames[r.ChooserSeat] = append(r.ChosenGames[r.ChooserSeat], name)
	}
	r.CurrentGame = ""
	r.Rentz = nil
	r.touch()

	for _, used := range r.ChosenGames {
		for _, game := range Subgames {
			if !contains(used, game) {
				return false, nil
			}
		}
	}
	return true, nil
}

// NextRound rotates the chooser to the next seat with sub-games left,
// bounded to one full cycle, and redeals. Host only.
func (r *Room) NextRound(seat *Seat, seed uint32) error {
	if !seat.IsHost() {
		return ErrNotHost
	}
	if !r.Started {
		return ErrNotStarted
	}

	next := r.ChooserSeat
	for tries := 0; tries < Seats; tries++ {
		next = (next + 1) % Seats
		if r.hasRemaining(next) {
			break
		}
	}
	r.ChooserSeat = next
	r.redeal(seed)
	return nil
}

// RedealSameChooser redeals without rotating the chooser, used after a
// refused Rentz deal. Host only.
func (r *Room) RedealSameChooser(seat *Seat, seed uint32) error {
	if !seat.IsHost() {
		return ErrNotHost
	}
	if !r.Started {
		return ErrNotStarted
	}
	r.redeal(seed)
	return nil
}

// ApplyRentzIntent routes a play or pass to the running Rentz engine
func (r *Room) ApplyRentzIntent(seat *Seat, intent rentz.Intent) (*rentz.Result, error) {
	if !r.Started || r.CurrentGame != SubgameRentz || r.Rentz == nil {
		return nil, ErrNoRentzRunning
	}
	result, err := r.Rentz.Apply(seat.Index, intent)
	if err == nil {
		r.touch()
	}
	return result, err
}

func (r *Room) redeal(seed uint32) {
	r.Seed = seed
	r.Hands, _ = dealer.Deal(seed)
	r.Rentz = nil
	r.CurrentGame = ""
	r.touch()
}

func (r *Room) hasRemaining(seat int) bool {
	for _, game := range Subgames {
		if !contains(r.ChosenGames[seat], game) {
			return true
		}
	}
	return false
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
