package server

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/rentzmp/rentz-server/internal/dealer"
	"github.com/rentzmp/rentz-server/internal/rentz"
	"github.com/rentzmp/rentz-server/internal/room"
)

// Service routes parsed messages to the room registry and the Rentz engine.
// Each message is handled to completion under its room's lock, mutation and
// broadcast included, so every viewer observes state updates in the order
// the mutations occurred. Only the requester hears about failures.
type Service struct {
	registry *room.Registry
	logger   *log.Logger
	clock    quartz.Clock
	rng      dealer.IntSource

	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewService creates the dispatcher. The rand source feeds deal seeds and is
// drawn from concurrently by every connection's read goroutine, so it must be
// a synchronized one; the clock feeds room timestamps.
func NewService(registry *room.Registry, logger *log.Logger, clock quartz.Clock, rng dealer.IntSource) *Service {
	return &Service{
		registry: registry,
		logger:   logger.WithPrefix("service"),
		clock:    clock,
		rng:      rng,
		conns:    make(map[string]*Connection),
	}
}

// Register tracks a connection so broadcasts can reach it
func (s *Service) Register(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.ID()] = c
}

// Unregister forgets a connection
func (s *Service) Unregister(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c.ID())
}

func (s *Service) connByID(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// Dispatch parses and routes one inbound message. Unknown types earn an
// error response; unparseable payloads are reported to the sender only.
func (s *Service) Dispatch(c *Connection, msg *Message) {
	s.logger.Debug("Received message", "type", msg.Type, "conn", c.ID())

	switch msg.Type {
	case MessageTypeCreate:
		var data CreateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create data")
			return
		}
		s.handleCreate(c, data)

	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		s.handleJoin(c, data)

	case MessageTypeStart:
		s.handleStart(c)

	case MessageTypeChooseGame:
		var data ChooseGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse choose_game data")
			return
		}
		s.handleChooseGame(c, data)

	case MessageTypeRoundEnd:
		var data RoundEndData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse round_end data")
			return
		}
		s.handleRoundEnd(c, data)

	case MessageTypeNextRound:
		s.handleNextRound(c)

	case MessageTypeRedealSameChooser:
		s.handleRedealSameChooser(c)

	case MessageTypeRentzStateReq:
		s.handleRentzStateReq(c)

	case MessageTypeRentzIntent:
		var data RentzIntentData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse rentz_intent data")
			return
		}
		s.handleRentzIntent(c, data)

	case MessageTypePlayCard:
		var data PlayCardData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play_card data")
			return
		}
		s.handlePlayCard(c, data)

	case MessageTypeBotPlay:
		var data BotPlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse bot_play data")
			return
		}
		s.handleBotPlay(c, data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (s *Service) handleCreate(c *Connection, data CreateData) {
	if r, _ := c.Membership(); r != nil {
		c.sendError("already_in_room", "Already in a room")
		return
	}

	// An absent maxHumans means a full table.
	if data.MaxHumans == 0 {
		data.MaxHumans = room.Seats
	}

	name := room.SanitizeName(data.Name)
	r, seat, err := s.registry.Create(name, data.MaxHumans, c.ID())
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}

	c.SetMembership(r, seat)

	r.Lock()
	defer r.Unlock()
	s.sendJoined(c, r, seat)
	s.broadcastRoomUpdate(r)
}

func (s *Service) handleJoin(c *Connection, data JoinData) {
	if r, _ := c.Membership(); r != nil {
		c.sendError("already_in_room", "Already in a room")
		return
	}

	r, err := s.registry.Lookup(strings.TrimSpace(data.Code))
	if err != nil {
		c.sendError(errorCode(err), "Room not found")
		return
	}

	name := room.SanitizeName(data.Name)

	r.Lock()
	defer r.Unlock()

	seat, err := r.Join(name, c.ID())
	if err != nil {
		c.sendError(errorCode(err), "Room is full")
		return
	}

	c.SetMembership(r, seat)
	s.sendJoined(c, r, seat)
	s.broadcastRoomUpdate(r)

	// A reclaimed seat mid-round gets its state back immediately.
	if r.Started {
		s.sendInitState(r, seat)
		if r.Rentz != nil {
			s.sendRentzState(r, seat)
		}
	}
}

func (s *Service) handleStart(c *Connection) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	seed := dealer.NewSeed(s.clock.Now(), s.rng)
	if err := r.Start(seat, seed); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	s.pushInitState(r)
	s.broadcast(r, MessageTypeStarted, struct{}{})
}

func (s *Service) handleChooseGame(c *Connection, data ChooseGameData) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	refusal, err := r.ChooseGame(seat, data.GameName)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	if refusal != nil {
		s.broadcast(r, MessageTypeRentzRefused, RentzRefusedData{Result: RefusalInfo{
			Refused:      true,
			RefuserIndex: refusal.Seat,
			Capete:       refusal.Capete,
		}})
		return
	}

	s.broadcast(r, MessageTypeChooseGame, ChooseGameBroadcast{
		GameName:     data.GameName,
		ChooserIndex: r.ChooserSeat,
		ChosenGames:  r.ChosenGames,
	})

	if r.Rentz != nil {
		s.pushRentzState(r)
	}
}

func (s *Service) handleRoundEnd(c *Connection, data RoundEndData) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	gameOver, err := r.EndRound(seat, data.GameName)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	s.broadcast(r, MessageTypeChosenUpdate, ChosenUpdateData{
		ChosenGames:  r.ChosenGames,
		ChooserIndex: r.ChooserSeat,
	})

	if gameOver {
		s.broadcast(r, MessageTypeGameOver, struct{}{})
	}
}

func (s *Service) handleNextRound(c *Connection) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	seed := dealer.NewSeed(s.clock.Now(), s.rng)
	if err := r.NextRound(seat, seed); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	s.pushInitState(r)
	s.broadcast(r, MessageTypeRoundStarted, RoundStartedData{
		ChooserIndex: r.ChooserSeat,
		ChosenGames:  r.ChosenGames,
	})
}

func (s *Service) handleRedealSameChooser(c *Connection) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	seed := dealer.NewSeed(s.clock.Now(), s.rng)
	if err := r.RedealSameChooser(seat, seed); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	s.pushInitState(r)
	s.broadcast(r, MessageTypeRoundStarted, RoundStartedData{
		ChooserIndex: r.ChooserSeat,
		ChosenGames:  r.ChosenGames,
	})
}

func (s *Service) handleRentzStateReq(c *Connection) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	if !r.Started || r.Rentz == nil {
		return
	}
	s.sendRentzState(r, seat)
}

func (s *Service) handleRentzIntent(c *Connection, data RentzIntentData) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	intent := rentz.Intent{
		Kind:   rentz.IntentKind(data.Action.Kind),
		CardID: data.Action.CardID,
	}

	result, err := r.ApplyRentzIntent(seat, intent)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	s.pushRentzState(r)

	if result != nil {
		s.broadcast(r, MessageTypeRentzDone, RentzDoneData{Result: *result})
	}
}

func (s *Service) handlePlayCard(c *Connection, data PlayCardData) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	if !r.Started {
		return
	}

	s.logger.Debug("Relaying play", "room", r.Code, "seat", seat.Index, "card", data.Card.ID)
	s.broadcast(r, MessageTypePlayCard, PlayCardBroadcast{Seat: seat.Index, Card: data.Card})
}

func (s *Service) handleBotPlay(c *Connection, data BotPlayData) {
	r, seat := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	if !r.Started {
		return
	}
	if !seat.IsHost() {
		c.sendError("not_host", "Only the host may play for bot seats")
		return
	}
	if data.Seat < 0 || data.Seat >= room.Seats {
		c.sendError("invalid_request", "Seat out of range")
		return
	}

	s.logger.Debug("Relaying bot play", "room", r.Code, "botSeat", data.Seat, "card", data.Card.ID)
	s.broadcast(r, MessageTypePlayCard, PlayCardBroadcast{Seat: data.Seat, Card: data.Card})
}

// HandleDisconnect releases the connection's seat reservation-style and
// tells the remaining viewers
func (s *Service) HandleDisconnect(c *Connection) {
	s.Unregister(c)

	r, _ := c.Membership()
	if r == nil {
		return
	}

	r.Lock()
	defer r.Unlock()

	if seat := r.Disconnect(c.ID()); seat != nil {
		s.logger.Info("Viewer disconnected", "room", r.Code, "seat", seat.Index)
		s.broadcastRoomUpdate(r)
	}
}

// sendJoined confirms a seat to its new holder
func (s *Service) sendJoined(c *Connection, r *room.Room, seat *room.Seat) {
	msg, err := NewMessage(MessageTypeJoined, JoinedData{
		You:  YouInfo{ID: c.ID(), Seat: seat.Index, Name: seat.Name},
		Room: r.Public(),
	})
	if err != nil {
		s.logger.Error("Failed to create joined message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (s *Service) broadcastRoomUpdate(r *room.Room) {
	s.broadcast(r, MessageTypeRoomUpdate, RoomUpdateData{Room: r.Public()})
}

// broadcast sends one payload to every connected seat in the room. Delivery
// is best effort; one failed send never aborts the rest.
func (s *Service) broadcast(r *room.Room, messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("Failed to create broadcast message", "error", err, "type", messageType)
		return
	}

	count := 0
	for _, seat := range r.Seats {
		if !seat.Connected() {
			continue
		}
		conn := s.connByID(seat.ConnID)
		if conn == nil {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send to viewer", "error", err, "conn", seat.ConnID)
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcast", "room", r.Code, "type", messageType, "recipients", count)
}

// pushInitState sends each connected seat its own masked deal
func (s *Service) pushInitState(r *room.Room) {
	for _, seat := range r.Seats {
		if seat.Connected() {
			s.sendInitState(r, seat)
		}
	}
}

func (s *Service) sendInitState(r *room.Room, seat *room.Seat) {
	msg, err := NewMessage(MessageTypeInitState, InitStateData{
		Room:  r.Public(),
		State: r.Project(seat),
	})
	if err != nil {
		s.logger.Error("Failed to create init_state message", "error", err)
		return
	}
	if conn := s.connByID(seat.ConnID); conn != nil {
		_ = conn.SendMessage(msg)
	}
}

// pushRentzState sends each connected seat its own masked Rentz snapshot
func (s *Service) pushRentzState(r *room.Room) {
	for _, seat := range r.Seats {
		if seat.Connected() {
			s.sendRentzState(r, seat)
		}
	}
}

func (s *Service) sendRentzState(r *room.Room, seat *room.Seat) {
	if r.Rentz == nil {
		return
	}
	msg, err := NewMessage(MessageTypeRentzState, RentzStateData{State: r.Rentz.Snapshot(seat.Index)})
	if err != nil {
		s.logger.Error("Failed to create rentz_state message", "error", err)
		return
	}
	if conn := s.connByID(seat.ConnID); conn != nil {
		_ = conn.SendMessage(msg)
	}
}

// errorCode maps domain errors onto protocol error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrRoomFull):
		return "room_full"
	case errors.Is(err, room.ErrNotHost):
		return "not_host"
	case errors.Is(err, room.ErrNotYourTurn), errors.Is(err, rentz.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, room.ErrAlreadyUsed):
		return "already_used"
	case errors.Is(err, room.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, room.ErrNotStarted):
		return "not_started"
	case errors.Is(err, room.ErrNeedAllSeats):
		return "need_players"
	case errors.Is(err, room.ErrNoRentzRunning):
		return "no_rentz"
	case errors.Is(err, rentz.ErrAlreadyFinished):
		return "already_finished"
	case errors.Is(err, rentz.ErrMustPlay):
		return "must_play"
	case errors.Is(err, rentz.ErrCardNotHeld):
		return "card_not_held"
	case errors.Is(err, rentz.ErrIllegalMove):
		return "illegal_move"
	default:
		return "invalid_request"
	}
}
