package server

import (
	"encoding/json"
	"time"

	"github.com/rentzmp/rentz-server/internal/deck"
	"github.com/rentzmp/rentz-server/internal/rentz"
	"github.com/rentzmp/rentz-server/internal/room"
)

// Message is the envelope for every protocol message in both directions
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateData struct {
	Name      string `json:"name"`
	MaxHumans int    `json:"maxHumans"`
}

type JoinData struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ChooseGameData struct {
	GameName string `json:"gameName"`
}

type RoundEndData struct {
	GameName string `json:"gameName"`
}

type RentzActionData struct {
	Kind   string `json:"kind"`
	CardID int    `json:"cardId"`
}

type RentzIntentData struct {
	Action RentzActionData `json:"action"`
}

type PlayCardData struct {
	Card deck.Card `json:"card"`
}

type BotPlayData struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// Server → Client Messages

type HelloData struct {
	ID string `json:"id"`
}

type YouInfo struct {
	ID   string `json:"id"`
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type JoinedData struct {
	You  YouInfo   `json:"you"`
	Room room.Info `json:"room"`
}

type RoomUpdateData struct {
	Room room.Info `json:"room"`
}

type InitStateData struct {
	Room  room.Info        `json:"room"`
	State room.MaskedState `json:"state"`
}

type ChooseGameBroadcast struct {
	GameName     string               `json:"gameName"`
	ChooserIndex int                  `json:"chooserIndex"`
	ChosenGames  [room.Seats][]string `json:"chosenGames"`
}

type ChosenUpdateData struct {
	ChosenGames  [room.Seats][]string `json:"chosenGames"`
	ChooserIndex int                  `json:"chooserIndex"`
}

type RoundStartedData struct {
	ChooserIndex int                  `json:"chooserIndex"`
	ChosenGames  [room.Seats][]string `json:"chosenGames"`
}

type RentzStateData struct {
	State rentz.Snapshot `json:"state"`
}

type RentzDoneData struct {
	Result rentz.Result `json:"result"`
}

// RefusalInfo reports a refused Rentz deal to every viewer
type RefusalInfo struct {
	Refused      bool `json:"refused"`
	RefuserIndex int  `json:"refuserIndex"`
	Capete       int  `json:"capete"`
}

type RentzRefusedData struct {
	Result RefusalInfo `json:"result"`
}

// PlayCardBroadcast relays a non-Rentz play to every viewer. The server does
// not validate these; rule enforcement for the other sub-games lives in the
// clients, a documented trust boundary.
type PlayCardBroadcast struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
