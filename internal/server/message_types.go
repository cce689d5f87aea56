package server

// MessageType discriminates protocol messages. Inbound messages with an
// unknown type are answered with an error; anything that fails to parse at
// all is dropped.
type MessageType string

const (
	// Client to server messages
	MessageTypeCreate            MessageType = "create"
	MessageTypeJoin              MessageType = "join"
	MessageTypeStart             MessageType = "start"
	MessageTypeChooseGame        MessageType = "choose_game"
	MessageTypeRoundEnd          MessageType = "round_end"
	MessageTypeNextRound         MessageType = "next_round"
	MessageTypeRedealSameChooser MessageType = "redeal_same_chooser"
	MessageTypeRentzStateReq     MessageType = "rentz_state_req"
	MessageTypeRentzIntent       MessageType = "rentz_intent"
	MessageTypePlayCard          MessageType = "play_card"
	MessageTypeBotPlay           MessageType = "bot_play"

	// Server to client messages; choose_game and play_card are echoed back
	// out under the same type.
	MessageTypeHello        MessageType = "hello"
	MessageTypeJoined       MessageType = "joined"
	MessageTypeRoomUpdate   MessageType = "room_update"
	MessageTypeStarted      MessageType = "started"
	MessageTypeInitState    MessageType = "init_state"
	MessageTypeChosenUpdate MessageType = "chosen_update"
	MessageTypeRentzState   MessageType = "rentz_state"
	MessageTypeRentzDone    MessageType = "rentz_done"
	MessageTypeRentzRefused MessageType = "rentz_refused"
	MessageTypeRoundStarted MessageType = "round_started"
	MessageTypeGameOver     MessageType = "game_over"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
