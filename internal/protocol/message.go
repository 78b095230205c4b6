package protocol

// Message defines the envelope for every C2S (client to server) and S2C
// (server to client) websocket frame.
type Message struct {
	Type    string   `json:"type" msgpack:"type"`
	RoomID  string   `json:"room_id,omitempty" msgpack:"room_id,omitempty"`
	Side    Side     `json:"side,omitempty" msgpack:"side,omitempty"`
	Payload *Payload `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Message type constants.
const (
	// Sent by either side.
	MessageTypeMove = "move"

	// Sent by the server only.
	MessageTypeRoomJoined   = "room_joined"
	MessageTypeOpponentLeft = "opponent_left"
	MessageTypeRoomClosed   = "room_closed"
)

// MovePayload is the body the bundled terminal client puts in a move. The
// server never looks at it; browser clients are free to send anything.
type MovePayload struct {
	Move string `json:"move" msgpack:"move"`
}

// NewMove builds an inbound move message for roomID. An empty roomID lets the
// server route the move to the sender's current room.
func NewMove(roomID string, payload *Payload) *Message {
	return &Message{
		Type:    MessageTypeMove,
		RoomID:  roomID,
		Payload: payload,
	}
}
