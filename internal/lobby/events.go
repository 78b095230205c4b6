package lobby

import (
	"time"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// EventType names a room lifecycle change.
type EventType string

const (
	EventRoomCreated       EventType = "room_created"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventRoomDeleted       EventType = "room_deleted"
)

// Event is published for every room lifecycle change. Moves are not events.
type Event struct {
	Type     EventType     `json:"type"`
	RoomID   string        `json:"room_id"`
	Identity string        `json:"identity,omitempty"`
	Side     protocol.Side `json:"side,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	At       time.Time     `json:"at"`
}

// EventSink receives lifecycle events from the hub goroutine. Publish must
// not block.
type EventSink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
