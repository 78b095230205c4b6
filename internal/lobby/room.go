package lobby

import "github.com/BioHazard786/chessrelay/internal/protocol"

// roomCapacity is fixed: one player per side.
const roomCapacity = 2

// Participant is a single connection seated in a room.
type Participant struct {
	// Identity is the per-connection token handed out by the transport.
	Identity string

	// Side decides who moves first in the client's game logic.
	Side protocol.Side
}

// Room pairs at most two participants for one game. Rooms live inside the
// Registry; everything outside it works with RoomSnapshot copies.
type Room struct {
	ID           string
	Participants []Participant

	// vacated is set while a seat that someone left is still open.
	vacated bool
}

func (r *Room) full() bool {
	return len(r.Participants) >= roomCapacity
}

// openSide is the seat a newcomer takes. An empty room always hands out
// First; otherwise the newcomer gets whichever seat the occupant left free.
func (r *Room) openSide() protocol.Side {
	if len(r.Participants) == 0 {
		return protocol.First
	}
	return r.Participants[0].Side.Opposite()
}

func (r *Room) remove(identity string) bool {
	for i, p := range r.Participants {
		if p.Identity == identity {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) snapshot() RoomSnapshot {
	return RoomSnapshot{
		ID:           r.ID,
		Participants: append([]Participant(nil), r.Participants...),
	}
}

// RoomSnapshot is a detached copy of a room's state.
type RoomSnapshot struct {
	ID           string
	Participants []Participant
}

// Full reports whether both seats were taken when the snapshot was made.
func (s RoomSnapshot) Full() bool {
	return len(s.Participants) >= roomCapacity
}
