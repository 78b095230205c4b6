package lobby

import (
	"fmt"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Assignment is the result of seating a connection.
type Assignment struct {
	RoomID string
	Side   protocol.Side

	// Created is set when no room had a free seat and a new one was opened.
	Created bool

	// Backfill is set when the seat was vacated by a participant who left.
	Backfill bool
}

// Registry is the single owner of all room state. It is not safe for
// concurrent use; the Hub serializes every call through its event loop.
type Registry struct {
	rooms map[string]*Room

	// order keeps room ids in creation order so the seat scan is stable.
	order []string

	// byIdentity maps a participant to the room it sits in.
	byIdentity map[string]string

	// lastID only ever grows, so deleted room ids are never handed out again.
	lastID uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		byIdentity: make(map[string]string),
	}
}

// Assign seats identity in the oldest room with a free seat, or opens a new
// room when every room is full. Assigning an identity twice returns its
// existing seat.
func (r *Registry) Assign(identity string) Assignment {
	if roomID, ok := r.byIdentity[identity]; ok {
		for _, p := range r.rooms[roomID].Participants {
			if p.Identity == identity {
				return Assignment{RoomID: roomID, Side: p.Side}
			}
		}
	}

	for _, id := range r.order {
		room := r.rooms[id]
		if room.full() {
			continue
		}

		a := Assignment{RoomID: room.ID, Side: room.openSide(), Backfill: room.vacated}
		room.Participants = append(room.Participants, Participant{Identity: identity, Side: a.Side})
		room.vacated = false
		r.byIdentity[identity] = room.ID
		return a
	}

	r.lastID++
	room := &Room{
		ID:           fmt.Sprintf("room-%d", r.lastID),
		Participants: []Participant{{Identity: identity, Side: protocol.First}},
	}
	r.rooms[room.ID] = room
	r.order = append(r.order, room.ID)
	r.byIdentity[identity] = room.ID

	return Assignment{RoomID: room.ID, Side: protocol.First, Created: true}
}

// Remove takes identity out of its room and returns the room id together with
// whoever is still seated there. ok is false if identity holds no seat, which
// makes repeated disconnects harmless. Remove never deletes the room itself.
func (r *Registry) Remove(identity string) (roomID string, remaining []Participant, ok bool) {
	roomID, ok = r.byIdentity[identity]
	if !ok {
		return "", nil, false
	}
	delete(r.byIdentity, identity)

	room, exists := r.rooms[roomID]
	if !exists {
		return roomID, nil, true
	}
	if room.remove(identity) && len(room.Participants) > 0 {
		room.vacated = true
	}

	return roomID, append([]Participant(nil), room.Participants...), true
}

// Delete drops a room and unseats anyone still in it. The unseated
// participants are returned.
func (r *Registry) Delete(roomID string) []Participant {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}

	for _, p := range room.Participants {
		delete(r.byIdentity, p.Identity)
	}
	delete(r.rooms, roomID)

	for i, id := range r.order {
		if id == roomID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return room.Participants
}

// Room returns a copy of the room's current state.
func (r *Registry) Room(roomID string) (RoomSnapshot, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return RoomSnapshot{}, false
	}
	return room.snapshot(), true
}

// Members lists the participants of roomID, or nil if the room is unknown.
func (r *Registry) Members(roomID string) []Participant {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return append([]Participant(nil), room.Participants...)
}

// RoomOf looks up the room identity is seated in.
func (r *Registry) RoomOf(identity string) (string, bool) {
	roomID, ok := r.byIdentity[identity]
	return roomID, ok
}

// Len is the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Rooms returns snapshots of all rooms in creation order.
func (r *Registry) Rooms() []RoomSnapshot {
	out := make([]RoomSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rooms[id].snapshot())
	}
	return out
}
