package lobby

import (
	"context"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Stats is a point-in-time view of the hub, served on /stats.
type Stats struct {
	Rooms        int         `json:"total_rooms"`
	Participants int         `json:"total_participants"`
	Connections  int         `json:"connections"`
	RoomList     []RoomStats `json:"rooms"`
}

// RoomStats describes one room. Identities are left out on purpose; they are
// the only thing that ties a socket to a seat.
type RoomStats struct {
	ID             string          `json:"room_id"`
	Sides          []protocol.Side `json:"sides"`
	PendingCleanup bool            `json:"pending_cleanup"`
}

// Stats asks the event loop for a snapshot.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)

	select {
	case h.stats <- reply:
	case <-h.quit:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) snapshot() Stats {
	rooms := h.registry.Rooms()
	s := Stats{
		Rooms:       len(rooms),
		Connections: len(h.clients),
		RoomList:    make([]RoomStats, 0, len(rooms)),
	}

	for _, room := range rooms {
		sides := make([]protocol.Side, 0, len(room.Participants))
		for _, p := range room.Participants {
			sides = append(sides, p.Side)
		}
		_, pending := h.cleanups[room.ID]

		s.Participants += len(room.Participants)
		s.RoomList = append(s.RoomList, RoomStats{
			ID:             room.ID,
			Sides:          sides,
			PendingCleanup: pending,
		})
	}

	return s
}
