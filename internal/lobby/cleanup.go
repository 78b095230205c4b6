package lobby

import (
	"time"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// cleanupCheck is a scheduled grace check for one room.
type cleanupCheck struct {
	timer *time.Timer
	gen   uint64
}

// expiry is what a fired timer posts back into the event loop. gen lets the
// hub tell a current check from one that was replaced after it fired.
type expiry struct {
	roomID string
	gen    uint64
}

// scheduleCleanup arms (or re-arms) the grace check for roomID. The timer
// callback never touches room state itself.
func (h *Hub) scheduleCleanup(roomID string) {
	h.cancelCleanup(roomID)

	h.lastCheck++
	gen := h.lastCheck
	timer := time.AfterFunc(h.graceWindow, func() {
		select {
		case h.expire <- expiry{roomID: roomID, gen: gen}:
		case <-h.quit:
		}
	})

	h.cleanups[roomID] = &cleanupCheck{timer: timer, gen: gen}
}

func (h *Hub) cancelCleanup(roomID string) {
	check, ok := h.cleanups[roomID]
	if !ok {
		return
	}
	check.timer.Stop()
	delete(h.cleanups, roomID)
}

func (h *Hub) stopCleanups() {
	for roomID, check := range h.cleanups {
		check.timer.Stop()
		delete(h.cleanups, roomID)
	}
}

// expireRoom runs when a grace check fires. Whatever was true when the check
// was scheduled is ignored; the room is re-read here.
func (h *Hub) expireRoom(e expiry) {
	check, ok := h.cleanups[e.roomID]
	if !ok || check.gen != e.gen {
		return
	}
	delete(h.cleanups, e.roomID)

	room, ok := h.registry.Room(e.roomID)
	if !ok {
		return
	}
	if room.Full() {
		// Backfilled in the meantime.
		return
	}

	for _, p := range room.Participants {
		h.deliver(p.Identity, &protocol.Message{
			Type:   protocol.MessageTypeRoomClosed,
			RoomID: room.ID,
		})
	}
	h.deleteRoom(room.ID, "grace_expired")
}
