package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// DefaultGraceWindow is how long a room with a lone survivor is kept around
// for a backfill before it is torn down.
const DefaultGraceWindow = 10 * time.Second

// CleanupPolicy selects what happens to a room when one of its players
// disconnects.
type CleanupPolicy string

const (
	// CleanupGrace tells the survivor their opponent left and tears the room
	// down after DefaultGraceWindow unless someone backfills it.
	CleanupGrace CleanupPolicy = "grace"

	// CleanupImmediate only deletes rooms once they are empty and sends no
	// notification.
	CleanupImmediate CleanupPolicy = "immediate"
)

var (
	ErrInvalidPolicy = errors.New("invalid cleanup policy")
	ErrHubStopped    = errors.New("hub stopped")
)

// ParseCleanupPolicy accepts "grace" and "immediate". The empty string means
// grace.
func ParseCleanupPolicy(s string) (CleanupPolicy, error) {
	switch CleanupPolicy(s) {
	case "", CleanupGrace:
		return CleanupGrace, nil
	case CleanupImmediate:
		return CleanupImmediate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Inbound is a decoded frame together with the client that sent it.
type Inbound struct {
	From *Client
	Msg  *protocol.Message
}

// Options configures a Hub.
type Options struct {
	Policy CleanupPolicy
	Events EventSink
	Logger *slog.Logger
}

// Hub is the central brain of the relay server.
// It owns the room registry and every connected client.
type Hub struct {
	// Register is a channel for newly opened connections.
	Register chan *Client

	// Unregister is a channel for closed connections.
	Unregister chan *Client

	// Inbound carries every decoded client frame.
	Inbound chan *Inbound

	registry *Registry

	// clients maps connection identity to its client.
	clients map[string]*Client

	// cleanups holds the pending grace check for each room, keyed by room id.
	cleanups    map[string]*cleanupCheck
	expire      chan expiry
	lastCheck   uint64
	graceWindow time.Duration

	stats chan chan Stats

	policy CleanupPolicy
	events EventSink
	logger *slog.Logger

	// quit is closed when Run returns.
	quit chan struct{}
}

// NewHub creates a new Hub instance.
func NewHub(opts Options) *Hub {
	policy := opts.Policy
	if policy == "" {
		policy = CleanupGrace
	}
	events := opts.Events
	if events == nil {
		events = nopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		Inbound:     make(chan *Inbound),
		registry:    NewRegistry(),
		clients:     make(map[string]*Client),
		cleanups:    make(map[string]*cleanupCheck),
		expire:      make(chan expiry),
		graceWindow: DefaultGraceWindow,
		stats:       make(chan chan Stats),
		policy:      policy,
		events:      events,
		logger:      logger,
		quit:        make(chan struct{}),
	}
}

// Done is closed once the hub has stopped processing events.
func (h *Hub) Done() <-chan struct{} {
	return h.quit
}

// Run starts the hub's main processing loop.
// This is the single goroutine that reads and writes room state, so none of
// it needs a lock. Run returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		// --- Connection opened ---
		case client := <-h.Register:
			h.register(client)

		// --- Connection closed ---
		case client := <-h.Unregister:
			h.unregister(client)

		// --- Client frame ---
		case in := <-h.Inbound:
			h.handle(in)

		// --- Grace check fired ---
		case e := <-h.expire:
			h.expireRoom(e)

		case reply := <-h.stats:
			reply <- h.snapshot()
		}
	}
}

func (h *Hub) shutdown() {
	close(h.quit)
	h.stopCleanups()
	h.logger.Info("hub stopped", "rooms", h.registry.Len(), "clients", len(h.clients))
}

func (h *Hub) register(c *Client) {
	h.clients[c.Identity] = c

	a := h.registry.Assign(c.Identity)
	if a.Created {
		h.logger.Info("room created", "room_id", a.RoomID)
		h.publish(Event{Type: EventRoomCreated, RoomID: a.RoomID})
	} else if a.Backfill {
		h.cancelCleanup(a.RoomID)
		h.logger.Info("seat backfilled", "room_id", a.RoomID, "side", a.Side.String())
	}

	h.logger.Info("participant seated",
		"room_id", a.RoomID,
		"identity", c.Identity,
		"side", a.Side.String(),
		"remote", c.Remote)
	h.publish(Event{Type: EventParticipantJoined, RoomID: a.RoomID, Identity: c.Identity, Side: a.Side})

	// Only the newcomer hears about the assignment.
	h.deliver(c.Identity, &protocol.Message{
		Type:   protocol.MessageTypeRoomJoined,
		RoomID: a.RoomID,
		Side:   a.Side,
	})
}

func (h *Hub) unregister(c *Client) {
	if current, ok := h.clients[c.Identity]; !ok || current != c {
		return
	}
	delete(h.clients, c.Identity)
	h.logger.Info("connection closed", "identity", c.Identity, "remote", c.Remote)

	h.disconnect(c.Identity)

	// Close the client's send channel to stop its WritePump
	close(c.Send)
}

// disconnect unseats identity and applies the cleanup policy to its room.
func (h *Hub) disconnect(identity string) {
	roomID, remaining, ok := h.registry.Remove(identity)
	if !ok {
		return
	}
	h.publish(Event{Type: EventParticipantLeft, RoomID: roomID, Identity: identity})

	if len(remaining) == 0 {
		h.deleteRoom(roomID, "empty")
		return
	}

	if h.policy == CleanupImmediate {
		h.logger.Info("participant left room", "room_id", roomID, "identity", identity)
		return
	}

	h.logger.Info("participant left room, starting grace window",
		"room_id", roomID,
		"identity", identity,
		"window", h.graceWindow)

	// Everyone still in the room hears about it, not just one addressee.
	h.broadcast(roomID, "", &protocol.Message{Type: protocol.MessageTypeOpponentLeft})
	h.scheduleCleanup(roomID)
}

func (h *Hub) handle(in *Inbound) {
	switch in.Msg.Type {
	case protocol.MessageTypeMove:
		roomID := in.Msg.RoomID
		if roomID == "" {
			roomID, _ = h.registry.RoomOf(in.From.Identity)
		}
		h.relay(in.From.Identity, roomID, in.Msg.Payload)

	default:
		h.logger.Debug("ignoring message", "type", in.Msg.Type, "identity", in.From.Identity)
	}
}

// relay forwards payload to everyone in roomID except the sender. Unknown
// rooms and empty rooms swallow the move.
func (h *Hub) relay(sender, roomID string, payload *protocol.Payload) {
	delivered := h.broadcast(roomID, sender, &protocol.Message{
		Type:    protocol.MessageTypeMove,
		Payload: payload,
	})
	if delivered == 0 {
		h.logger.Debug("move dropped", "room_id", roomID, "identity", sender)
	}
}

// broadcast sends msg to every participant of roomID other than skip and
// reports how many were handed the message.
func (h *Hub) broadcast(roomID, skip string, msg *protocol.Message) int {
	n := 0
	for _, p := range h.registry.Members(roomID) {
		if p.Identity == skip {
			continue
		}
		if h.deliver(p.Identity, msg) {
			n++
		}
	}
	return n
}

// deliver queues msg on the client's send channel without blocking the hub.
func (h *Hub) deliver(identity string, msg *protocol.Message) bool {
	c, ok := h.clients[identity]
	if !ok {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		h.logger.Warn("send queue full, dropping message",
			"identity", identity,
			"type", msg.Type)
		return false
	}
}

func (h *Hub) deleteRoom(roomID, reason string) {
	h.cancelCleanup(roomID)
	h.registry.Delete(roomID)

	h.logger.Info("room deleted", "room_id", roomID, "reason", reason)
	h.publish(Event{Type: EventRoomDeleted, RoomID: roomID, Reason: reason})
}

func (h *Hub) publish(e Event) {
	e.At = time.Now()
	h.events.Publish(e)
}
