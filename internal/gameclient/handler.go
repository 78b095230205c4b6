package gameclient

import (
	"context"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Assignment is the room and side the server seated us in.
type Assignment struct {
	RoomID string
	Side   protocol.Side
}

// Handler routes incoming server messages to typed channels.
type Handler struct {
	client       *Client
	Assigned     chan Assignment
	Moves        chan string
	OpponentLeft chan struct{}
	RoomClosed   chan string

	// Disconnected is closed once the connection is gone.
	Disconnected chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:       client,
		Assigned:     make(chan Assignment, 1),
		Moves:        make(chan string, 32),
		OpponentLeft: make(chan struct{}, 1),
		RoomClosed:   make(chan string, 1),
		Disconnected: make(chan struct{}),
	}
}

// Start listens to incoming messages and routes them until the connection
// closes. Run it in its own goroutine.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case protocol.MessageTypeRoomJoined:
			notify(h.Assigned, Assignment{RoomID: msg.RoomID, Side: msg.Side})

		case protocol.MessageTypeMove:
			h.handleMove(msg)

		case protocol.MessageTypeOpponentLeft:
			notify(h.OpponentLeft, struct{}{})

		case protocol.MessageTypeRoomClosed:
			notify(h.RoomClosed, msg.RoomID)

		default:
		}
	}
}

// handleMove extracts the move text. Bodies that are not a MovePayload (e.g.
// from a browser client) are shown raw.
func (h *Handler) handleMove(msg *protocol.Message) {
	if msg.Payload == nil {
		return
	}

	var move protocol.MovePayload
	if err := msg.Payload.Decode(&move); err != nil || move.Move == "" {
		h.deliverMove(string(msg.Payload.Bytes()))
		return
	}
	h.deliverMove(move.Move)
}

// deliverMove waits for a reader unless the client has been closed.
func (h *Handler) deliverMove(move string) {
	select {
	case h.Moves <- move:
	case <-h.client.done:
	}
}

// WaitAssigned blocks until the server seats us.
func (h *Handler) WaitAssigned(ctx context.Context) (Assignment, error) {
	select {
	case a := <-h.Assigned:
		return a, nil
	case <-h.Disconnected:
		return Assignment{}, NewError("wait for room", ErrConnectionClosed)
	case <-ctx.Done():
		return Assignment{}, NewError("wait for room", ctx.Err())
	}
}

// notify does a non-blocking send; one pending signal is enough.
func notify[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
