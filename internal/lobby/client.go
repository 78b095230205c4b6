package lobby

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Moves are tiny.
	maxMessageSize = 16 * 1024

	// SendBuffer is the capacity of a client's outbound queue.
	SendBuffer = 64
)

// Client is a wrapper for a single websocket connection (a player).
type Client struct {
	// Hub is the hub that seats and relays for this client.
	Hub *Hub

	// Conn is the websocket connection.
	Conn *websocket.Conn

	// Identity is the ephemeral token that stands for this connection.
	Identity string

	// Codec frames everything read from and written to Conn.
	Codec protocol.Codec

	// Remote is the peer address, kept for logging.
	Remote string

	// Send is a buffered channel for all outbound messages.
	// The hub writes to it and WritePump drains it onto the socket.
	Send chan *protocol.Message
}

// NewClient wraps conn. Register it with the hub, then start both pumps.
func NewClient(hub *Hub, conn *websocket.Conn, identity string, codec protocol.Codec) *Client {
	c := &Client{
		Hub:      hub,
		Conn:     conn,
		Identity: identity,
		Codec:    codec,
		Send:     make(chan *protocol.Message, SendBuffer),
	}
	if conn != nil {
		c.Remote = conn.RemoteAddr().String()
	}
	return c
}

// ReadPump pumps frames from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	// When this function exits (e.g., connection closes), unregister the client
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("read failed", "identity", c.Identity, "error", err)
			}
			return
		}

		var msg protocol.Message
		if err := c.Codec.Unmarshal(data, &msg); err != nil {
			c.Hub.logger.Debug("undecodable frame", "identity", c.Identity, "codec", c.Codec.Name(), "error", err)
			continue
		}

		select {
		case c.Hub.Inbound <- &Inbound{From: c, Msg: &msg}:
		case <-c.Hub.Done():
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := c.Codec.Marshal(msg)
			if err != nil {
				c.Hub.logger.Warn("encode failed", "identity", c.Identity, "type", msg.Type, "error", err)
				continue
			}
			if err := c.Conn.WriteMessage(c.Codec.FrameType(), data); err != nil {
				c.Hub.logger.Debug("write failed", "identity", c.Identity, "error", err)
				return
			}

			// The room is gone; end the session so the client is not left
			// sitting in nothing.
			if msg.Type == protocol.MessageTypeRoomClosed {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room closed"))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
