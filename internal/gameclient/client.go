package gameclient

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/chessrelay/internal/dns"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 16 * 1024
)

// Client manages the websocket connection to the relay server.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	codec     protocol.Codec
	incoming  chan *protocol.Message
	outgoing  chan *protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for serverURL speaking codec.
func NewClient(serverURL string, codec protocol.Codec) *Client {
	return &Client{
		serverURL: serverURL,
		codec:     codec,
		incoming:  make(chan *protocol.Message, 8),
		outgoing:  make(chan *protocol.Message, 8),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the pumps. The server seats the
// connection as soon as the handshake completes.
func (c *Client) Connect(ctx context.Context) error {
	target, err := c.dialURL()
	if err != nil {
		return WrapError("connect", err, "invalid server URL")
	}

	dialer := websocket.Dialer{
		NetDialContext:   dns.DialContext,
		HandshakeTimeout: handshakeTimeout,
		Proxy:            websocket.DefaultDialer.Proxy,
	}

	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return WrapError("connect", err, resp.Status)
		}
		return NewError("connect", err)
	}
	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// dialURL is the server URL with the codec query parameter set.
func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("codec", c.codec.Name())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readPump decodes frames from the server until the connection ends.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	// The server pings; answering them is enough to stay alive.
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg protocol.Message
		if err := c.codec.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case c.incoming <- &msg:
		case <-c.done:
			return
		}
	}
}

// writePump is the only writer of data frames.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.outgoing:
			data, err := c.codec.Marshal(msg)
			if err != nil {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.FrameType(), data); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendMove queues a move for roomID. An empty roomID lets the server use the
// room this connection is seated in.
func (c *Client) SendMove(ctx context.Context, roomID, move string) error {
	move = strings.TrimSpace(move)
	if move == "" {
		return NewError("send move", ErrEmptyMove)
	}

	select {
	case <-c.done:
		return NewError("send move", ErrConnectionClosed)
	default:
	}

	payload, err := protocol.NewPayload(protocol.MovePayload{Move: move})
	if err != nil {
		return NewError("send move", err)
	}

	select {
	case c.outgoing <- protocol.NewMove(roomID, payload):
		return nil
	case <-c.done:
		return NewError("send move", ErrConnectionClosed)
	case <-ctx.Done():
		return NewError("send move", ctx.Err())
	}
}

// Incoming returns the channel of decoded server messages. It is closed when
// the connection ends.
func (c *Client) Incoming() <-chan *protocol.Message {
	return c.incoming
}

// Close closes the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
