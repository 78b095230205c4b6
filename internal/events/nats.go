// Package events ships room lifecycle events off the hub.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/BioHazard786/chessrelay/internal/lobby"
)

// DefaultSubjectPrefix is prepended to the event type to form the subject,
// e.g. "chessrelay.rooms.room_created".
const DefaultSubjectPrefix = "chessrelay.rooms"

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(lobby.Event) {}

// NATSOptions configures the NATS sink.
type NATSOptions struct {
	URL           string
	SubjectPrefix string
	Logger        *slog.Logger
}

// NATS publishes lobby events as JSON on core NATS subjects.
// Publish only buffers; the nats.go client flushes in the background, so the
// hub never waits on the broker.
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATS connects to the broker. The connection reconnects forever once it
// has been established.
func NewNATS(opts NATSOptions) (*NATS, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(
		opts.URL,
		nats.Name("chessrelay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", opts.URL, err)
	}

	return &NATS{conn: conn, prefix: prefix, logger: logger}, nil
}

// Publish implements lobby.EventSink.
func (n *NATS) Publish(e lobby.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		n.logger.Warn("encode event", "type", e.Type, "error", err)
		return
	}

	if err := n.conn.Publish(subject(n.prefix, e.Type), data); err != nil {
		n.logger.Warn("publish event", "type", e.Type, "room_id", e.RoomID, "error", err)
	}
}

// Close flushes pending events and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

func subject(prefix string, t lobby.EventType) string {
	return prefix + "." + string(t)
}
