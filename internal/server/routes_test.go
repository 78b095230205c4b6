package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/chessrelay/internal/lobby"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, policy lobby.CleanupPolicy, origins ...string) *httptest.Server {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	hub := lobby.NewHub(lobby.Options{Policy: policy, Logger: testLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(Options{Hub: hub, AllowedOrigins: origins, Logger: testLogger()}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hub.Done()
	})
	return srv
}

type player struct {
	t     *testing.T
	conn  *websocket.Conn
	codec protocol.Codec
}

func dial(t *testing.T, srv *httptest.Server, codec protocol.Codec) *player {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?codec=" + codec.Name()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &player{t: t, conn: conn, codec: codec}
}

func (p *player) read() *protocol.Message {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	frame, data, err := p.conn.ReadMessage()
	require.NoError(p.t, err)
	assert.Equal(p.t, p.codec.FrameType(), frame)

	var msg protocol.Message
	require.NoError(p.t, p.codec.Unmarshal(data, &msg))
	return &msg
}

func (p *player) send(msg *protocol.Message) {
	p.t.Helper()
	data, err := p.codec.Marshal(msg)
	require.NoError(p.t, err)
	require.NoError(p.t, p.conn.WriteMessage(p.codec.FrameType(), data))
}

func (p *player) move(roomID, move string) {
	p.t.Helper()
	payload, err := protocol.NewPayload(protocol.MovePayload{Move: move})
	require.NoError(p.t, err)
	p.send(protocol.NewMove(roomID, payload))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace)

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, Greeting, string(body), path)
	}

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocket_PairAndRelay(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace)

	white := dial(t, srv, protocol.JSON)
	joined := white.read()
	assert.Equal(t, protocol.MessageTypeRoomJoined, joined.Type)
	assert.Equal(t, protocol.First, joined.Side)

	black := dial(t, srv, protocol.JSON)
	joinedBlack := black.read()
	assert.Equal(t, joined.RoomID, joinedBlack.RoomID)
	assert.Equal(t, protocol.Second, joinedBlack.Side)

	white.move(joined.RoomID, "e2e4")
	got := black.read()
	require.Equal(t, protocol.MessageTypeMove, got.Type)
	var move protocol.MovePayload
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "e2e4", move.Move)

	black.move(joined.RoomID, "c7c5")
	got = white.read()
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "c7c5", move.Move)
}

func TestWebSocket_MixedCodecs(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace)

	jsonPlayer := dial(t, srv, protocol.JSON)
	room := jsonPlayer.read().RoomID

	packPlayer := dial(t, srv, protocol.Msgpack)
	joined := packPlayer.read()
	assert.Equal(t, room, joined.RoomID)
	assert.Equal(t, protocol.Second, joined.Side)

	jsonPlayer.move(room, "g1f3")
	got := packPlayer.read()
	assert.Equal(t, protocol.CodecMsgpack, got.Payload.Codec())

	var move protocol.MovePayload
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "g1f3", move.Move)

	packPlayer.move(room, "d7d5")
	require.NoError(t, jsonPlayer.read().Payload.Decode(&move))
	assert.Equal(t, "d7d5", move.Move)
}

func TestWebSocket_OpponentLeft(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace)

	first := dial(t, srv, protocol.JSON)
	room := first.read().RoomID
	second := dial(t, srv, protocol.JSON)
	second.read()

	require.NoError(t, second.conn.Close())

	left := first.read()
	assert.Equal(t, protocol.MessageTypeOpponentLeft, left.Type)

	// A newcomer backfills the vacated side.
	third := dial(t, srv, protocol.JSON)
	joined := third.read()
	assert.Equal(t, room, joined.RoomID)
	assert.Equal(t, protocol.Second, joined.Side)
}

func TestWebSocket_UnknownCodec(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?codec=xml"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_OriginCheck(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupGrace, "https://chess.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{name: "allowed", origin: "https://chess.example", ok: true},
		{name: "no origin header", origin: "", ok: true},
		{name: "foreign", origin: "https://evil.example", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, lobby.CleanupImmediate)

	a := dial(t, srv, protocol.JSON)
	a.read()
	b := dial(t, srv, protocol.JSON)
	b.read()
	c := dial(t, srv, protocol.Msgpack)
	c.read()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats lobby.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Rooms)
	assert.Equal(t, 3, stats.Participants)
	require.Len(t, stats.RoomList, 2)
	assert.Equal(t, []protocol.Side{protocol.First, protocol.Second}, stats.RoomList[0].Sides)
	assert.Equal(t, []protocol.Side{protocol.First}, stats.RoomList[1].Sides)
}
