package lobby

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func startHub(t *testing.T, policy CleanupPolicy, window time.Duration) (*Hub, *recordingSink) {
	t.Helper()

	sink := &recordingSink{}
	h := NewHub(Options{Policy: policy, Events: sink, Logger: testLogger()})
	if window > 0 {
		h.graceWindow = window
	}

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h, sink
}

// connect registers a socketless client and waits for its room_joined.
func connect(t *testing.T, h *Hub, identity string) (*Client, *protocol.Message) {
	t.Helper()
	c := NewClient(h, nil, identity, protocol.JSON)
	h.Register <- c
	return c, expectMessage(t, c, protocol.MessageTypeRoomJoined)
}

func expectMessage(t *testing.T, c *Client, typ string) *protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "%s: send channel closed", c.Identity)
		require.Equal(t, typ, msg.Type, "%s: unexpected message", c.Identity)
		return msg
	case <-time.After(time.Second):
		t.Fatalf("%s: no %s message", c.Identity, typ)
		return nil
	}
}

func expectSilence(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if ok {
			t.Fatalf("%s: unexpected %s message", c.Identity, msg.Type)
		}
	case <-time.After(wait):
	}
}

func sendMove(h *Hub, from *Client, roomID, move string) *protocol.Payload {
	payload, _ := protocol.NewPayload(protocol.MovePayload{Move: move})
	h.Inbound <- &Inbound{From: from, Msg: protocol.NewMove(roomID, payload)}
	return payload
}

func stats(t *testing.T, h *Hub) Stats {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := h.Stats(ctx)
	require.NoError(t, err)
	return s
}

func roomStats(s Stats, roomID string) (RoomStats, bool) {
	for _, r := range s.RoomList {
		if r.ID == roomID {
			return r, true
		}
	}
	return RoomStats{}, false
}

func TestParseCleanupPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CleanupPolicy
		wantErr bool
	}{
		{in: "", want: CleanupGrace},
		{in: "grace", want: CleanupGrace},
		{in: "immediate", want: CleanupImmediate},
		{in: "eventually", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCleanupPolicy(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPolicy, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHub_SeatsConnectionsInPairs(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, j1 := connect(t, h, "c1")
	_, j2 := connect(t, h, "c2")
	_, j3 := connect(t, h, "c3")

	assert.Equal(t, "room-1", j1.RoomID)
	assert.Equal(t, protocol.First, j1.Side)
	assert.Equal(t, "room-1", j2.RoomID)
	assert.Equal(t, protocol.Second, j2.Side)
	assert.Equal(t, "room-2", j3.RoomID)
	assert.Equal(t, protocol.First, j3.Side)

	// The occupant is not told when an opponent arrives.
	expectSilence(t, c1, 50*time.Millisecond)

	s := stats(t, h)
	assert.Equal(t, 2, s.Rooms)
	assert.Equal(t, 3, s.Participants)
	assert.Equal(t, 3, s.Connections)
}

func TestHub_RelaysMovesToTheOpponentOnly(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")
	c3, _ := connect(t, h, "c3")

	sent := sendMove(h, c1, "room-1", "e2e4")

	got := expectMessage(t, c2, protocol.MessageTypeMove)
	require.NotNil(t, got.Payload)
	assert.Equal(t, sent.Bytes(), got.Payload.Bytes())

	var move protocol.MovePayload
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "e2e4", move.Move)

	expectSilence(t, c1, 50*time.Millisecond)
	expectSilence(t, c3, 50*time.Millisecond)
}

func TestHub_MoveWithoutRoomIDUsesSendersRoom(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	sendMove(h, c2, "", "e7e5")

	got := expectMessage(t, c1, protocol.MessageTypeMove)
	var move protocol.MovePayload
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "e7e5", move.Move)
}

func TestHub_MovesThatReachNobody(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")
	c3, _ := connect(t, h, "c3") // alone in room-2

	tests := []struct {
		name   string
		from   *Client
		roomID string
	}{
		{name: "unknown room", from: c1, roomID: "room-99"},
		{name: "sender alone", from: c3, roomID: "room-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendMove(h, tt.from, tt.roomID, "a2a3")

			for _, c := range []*Client{c1, c2, c3} {
				expectSilence(t, c, 30*time.Millisecond)
			}
		})
	}

	s := stats(t, h)
	assert.Equal(t, 2, s.Rooms)
	assert.Equal(t, 3, s.Participants)
}

func TestHub_IgnoresUnknownMessageTypes(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	h.Inbound <- &Inbound{From: c1, Msg: &protocol.Message{Type: "resign", RoomID: "room-1"}}

	expectSilence(t, c2, 50*time.Millisecond)
}

func TestHub_ImmediateCleanup(t *testing.T) {
	h, sink := startHub(t, CleanupImmediate, 0)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	h.Unregister <- c2

	// No notification to the survivor, and the room keeps its remaining seat.
	expectSilence(t, c1, 50*time.Millisecond)
	room, ok := roomStats(stats(t, h), "room-1")
	require.True(t, ok)
	assert.Equal(t, []protocol.Side{protocol.First}, room.Sides)
	assert.False(t, room.PendingCleanup)

	h.Unregister <- c1

	s := stats(t, h)
	assert.Zero(t, s.Rooms)
	assert.Zero(t, s.Connections)

	assert.Equal(t, []EventType{
		EventRoomCreated,
		EventParticipantJoined,
		EventParticipantJoined,
		EventParticipantLeft,
		EventParticipantLeft,
		EventRoomDeleted,
	}, sink.types())
}

func TestHub_GraceWindowExpires(t *testing.T) {
	h, sink := startHub(t, CleanupGrace, 100*time.Millisecond)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	h.Unregister <- c2
	expectMessage(t, c1, protocol.MessageTypeOpponentLeft)

	// Still around while the window is open.
	room, ok := roomStats(stats(t, h), "room-1")
	require.True(t, ok)
	assert.True(t, room.PendingCleanup)
	assert.Len(t, room.Sides, 1)

	closed := expectMessage(t, c1, protocol.MessageTypeRoomClosed)
	assert.Equal(t, "room-1", closed.RoomID)

	require.Eventually(t, func() bool {
		s, err := h.Stats(context.Background())
		return err == nil && s.Rooms == 0
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	last := sink.events[len(sink.events)-1]
	sink.mu.Unlock()
	assert.Equal(t, EventRoomDeleted, last.Type)
	assert.Equal(t, "grace_expired", last.Reason)
}

func TestHub_BackfillCancelsGraceCleanup(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 100*time.Millisecond)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	h.Unregister <- c2
	expectMessage(t, c1, protocol.MessageTypeOpponentLeft)

	c3, j3 := connect(t, h, "c3")
	assert.Equal(t, "room-1", j3.RoomID)
	assert.Equal(t, protocol.Second, j3.Side)

	// Well past the window: nothing is torn down.
	expectSilence(t, c1, 250*time.Millisecond)

	room, ok := roomStats(stats(t, h), "room-1")
	require.True(t, ok)
	assert.False(t, room.PendingCleanup)
	assert.ElementsMatch(t, []protocol.Side{protocol.First, protocol.Second}, room.Sides)

	sendMove(h, c3, "room-1", "g8f6")
	expectMessage(t, c1, protocol.MessageTypeMove)
}

func TestHub_BackfillTakesTheVacatedSide(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 0)

	c1, _ := connect(t, h, "c1") // white
	c2, _ := connect(t, h, "c2") // black

	h.Unregister <- c1
	expectMessage(t, c2, protocol.MessageTypeOpponentLeft)

	_, j3 := connect(t, h, "c3")
	assert.Equal(t, "room-1", j3.RoomID)
	assert.Equal(t, protocol.First, j3.Side)
}

func TestHub_LastParticipantLeavingDeletesRoomAtOnce(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, time.Hour)

	c1, _ := connect(t, h, "c1")
	c2, _ := connect(t, h, "c2")

	h.Unregister <- c2
	expectMessage(t, c1, protocol.MessageTypeOpponentLeft)
	h.Unregister <- c1

	s := stats(t, h)
	assert.Zero(t, s.Rooms)

	// Room ids keep counting up after a deletion.
	_, j := connect(t, h, "c3")
	assert.Equal(t, "room-2", j.RoomID)
}

func TestHub_DuplicateUnregisterIsIgnored(t *testing.T) {
	h, _ := startHub(t, CleanupImmediate, 0)

	c1, _ := connect(t, h, "c1")
	h.Unregister <- c1
	h.Unregister <- c1

	_, ok := <-c1.Send
	assert.False(t, ok)
	assert.Zero(t, stats(t, h).Connections)
}

func TestHub_PlayerReplacedMidGame(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 150*time.Millisecond)

	c1, j1 := connect(t, h, "c1")
	c2, j2 := connect(t, h, "c2")
	require.Equal(t, j1.RoomID, j2.RoomID)

	sendMove(h, c1, j1.RoomID, "e2e4")
	expectMessage(t, c2, protocol.MessageTypeMove)

	h.Unregister <- c2
	expectMessage(t, c1, protocol.MessageTypeOpponentLeft)

	time.Sleep(50 * time.Millisecond)
	c3, j3 := connect(t, h, "c3")
	assert.Equal(t, j1.RoomID, j3.RoomID)
	assert.Equal(t, protocol.Second, j3.Side)

	sendMove(h, c1, j1.RoomID, "d2d4")
	got := expectMessage(t, c3, protocol.MessageTypeMove)
	var move protocol.MovePayload
	require.NoError(t, got.Payload.Decode(&move))
	assert.Equal(t, "d2d4", move.Move)

	expectSilence(t, c1, 250*time.Millisecond)
	assert.Equal(t, 1, stats(t, h).Rooms)
}

func TestHub_StatsAfterStop(t *testing.T) {
	h := NewHub(Options{Logger: testLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	<-h.Done()

	_, err := h.Stats(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}

func TestHub_AbandonedRoomIsReplaced(t *testing.T) {
	h, _ := startHub(t, CleanupGrace, 80*time.Millisecond)

	c1, j1 := connect(t, h, "c1")
	c2, j2 := connect(t, h, "c2")
	assert.Equal(t, "room-1", j1.RoomID)
	assert.Equal(t, protocol.First, j1.Side)
	assert.Equal(t, "room-1", j2.RoomID)
	assert.Equal(t, protocol.Second, j2.Side)

	sendMove(h, c1, "room-1", "e2e4")
	expectMessage(t, c2, protocol.MessageTypeMove)
	expectSilence(t, c1, 30*time.Millisecond)

	h.Unregister <- c2
	expectMessage(t, c1, protocol.MessageTypeOpponentLeft)
	expectMessage(t, c1, protocol.MessageTypeRoomClosed)

	_, j3 := connect(t, h, "c3")
	assert.Equal(t, "room-2", j3.RoomID)
	assert.Equal(t, protocol.First, j3.Side)

	_, ok := roomStats(stats(t, h), "room-1")
	assert.False(t, ok)
}
