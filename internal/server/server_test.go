package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/protocol"
)

func newTestCoordinator(t *testing.T) *multiplayer.Coordinator {
	t.Helper()
	cfg := multiplayer.DefaultCoordinatorConfig()
	cfg.CountdownInterval = 10 * time.Millisecond
	coord := multiplayer.NewCoordinator(cfg, multiplayer.NewSessionRegistry())
	t.Cleanup(coord.Stop)
	return coord
}

func newTestServer(t *testing.T) (*multiplayer.Coordinator, *httptest.Server) {
	t.Helper()
	coord := newTestCoordinator(t)
	srv := New(coord, Options{Version: "test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return coord, ts
}

type wsClient struct {
	t     *testing.T
	ws    *websocket.Conn
	codec protocol.Codec
	seq   int
}

func dial(t *testing.T, ts *httptest.Server, codec protocol.Codec) *wsClient {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?codec=" + codec.Name()
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return &wsClient{t: t, ws: ws, codec: codec}
}

// request sends a message with a fresh ref and returns the ref.
func (c *wsClient) request(msgType string, data any) string {
	c.t.Helper()
	c.seq++
	ref := fmt.Sprint(c.seq)
	b, err := c.codec.Encode(msgType, ref, data)
	require.NoError(c.t, err)
	kind := websocket.TextMessage
	if c.codec.Binary() {
		kind = websocket.BinaryMessage
	}
	require.NoError(c.t, c.ws.WriteMessage(kind, b))
	return ref
}

func (c *wsClient) next() multiplayer.SessionEvent {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	f, err := c.codec.Decode(msg)
	require.NoError(c.t, err)
	evt, err := protocol.DecodeEvent(f)
	require.NoError(c.t, err)
	return evt
}

// ack waits for the answer to ref and fails on an error answer.
func (c *wsClient) ack(ref string) multiplayer.AckEvent {
	c.t.Helper()
	for {
		switch e := c.next().(type) {
		case multiplayer.AckEvent:
			if e.Ref == ref {
				return e
			}
		case multiplayer.ErrorEvent:
			if e.Ref == ref {
				c.t.Fatalf("request %s failed: %s (%s)", ref, e.Message, e.Code)
			}
		}
	}
}

func (c *wsClient) rejected(ref string) multiplayer.ErrorEvent {
	c.t.Helper()
	for {
		switch e := c.next().(type) {
		case multiplayer.AckEvent:
			if e.Ref == ref {
				c.t.Fatalf("request %s unexpectedly succeeded", ref)
			}
		case multiplayer.ErrorEvent:
			if e.Ref == ref {
				return e
			}
		}
	}
}

func expect[T multiplayer.SessionEvent](c *wsClient) T {
	c.t.Helper()
	for {
		if e, ok := c.next().(T); ok {
			return e
		}
	}
}

func TestWebsocketMatchFlow(t *testing.T) {
	coord, ts := newTestServer(t)
	alice := dial(t, ts, protocol.JSON)
	bob := dial(t, ts, protocol.MsgPack)

	alice.ack(alice.request(protocol.MsgLogin, protocol.Login{ID: "alice", Username: "Alice"}))
	bob.ack(bob.request(protocol.MsgLogin, protocol.Login{ID: "bob", Username: "Bob"}))

	created := alice.ack(alice.request(protocol.MsgRoomCreate, protocol.CreateRoom{Name: "duel"}))
	require.NotNil(t, created.Room)
	roomID := created.Room.ID
	assert.Equal(t, multiplayer.ParticipantID("alice"), created.Room.HostID)

	joined := bob.ack(bob.request(protocol.MsgRoomJoin, protocol.RoomRef{RoomID: roomID}))
	require.NotNil(t, joined.Room)
	assert.Len(t, joined.Room.Players, 2)

	alice.ack(alice.request(protocol.MsgReady, protocol.Ready{RoomID: roomID, IsReady: true}))
	bob.ack(bob.request(protocol.MsgReady, protocol.Ready{RoomID: roomID, IsReady: true}))

	start := expect[multiplayer.GameStartEvent](bob)
	assert.Equal(t, roomID, start.RoomID)
	expect[multiplayer.GameStartEvent](alice)

	bob.request(protocol.MsgGameUpdate, protocol.GameUpdate{RoomID: roomID, Snapshot: multiplayer.Snapshot(`{"score":10}`)})
	upd := expect[multiplayer.OpponentUpdateEvent](alice)
	assert.Equal(t, multiplayer.ParticipantID("bob"), upd.ParticipantID)
	assert.JSONEq(t, `{"score":10}`, string(upd.Snapshot))

	alice.ack(alice.request(protocol.MsgGameOver, protocol.GameOver{RoomID: roomID, Score: 500}))
	bob.ack(bob.request(protocol.MsgGameOver, protocol.GameOver{RoomID: roomID, Score: 200}))

	ended := expect[multiplayer.GameEndedEvent](alice)
	assert.Equal(t, multiplayer.ParticipantID("alice"), ended.WinnerID)

	room, ok := coord.GetRoom(roomID)
	require.True(t, ok)
	assert.Equal(t, multiplayer.RoomWaiting, room.Status)
}

func TestWebsocketRejections(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts, protocol.JSON)

	e := c.rejected(c.request(protocol.MsgRoomCreate, protocol.CreateRoom{Name: "early"}))
	assert.Equal(t, "validation", e.Code)

	c.ack(c.request(protocol.MsgLogin, protocol.Login{ID: "alice", Username: "Alice"}))

	e = c.rejected(c.request(protocol.MsgRoomCreate, protocol.CreateRoom{HostID: "mallory"}))
	assert.Equal(t, "validation", e.Code)

	e = c.rejected(c.request(protocol.MsgRoomJoin, protocol.RoomRef{RoomID: "room_missing"}))
	assert.Equal(t, "not_found", e.Code)

	e = c.rejected(c.request("room:explode", nil))
	assert.Equal(t, "validation", e.Code)

	e = c.rejected(c.request(protocol.MsgLogin, protocol.Login{ID: "bob", Username: "Bob"}))
	assert.Equal(t, "validation", e.Code)

	e = c.rejected(c.request(protocol.MsgGameUpdate, protocol.GameUpdate{RoomID: "room_1", Snapshot: multiplayer.Snapshot("null")}))
	assert.Equal(t, "validation", e.Code)

	require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, []byte(`{broken`)))
	bad := expect[multiplayer.ErrorEvent](c)
	assert.Equal(t, "validation", bad.Code)
}

func TestWebsocketDisconnectLeavesRoom(t *testing.T) {
	coord, ts := newTestServer(t)
	alice := dial(t, ts, protocol.JSON)
	bob := dial(t, ts, protocol.JSON)

	alice.ack(alice.request(protocol.MsgLogin, protocol.Login{ID: "alice", Username: "Alice"}))
	bob.ack(bob.request(protocol.MsgLogin, protocol.Login{ID: "bob", Username: "Bob"}))
	created := alice.ack(alice.request(protocol.MsgRoomCreate, protocol.CreateRoom{}))
	bob.ack(bob.request(protocol.MsgRoomJoin, protocol.RoomRef{RoomID: created.Room.ID}))

	require.NoError(t, alice.ws.Close())

	require.Eventually(t, func() bool {
		room, ok := coord.GetRoom(created.Room.ID)
		return ok && len(room.Players) == 1 && room.HostID == "bob"
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, coord.Sessions().IsOnline("alice"))
}

func TestWebsocketBadCodec(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ws?codec=xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPEndpoints(t *testing.T) {
	coord, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", string(body))

	resp, err = http.Get(ts.URL + "/version")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "tetris-battle test\n", string(body))

	s := multiplayer.NewChannelSession("s", 16)
	_, err = coord.Login(context.Background(), "alice", "Alice", s)
	require.NoError(t, err)
	room, err := coord.CreateRoom(context.Background(), multiplayer.CreateRoomRequest{HostID: "alice"})
	require.NoError(t, err)

	resp, err = http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var st StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, 1, st.Users)
	assert.Equal(t, 1, st.Rooms)
	assert.False(t, st.Timestamp.IsZero())

	resp, err = http.Get(ts.URL + "/api/rooms")
	require.NoError(t, err)
	var rooms []multiplayer.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	resp.Body.Close()
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	resp, err = http.Get(ts.URL + "/rooms/" + string(room.ID) + "/qr")
	require.NoError(t, err)
	png, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(png), "\x89PNG"))

	resp, err = http.Get(ts.URL + "/rooms/room_missing/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInviteURL(t *testing.T) {
	coord := newTestCoordinator(t)

	s := New(coord, Options{PublicURL: "https://play.example.com/"})
	r := httptest.NewRequest(http.MethodGet, "/rooms/room_1/qr", nil)
	assert.Equal(t, "https://play.example.com/?room=room_1", s.inviteURL(r, "room_1"))

	s = New(coord, Options{})
	r.Host = "localhost:8080"
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://localhost:8080/?room=room_1", s.inviteURL(r, "room_1"))
}

func TestServeLines(t *testing.T) {
	coord := newTestCoordinator(t)
	conn := NewConn(coord, 64, nil)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	done := make(chan struct{})
	go func() {
		serveLines(context.Background(), inR, outW, conn)
		_ = outW.Close()
		close(done)
	}()

	lines := bufio.NewScanner(outR)
	read := func() protocol.Frame {
		t.Helper()
		require.True(t, lines.Scan())
		f, err := protocol.JSON.Decode(lines.Bytes())
		require.NoError(t, err)
		return f
	}

	_, err := io.WriteString(inW, `{"type":"user:login","ref":"1","data":{"id":"alice","username":"Alice"}}`+"\n\n")
	require.NoError(t, err)

	for {
		f := read()
		if f.Type == protocol.MsgAck {
			assert.Equal(t, "1", f.Ref)
			break
		}
	}
	assert.True(t, coord.Sessions().IsOnline("alice"))

	_, err = io.WriteString(inW, "not json\n")
	require.NoError(t, err)
	f := read()
	assert.Equal(t, protocol.MsgError, f.Type)

	require.NoError(t, inW.Close())
	go func() { _, _ = io.Copy(io.Discard, outR) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serveLines did not return")
	}
	assert.False(t, coord.Sessions().IsOnline("alice"))
}

func TestConnActsOnlyForItself(t *testing.T) {
	coord := newTestCoordinator(t)
	conn := NewConn(coord, 64, nil)
	ctx := context.Background()

	login, err := protocol.JSON.Encode(protocol.MsgLogin, "a", protocol.Login{ID: "alice", Username: "Alice"})
	require.NoError(t, err)
	f, err := protocol.JSON.Decode(login)
	require.NoError(t, err)
	conn.Handle(ctx, f)
	assert.Equal(t, multiplayer.ParticipantID("alice"), conn.Participant())

	_, err = conn.actor("bob")
	assert.ErrorIs(t, err, multiplayer.ErrValidation)
	pid, err := conn.actor("")
	require.NoError(t, err)
	assert.Equal(t, multiplayer.ParticipantID("alice"), pid)

	logout, err := protocol.JSON.Encode(protocol.MsgLogout, "b", nil)
	require.NoError(t, err)
	f, err = protocol.JSON.Decode(logout)
	require.NoError(t, err)
	conn.Handle(ctx, f)
	assert.Empty(t, conn.Participant())
	assert.False(t, coord.Sessions().IsOnline("alice"))
}
