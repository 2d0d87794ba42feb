package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/server"
)

func startServer(t *testing.T) (*multiplayer.Coordinator, string) {
	t.Helper()
	cfg := multiplayer.DefaultCoordinatorConfig()
	cfg.CountdownInterval = 10 * time.Millisecond
	coord := multiplayer.NewCoordinator(cfg, multiplayer.NewSessionRegistry())
	t.Cleanup(coord.Stop)

	ts := httptest.NewServer(server.New(coord, server.Options{}).Handler())
	t.Cleanup(ts.Close)
	return coord, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url, id, codec string) *Remote {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := Dial(ctx, Options{URL: url, Codec: codec, ParticipantID: multiplayer.ParticipantID(id), Username: "user-" + id})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func waitEvent[T multiplayer.SessionEvent](t *testing.T, r *Remote) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt, ok := <-r.Events():
			if !ok {
				t.Fatal("events closed")
			}
			if e, ok := evt.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestRemoteMatch(t *testing.T) {
	coord, url := startServer(t)
	alice := dial(t, url, "alice", "json")
	bob := dial(t, url, "bob", "msgpack")
	ctx := context.Background()

	var host, guest multiplayer.Orchestrator = alice, bob

	room, err := host.CreateRoom(ctx, multiplayer.CreateRoomRequest{Name: "remote duel", HostID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "remote duel", room.Name)

	room, err = guest.JoinRoom(ctx, room.ID, bob.Participant())
	require.NoError(t, err)
	assert.Len(t, room.Players, 2)

	_, err = host.SetReady(ctx, room.ID, "alice", true)
	require.NoError(t, err)
	_, err = guest.SetReady(ctx, room.ID, "bob", true)
	require.NoError(t, err)

	start := waitEvent[multiplayer.GameStartEvent](t, alice)
	assert.Equal(t, room.ID, start.RoomID)
	waitEvent[multiplayer.GameStartEvent](t, bob)

	require.NoError(t, guest.RelayGameState(ctx, room.ID, "bob", multiplayer.Snapshot(`{"score":7}`)))
	upd := waitEvent[multiplayer.OpponentUpdateEvent](t, alice)
	assert.JSONEq(t, `{"score":7}`, string(upd.Snapshot))

	require.NoError(t, host.ReportGameOver(ctx, room.ID, "alice", 100))
	require.NoError(t, guest.ReportGameOver(ctx, room.ID, "bob", 400))

	ended := waitEvent[multiplayer.GameEndedEvent](t, alice)
	assert.Equal(t, multiplayer.ParticipantID("bob"), ended.WinnerID)

	require.NoError(t, guest.LeaveRoom(ctx, room.ID, "bob"))
	after, ok := coord.GetRoom(room.ID)
	require.True(t, ok)
	assert.Len(t, after.Players, 1)
}

func TestRemoteErrorsMatchSentinels(t *testing.T) {
	_, url := startServer(t)
	alice := dial(t, url, "alice", "json")
	bob := dial(t, url, "bob", "json")
	carol := dial(t, url, "carol", "msgpack")
	ctx := context.Background()

	_, err := alice.JoinRoom(ctx, "room_missing", "alice")
	assert.ErrorIs(t, err, multiplayer.ErrNotFound)

	room, err := alice.CreateRoom(ctx, multiplayer.CreateRoomRequest{})
	require.NoError(t, err)

	_, err = alice.SetReady(ctx, room.ID, "alice", true)
	assert.ErrorIs(t, err, multiplayer.ErrState)

	_, err = bob.JoinRoom(ctx, room.ID, "")
	require.NoError(t, err)
	_, err = carol.JoinRoom(ctx, room.ID, "")
	assert.ErrorIs(t, err, multiplayer.ErrCapacity)

	_, err = carol.JoinRoom(ctx, room.ID, "alice")
	assert.ErrorIs(t, err, multiplayer.ErrValidation)

	err = bob.ReportGameOver(ctx, room.ID, "", -5)
	assert.ErrorIs(t, err, multiplayer.ErrValidation)
}

func TestDialValidation(t *testing.T) {
	_, url := startServer(t)
	ctx := context.Background()

	_, err := Dial(ctx, Options{URL: url})
	assert.Error(t, err)

	_, err = Dial(ctx, Options{URL: url, Codec: "xml", ParticipantID: "a", Username: "A"})
	assert.Error(t, err)

	_, err = Dial(ctx, Options{URL: "ws://127.0.0.1:1/ws", ParticipantID: "a", Username: "A"})
	assert.Error(t, err)
}

func TestRemoteClose(t *testing.T) {
	coord, url := startServer(t)
	alice := dial(t, url, "alice", "json")
	require.True(t, coord.Sessions().IsOnline("alice"))

	require.NoError(t, alice.Close())
	require.NoError(t, alice.Close())

	select {
	case <-alice.Done():
	default:
		t.Fatal("Done() not closed")
	}

	_, err := alice.CreateRoom(context.Background(), multiplayer.CreateRoomRequest{})
	assert.True(t, errors.Is(err, ErrClosed), "got %v", err)

	require.Eventually(t, func() bool {
		return !coord.Sessions().IsOnline("alice")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemoteCallHonoursContext(t *testing.T) {
	_, url := startServer(t)
	alice := dial(t, url, "alice", "json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := alice.CreateRoom(ctx, multiplayer.CreateRoomRequest{})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
