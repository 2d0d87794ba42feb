// Package client implements the networked side of the Orchestrator: a
// websocket connection to a tetris-battle server whose calls block until the
// server acknowledges them.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/protocol"
)

const writeWait = 10 * time.Second

// ErrClosed is returned by calls on a closed connection.
var ErrClosed = errors.New("client: connection closed")

// Options configures Dial.
type Options struct {
	// URL is the server websocket endpoint (e.g., ws://localhost:8080/ws).
	URL string

	// Codec is "json" (default) or "msgpack".
	Codec string

	ParticipantID multiplayer.ParticipantID
	Username      string

	// EventBuffer is how many unanswered server events are kept before the
	// oldest is dropped.
	EventBuffer int

	Dialer *websocket.Dialer
	Logger *log.Logger
}

type result struct {
	ack multiplayer.AckEvent
	err error
}

// Remote is an Orchestrator backed by a server connection. Server pushes
// that do not answer a call are delivered on Events.
type Remote struct {
	ws     *websocket.Conn
	codec  protocol.Codec
	user   multiplayer.User
	inbox  *multiplayer.ChannelSession
	logger *log.Logger

	writeMu sync.Mutex
	seq     atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan result

	done      chan struct{}
	closeOnce sync.Once
	readDone  chan struct{}
}

var _ multiplayer.Orchestrator = (*Remote)(nil)

// Dial connects to the server and logs in as opts.ParticipantID.
func Dial(ctx context.Context, opts Options) (*Remote, error) {
	if opts.ParticipantID == "" || opts.Username == "" {
		return nil, fmt.Errorf("client: participant id and username are required")
	}
	codec, err := protocol.CodecByName(opts.Codec)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid url %q: %w", opts.URL, err)
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ws, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: cannot connect to %s: %w", u.Redacted(), err)
	}

	r := &Remote{
		ws:       ws,
		codec:    codec,
		inbox:    multiplayer.NewChannelSession(multiplayer.SessionID("remote-"+string(opts.ParticipantID)), opts.EventBuffer),
		logger:   logger.With("participant", opts.ParticipantID),
		pending:  make(map[string]chan result),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go r.readLoop()

	if _, err := r.call(ctx, protocol.MsgLogin, protocol.Login{ID: opts.ParticipantID, Username: opts.Username}); err != nil {
		r.Close()
		return nil, fmt.Errorf("client: login failed: %w", err)
	}
	r.user = multiplayer.User{ID: opts.ParticipantID, Username: opts.Username, Status: multiplayer.PresenceOnline}
	r.logger.Debug("logged in", "server", u.Host)
	return r, nil
}

// Participant returns the identity this connection logged in with.
func (r *Remote) Participant() multiplayer.ParticipantID {
	return r.user.ID
}

// Events returns server pushes that did not answer a call.
func (r *Remote) Events() <-chan multiplayer.SessionEvent {
	return r.inbox.Events()
}

// Done is closed once the connection ends.
func (r *Remote) Done() <-chan struct{} {
	return r.done
}

// Close logs out and closes the connection. Safe to call multiple times.
func (r *Remote) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.writeMu.Lock()
		_ = r.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if b, encErr := r.codec.Encode(protocol.MsgLogout, "", nil); encErr == nil {
			_ = r.ws.WriteMessage(r.messageType(), b)
		}
		_ = r.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		r.writeMu.Unlock()

		err = r.ws.Close()
		close(r.done)
		r.inbox.Close()
	})
	<-r.readDone
	return err
}

// CreateRoom implements multiplayer.Orchestrator.
func (r *Remote) CreateRoom(ctx context.Context, req multiplayer.CreateRoomRequest) (multiplayer.Room, error) {
	ack, err := r.call(ctx, protocol.MsgRoomCreate, protocol.CreateRoom{
		Name:       req.Name,
		HostID:     req.HostID,
		MaxPlayers: req.MaxPlayers,
		TimeLimit:  req.TimeLimit,
	})
	return roomFrom(ack, err)
}

// JoinRoom implements multiplayer.Orchestrator.
func (r *Remote) JoinRoom(ctx context.Context, roomID multiplayer.RoomID, pid multiplayer.ParticipantID) (multiplayer.Room, error) {
	return roomFrom(r.call(ctx, protocol.MsgRoomJoin, protocol.RoomRef{RoomID: roomID, ParticipantID: pid}))
}

// LeaveRoom implements multiplayer.Orchestrator.
func (r *Remote) LeaveRoom(ctx context.Context, roomID multiplayer.RoomID, pid multiplayer.ParticipantID) error {
	_, err := r.call(ctx, protocol.MsgRoomLeave, protocol.RoomRef{RoomID: roomID, ParticipantID: pid})
	return err
}

// SetReady implements multiplayer.Orchestrator.
func (r *Remote) SetReady(ctx context.Context, roomID multiplayer.RoomID, pid multiplayer.ParticipantID, ready bool) (multiplayer.Room, error) {
	return roomFrom(r.call(ctx, protocol.MsgReady, protocol.Ready{RoomID: roomID, ParticipantID: pid, IsReady: ready}))
}

// RelayGameState implements multiplayer.Orchestrator.
func (r *Remote) RelayGameState(ctx context.Context, roomID multiplayer.RoomID, pid multiplayer.ParticipantID, snapshot multiplayer.Snapshot) error {
	_, err := r.call(ctx, protocol.MsgGameUpdate, protocol.GameUpdate{RoomID: roomID, ParticipantID: pid, Snapshot: snapshot})
	return err
}

// ReportGameOver implements multiplayer.Orchestrator.
func (r *Remote) ReportGameOver(ctx context.Context, roomID multiplayer.RoomID, pid multiplayer.ParticipantID, score int) error {
	_, err := r.call(ctx, protocol.MsgGameOver, protocol.GameOver{RoomID: roomID, ParticipantID: pid, Score: score})
	return err
}

// call sends a request and waits for the ack or error carrying its ref.
func (r *Remote) call(ctx context.Context, msgType string, data any) (multiplayer.AckEvent, error) {
	ref := strconv.FormatUint(r.seq.Add(1), 10)
	b, err := r.codec.Encode(msgType, ref, data)
	if err != nil {
		return multiplayer.AckEvent{}, err
	}

	ch := make(chan result, 1)
	r.mu.Lock()
	r.pending[ref] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, ref)
		r.mu.Unlock()
	}()

	if err := r.write(b); err != nil {
		return multiplayer.AckEvent{}, err
	}

	select {
	case res := <-ch:
		return res.ack, res.err
	case <-ctx.Done():
		return multiplayer.AckEvent{}, ctx.Err()
	case <-r.done:
		return multiplayer.AckEvent{}, ErrClosed
	}
}

func (r *Remote) write(b []byte) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.ws.WriteMessage(r.messageType(), b); err != nil {
		return fmt.Errorf("client: write failed: %w", err)
	}
	return nil
}

func (r *Remote) messageType() int {
	if r.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (r *Remote) readLoop() {
	defer close(r.readDone)
	defer r.closeOnce.Do(func() {
		_ = r.ws.Close()
		close(r.done)
		r.inbox.Close()
	})

	for {
		_, msg, err := r.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Warn("connection lost", "error", err)
			}
			return
		}
		f, err := r.codec.Decode(msg)
		if err != nil {
			r.logger.Warn("cannot decode frame", "error", err)
			continue
		}
		evt, err := protocol.DecodeEvent(f)
		if err != nil {
			r.logger.Debug("skipping event", "type", f.Type, "error", err)
			continue
		}
		if r.resolve(evt) {
			continue
		}
		r.inbox.Send(evt)
	}
}

// resolve hands acks and errors to the call waiting on their ref. It
// reports whether evt was an answer.
func (r *Remote) resolve(evt multiplayer.SessionEvent) bool {
	var ref string
	var res result
	switch e := evt.(type) {
	case multiplayer.AckEvent:
		ref, res = e.Ref, result{ack: e}
	case multiplayer.ErrorEvent:
		ref, res = e.Ref, result{err: multiplayer.ErrorForCode(e.Code, e.Message)}
	default:
		return false
	}
	if ref == "" {
		return false
	}

	r.mu.Lock()
	ch, ok := r.pending[ref]
	r.mu.Unlock()
	if ok {
		ch <- res
	}
	// Answers to abandoned calls are dropped.
	return true
}

func roomFrom(ack multiplayer.AckEvent, err error) (multiplayer.Room, error) {
	if err != nil {
		return multiplayer.Room{}, err
	}
	if ack.Room == nil {
		return multiplayer.Room{}, fmt.Errorf("client: server ack carries no room")
	}
	return *ack.Room, nil
}
