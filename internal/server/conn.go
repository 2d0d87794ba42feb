package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/protocol"
)

// Conn binds one transport connection to the coordinator. After user:login
// the connection acts only for the participant it logged in as.
type Conn struct {
	coord   *multiplayer.Coordinator
	session *multiplayer.ChannelSession
	logger  *log.Logger

	mu          sync.Mutex
	participant multiplayer.ParticipantID
}

// NewConn creates a connection with its own outbound event queue.
func NewConn(coord *multiplayer.Coordinator, eventBuffer int, logger *log.Logger) *Conn {
	id := multiplayer.SessionID(uuid.NewString())
	if logger == nil {
		logger = discardLogger()
	}
	return &Conn{
		coord:   coord,
		session: multiplayer.NewChannelSession(id, eventBuffer),
		logger:  logger.With("session", id),
	}
}

// Session returns the outbound side the transport drains.
func (c *Conn) Session() *multiplayer.ChannelSession {
	return c.session
}

// Participant returns the logged-in participant, if any.
func (c *Conn) Participant() multiplayer.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participant
}

// Handle runs one client message. Failures are answered with an error event
// to this connection only; successful requests carrying a ref are acked.
func (c *Conn) Handle(ctx context.Context, f protocol.Frame) {
	room, err := c.dispatch(ctx, f)
	if err != nil {
		c.Reject(f.Ref, err)
		return
	}
	if f.Ref != "" {
		c.session.Send(multiplayer.AckEvent{Ref: f.Ref, Room: room})
	}
}

// Reject sends an error event for a request that could not be served.
func (c *Conn) Reject(ref string, err error) {
	code := multiplayer.ErrorCode(err)
	if code == "internal" {
		c.logger.Warn("request failed", "ref", ref, "error", err)
	} else {
		c.logger.Debug("request rejected", "ref", ref, "code", code, "error", err)
	}
	c.session.Send(multiplayer.ErrorEvent{Ref: ref, Code: code, Message: err.Error()})
}

// Close logs the participant out and ends the session.
func (c *Conn) Close(ctx context.Context) {
	if pid := c.Participant(); pid != "" {
		c.coord.Disconnect(ctx, pid, c.session.ID())
	}
	c.session.Close()
}

func (c *Conn) dispatch(ctx context.Context, f protocol.Frame) (*multiplayer.Room, error) {
	switch f.Type {
	case protocol.MsgLogin:
		req, err := decode[protocol.Login](f)
		if err != nil {
			return nil, err
		}
		return nil, c.login(ctx, req)

	case protocol.MsgLogout:
		pid, err := c.actor("")
		if err != nil {
			return nil, err
		}
		c.coord.Disconnect(ctx, pid, c.session.ID())
		c.mu.Lock()
		c.participant = ""
		c.mu.Unlock()
		return nil, nil

	case protocol.MsgRoomCreate:
		req, err := decode[protocol.CreateRoom](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.HostID)
		if err != nil {
			return nil, err
		}
		room, err := c.coord.CreateRoom(ctx, multiplayer.CreateRoomRequest{
			Name:       req.Name,
			HostID:     pid,
			MaxPlayers: req.MaxPlayers,
			TimeLimit:  req.TimeLimit,
		})
		return roomOrNil(room, err)

	case protocol.MsgRoomJoin:
		req, err := decode[protocol.RoomRef](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.ParticipantID)
		if err != nil {
			return nil, err
		}
		return roomOrNil(c.coord.JoinRoom(ctx, req.RoomID, pid))

	case protocol.MsgRoomLeave:
		req, err := decode[protocol.RoomRef](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.ParticipantID)
		if err != nil {
			return nil, err
		}
		return nil, c.coord.LeaveRoom(ctx, req.RoomID, pid)

	case protocol.MsgReady:
		req, err := decode[protocol.Ready](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.ParticipantID)
		if err != nil {
			return nil, err
		}
		return roomOrNil(c.coord.SetReady(ctx, req.RoomID, pid, req.IsReady))

	case protocol.MsgGameUpdate:
		req, err := decode[protocol.GameUpdate](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.ParticipantID)
		if err != nil {
			return nil, err
		}
		if !req.Snapshot.Valid() {
			return nil, fmt.Errorf("%w: snapshot must be a JSON document", multiplayer.ErrValidation)
		}
		return nil, c.coord.RelayGameState(ctx, req.RoomID, pid, req.Snapshot)

	case protocol.MsgGameOver:
		req, err := decode[protocol.GameOver](f)
		if err != nil {
			return nil, err
		}
		pid, err := c.actor(req.ParticipantID)
		if err != nil {
			return nil, err
		}
		return nil, c.coord.ReportGameOver(ctx, req.RoomID, pid, req.Score)

	default:
		return nil, fmt.Errorf("%w: unknown message type %q", multiplayer.ErrValidation, f.Type)
	}
}

func (c *Conn) login(ctx context.Context, req protocol.Login) error {
	c.mu.Lock()
	current := c.participant
	c.mu.Unlock()
	if current != "" && current != req.ID {
		return fmt.Errorf("%w: connection is logged in as %s", multiplayer.ErrValidation, current)
	}

	if _, err := c.coord.Login(ctx, req.ID, req.Username, c.session); err != nil {
		return err
	}
	c.mu.Lock()
	c.participant = req.ID
	c.mu.Unlock()
	return nil
}

// actor resolves the participant a request acts for. An empty claim means
// the logged-in participant.
func (c *Conn) actor(claimed multiplayer.ParticipantID) (multiplayer.ParticipantID, error) {
	pid := c.Participant()
	if pid == "" {
		return "", fmt.Errorf("%w: login required", multiplayer.ErrValidation)
	}
	if claimed != "" && claimed != pid {
		return "", fmt.Errorf("%w: connection cannot act for %s", multiplayer.ErrValidation, claimed)
	}
	return pid, nil
}

func decode[T any](f protocol.Frame) (T, error) {
	v, err := protocol.DecodePayload[T](f)
	if err != nil {
		return v, fmt.Errorf("%w: malformed %s payload: %v", multiplayer.ErrValidation, f.Type, err)
	}
	return v, nil
}

func roomOrNil(room multiplayer.Room, err error) (*multiplayer.Room, error) {
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", multiplayer.ErrValidation, err)
}
