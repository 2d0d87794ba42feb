// Package protocol defines the wire format shared by the server transports
// and the networked client: envelopes of {type, ref, data}, message type
// names and the payloads of client requests.
package protocol

import (
	"errors"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
)

// Client to server message types.
const (
	MsgLogin      = "user:login"
	MsgLogout     = "user:logout"
	MsgRoomCreate = "room:create"
	MsgRoomJoin   = "room:join"
	MsgRoomLeave  = "room:leave"
	MsgReady      = "player:ready"
	MsgGameUpdate = "game:update"
	MsgGameOver   = "game:over"
)

// Server to client message types.
const (
	MsgLoginSuccess   = "user:login_success"
	MsgUsersUpdate    = "users:update"
	MsgRoomsUpdate    = "rooms:update"
	MsgRoomUpdate     = "room:update"
	MsgRoomCreated    = "room:created"
	MsgRoomJoined     = "room:joined"
	MsgRoomLeft       = "room:left"
	MsgCountdown      = "game:countdown"
	MsgGameStart      = "game:start"
	MsgGameEnded      = "game:ended"
	MsgPlayerGameOver = "player:game-over"
	MsgOpponentUpdate = "game:opponent-update"
	MsgError          = "error"
	MsgAck            = "ack"
)

var (
	ErrEmptyFrame  = errors.New("protocol: empty frame")
	ErrMissingType = errors.New("protocol: message type is required")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

// Login is the payload of user:login.
type Login struct {
	ID       multiplayer.ParticipantID `json:"id"`
	Username string                    `json:"username"`
}

// CreateRoom is the payload of room:create. A zero MaxPlayers or TimeLimit
// selects the server default.
type CreateRoom struct {
	Name       string                    `json:"name"`
	HostID     multiplayer.ParticipantID `json:"hostId,omitempty"`
	MaxPlayers int                       `json:"maxPlayers,omitempty"`
	TimeLimit  int                       `json:"timeLimit,omitempty"`
}

// RoomRef is the payload of room:join and room:leave.
type RoomRef struct {
	RoomID        multiplayer.RoomID        `json:"roomId"`
	ParticipantID multiplayer.ParticipantID `json:"participantId,omitempty"`
}

// Ready is the payload of player:ready.
type Ready struct {
	RoomID        multiplayer.RoomID        `json:"roomId"`
	ParticipantID multiplayer.ParticipantID `json:"participantId,omitempty"`
	IsReady       bool                      `json:"isReady"`
}

// GameUpdate is the payload of game:update.
type GameUpdate struct {
	RoomID        multiplayer.RoomID        `json:"roomId"`
	ParticipantID multiplayer.ParticipantID `json:"participantId,omitempty"`
	Snapshot      multiplayer.Snapshot      `json:"snapshot"`
}

// GameOver is the payload of game:over.
type GameOver struct {
	RoomID        multiplayer.RoomID        `json:"roomId"`
	ParticipantID multiplayer.ParticipantID `json:"participantId,omitempty"`
	Score         int                       `json:"score"`
}

// Frame is a decoded envelope whose data is still encoded.
type Frame struct {
	Type string
	Ref  string

	data  []byte
	codec Codec
}

// HasData reports whether the envelope carried a payload.
func (f Frame) HasData() bool {
	return len(f.data) > 0
}

// Bind decodes the payload into v. A frame without data leaves v untouched.
func (f Frame) Bind(v any) error {
	if !f.HasData() || f.codec == nil {
		return nil
	}
	return f.codec.Unmarshal(f.data, v)
}

// DecodePayload binds the frame payload into a new T.
func DecodePayload[T any](f Frame) (T, error) {
	var out T
	err := f.Bind(&out)
	return out, err
}
