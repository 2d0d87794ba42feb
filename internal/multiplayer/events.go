package multiplayer

import (
	"bytes"
	"encoding/json"
	"time"
)

// SessionEvent is an event delivered from the coordinator to a session.
// EventType returns the wire message type.
type SessionEvent interface {
	EventType() string
}

// Snapshot is an engine state snapshot relayed between participants.
// The coordinator never interprets it. It must hold a JSON document.
type Snapshot []byte

// MarshalJSON emits the snapshot bytes unchanged.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = append((*s)[:0], data...)
	return nil
}

// Valid reports whether the snapshot holds a well-formed JSON document.
// A bare null carries no state and is not valid.
func (s Snapshot) Valid() bool {
	doc := bytes.TrimSpace(s)
	return len(doc) > 0 && !bytes.Equal(doc, []byte("null")) && json.Valid(doc)
}

// LoginSuccessEvent answers user:login with the current global views.
type LoginSuccessEvent struct {
	User        User   `json:"user"`
	OnlineUsers []User `json:"onlineUsers"`
	ActiveRooms []Room `json:"activeRooms"`
}

func (LoginSuccessEvent) EventType() string { return "user:login_success" }

// UsersUpdateEvent is the global user list.
type UsersUpdateEvent []User

func (UsersUpdateEvent) EventType() string { return "users:update" }

// RoomsUpdateEvent is the global room list.
type RoomsUpdateEvent []Room

func (RoomsUpdateEvent) EventType() string { return "rooms:update" }

// RoomUpdateEvent carries the full state of one room to its members.
type RoomUpdateEvent Room

func (RoomUpdateEvent) EventType() string { return "room:update" }

// RoomCreatedEvent is sent to the host after room:create.
type RoomCreatedEvent struct {
	Room Room `json:"room"`
}

func (RoomCreatedEvent) EventType() string { return "room:created" }

// RoomJoinedEvent is sent to the joiner after room:join.
type RoomJoinedEvent struct {
	Room Room `json:"room"`
}

func (RoomJoinedEvent) EventType() string { return "room:joined" }

// RoomLeftEvent is sent to a participant removed from a room.
type RoomLeftEvent struct {
	RoomID RoomID `json:"roomId"`
	Reason string `json:"reason,omitempty"`
}

func (RoomLeftEvent) EventType() string { return "room:left" }

// CountdownEvent announces the remaining countdown value.
type CountdownEvent struct {
	RoomID RoomID `json:"roomId"`
	Value  int    `json:"value"`
}

func (CountdownEvent) EventType() string { return "game:countdown" }

// GameStartEvent is broadcast when a room enters Playing.
type GameStartEvent struct {
	RoomID    RoomID    `json:"roomId"`
	MatchID   MatchID   `json:"matchId"`
	StartTime time.Time `json:"startTime"`
	TimeLimit int       `json:"timeLimit"`
	Players   []Player  `json:"players"`
}

func (GameStartEvent) EventType() string { return "game:start" }

// GameEndedEvent is broadcast when every player reported game over.
type GameEndedEvent struct {
	RoomID   RoomID        `json:"roomId"`
	MatchID  MatchID       `json:"matchId"`
	WinnerID ParticipantID `json:"winnerId"`
	Players  []Player      `json:"players"`
}

func (GameEndedEvent) EventType() string { return "game:ended" }

// PlayerGameOverEvent announces one player's over-state while others still play.
type PlayerGameOverEvent struct {
	RoomID        RoomID        `json:"roomId"`
	ParticipantID ParticipantID `json:"participantId"`
	Score         int           `json:"score"`
}

func (PlayerGameOverEvent) EventType() string { return "player:game-over" }

// OpponentUpdateEvent relays another participant's snapshot.
type OpponentUpdateEvent struct {
	RoomID        RoomID        `json:"roomId"`
	ParticipantID ParticipantID `json:"participantId"`
	Snapshot      Snapshot      `json:"snapshot"`
}

func (OpponentUpdateEvent) EventType() string { return "game:opponent-update" }

// ErrorEvent reports a rejected request to the requesting connection only.
type ErrorEvent struct {
	Ref     string `json:"ref,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (ErrorEvent) EventType() string { return "error" }

// AckEvent confirms a request that carried a ref.
type AckEvent struct {
	Ref  string `json:"ref"`
	Room *Room  `json:"room,omitempty"`
}

func (AckEvent) EventType() string { return "ack" }
