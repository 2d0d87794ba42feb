// Package multiplayer implements the server side of head-to-head play: the
// session registry, the room coordinator that drives the ready, countdown,
// playing and resolved lifecycle, and the relay that fans events out to
// connected sessions.
package multiplayer

import "time"

// SessionID uniquely identifies one live connection.
type SessionID string

// ParticipantID is the stable identifier a client logs in with.
// Identifiers are unauthenticated labels.
type ParticipantID string

// RoomID identifies a room.
type RoomID string

// MatchID identifies one played match inside a room.
type MatchID string

// Presence is the connection state of a user.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// User is a participant known to the session registry.
type User struct {
	ID         ParticipantID `json:"id"`
	Username   string        `json:"username"`
	Status     Presence      `json:"status"`
	LastActive time.Time     `json:"lastActive"`
}

// RoomStatus is the persisted status of a room.
// A countdown in progress is a Waiting room with a countdown value set.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
)

// Phase is the lifecycle state derived from status and countdown.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCountdown
	PhasePlaying
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "Waiting"
	case PhaseCountdown:
		return "Countdown"
	case PhasePlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// Player is a room-scoped participant record.
type Player struct {
	ID       ParticipantID `json:"id"`
	Username string        `json:"username"`
	Ready    bool          `json:"isReady"`
	Score    int           `json:"score"`
	GameOver bool          `json:"gameOver"`
}

// Room is a match room. Values handed out by the coordinator are copies.
type Room struct {
	ID            RoomID        `json:"id"`
	Name          string        `json:"name"`
	HostID        ParticipantID `json:"hostId"`
	Players       []Player      `json:"players"`
	MaxPlayers    int           `json:"maxPlayers"`
	Status        RoomStatus    `json:"status"`
	Countdown     *int          `json:"countdown,omitempty"`
	TimeLimit     int           `json:"timeLimit"` // Seconds per match
	CreatedAt     time.Time     `json:"createdAt"`
	LastActive    time.Time     `json:"lastActive"`
	GameStartTime *time.Time    `json:"gameStartTime,omitempty"`
	WinnerID      ParticipantID `json:"winner,omitempty"`
}

// Phase returns the lifecycle state of the room.
func (r *Room) Phase() Phase {
	switch {
	case r.Status == RoomPlaying:
		return PhasePlaying
	case r.Countdown != nil:
		return PhaseCountdown
	default:
		return PhaseWaiting
	}
}

// PlayerIndex returns the position of a participant in the room, or -1.
func (r *Room) PlayerIndex(id ParticipantID) int {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether the participant is a member.
func (r *Room) HasPlayer(id ParticipantID) bool {
	return r.PlayerIndex(id) >= 0
}

// PlayerIDs returns the member identifiers in room order.
func (r *Room) PlayerIDs() []ParticipantID {
	ids := make([]ParticipantID, len(r.Players))
	for i := range r.Players {
		ids[i] = r.Players[i].ID
	}
	return ids
}

// AllReady reports whether every member is ready.
func (r *Room) AllReady() bool {
	for i := range r.Players {
		if !r.Players[i].Ready {
			return false
		}
	}
	return len(r.Players) > 0
}

// AllGameOver reports whether every member has reported game over.
func (r *Room) AllGameOver() bool {
	for i := range r.Players {
		if !r.Players[i].GameOver {
			return false
		}
	}
	return len(r.Players) > 0
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() Room {
	out := *r
	out.Players = append([]Player(nil), r.Players...)
	if r.Countdown != nil {
		v := *r.Countdown
		out.Countdown = &v
	}
	if r.GameStartTime != nil {
		ts := *r.GameStartTime
		out.GameStartTime = &ts
	}
	return out
}

// MatchEndReason describes why a match ended.
type MatchEndReason int

const (
	MatchEndReasonCompleted MatchEndReason = iota // Every player reported game over
	MatchEndReasonForfeit                         // A player left mid-match
	MatchEndReasonExpired                         // The room was reaped while playing
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "completed"
	case MatchEndReasonForfeit:
		return "forfeit"
	case MatchEndReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}
