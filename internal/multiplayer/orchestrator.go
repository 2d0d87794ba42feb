package multiplayer

import "context"

// Orchestrator is the room lifecycle surface shared by the in-process
// Coordinator and the networked client. Participants drive matches through
// it without knowing which side is authoritative.
type Orchestrator interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error)
	JoinRoom(ctx context.Context, roomID RoomID, pid ParticipantID) (Room, error)
	LeaveRoom(ctx context.Context, roomID RoomID, pid ParticipantID) error
	SetReady(ctx context.Context, roomID RoomID, pid ParticipantID, ready bool) (Room, error)
	RelayGameState(ctx context.Context, roomID RoomID, pid ParticipantID, snapshot Snapshot) error
	ReportGameOver(ctx context.Context, roomID RoomID, pid ParticipantID, score int) error
}

var _ Orchestrator = (*Coordinator)(nil)
