package protocol

import (
	"fmt"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
)

// EncodeEvent frames a coordinator event. Acks and errors carry their ref in
// the envelope as well as in the payload.
func EncodeEvent(c Codec, evt multiplayer.SessionEvent) ([]byte, error) {
	ref := ""
	switch e := evt.(type) {
	case multiplayer.AckEvent:
		ref = e.Ref
	case multiplayer.ErrorEvent:
		ref = e.Ref
	}
	return c.Encode(evt.EventType(), ref, evt)
}

// DecodeEvent turns a server frame back into the coordinator event it was
// encoded from.
func DecodeEvent(f Frame) (multiplayer.SessionEvent, error) {
	switch f.Type {
	case MsgLoginSuccess:
		return bindEvent[multiplayer.LoginSuccessEvent](f)
	case MsgUsersUpdate:
		return bindEvent[multiplayer.UsersUpdateEvent](f)
	case MsgRoomsUpdate:
		return bindEvent[multiplayer.RoomsUpdateEvent](f)
	case MsgRoomUpdate:
		return bindEvent[multiplayer.RoomUpdateEvent](f)
	case MsgRoomCreated:
		return bindEvent[multiplayer.RoomCreatedEvent](f)
	case MsgRoomJoined:
		return bindEvent[multiplayer.RoomJoinedEvent](f)
	case MsgRoomLeft:
		return bindEvent[multiplayer.RoomLeftEvent](f)
	case MsgCountdown:
		return bindEvent[multiplayer.CountdownEvent](f)
	case MsgGameStart:
		return bindEvent[multiplayer.GameStartEvent](f)
	case MsgGameEnded:
		return bindEvent[multiplayer.GameEndedEvent](f)
	case MsgPlayerGameOver:
		return bindEvent[multiplayer.PlayerGameOverEvent](f)
	case MsgOpponentUpdate:
		return bindEvent[multiplayer.OpponentUpdateEvent](f)
	case MsgError:
		evt, err := DecodePayload[multiplayer.ErrorEvent](f)
		if err != nil {
			return nil, fmt.Errorf("protocol: decode %s: %w", f.Type, err)
		}
		if evt.Ref == "" {
			evt.Ref = f.Ref
		}
		return evt, nil
	case MsgAck:
		evt, err := DecodePayload[multiplayer.AckEvent](f)
		if err != nil {
			return nil, fmt.Errorf("protocol: decode %s: %w", f.Type, err)
		}
		if evt.Ref == "" {
			evt.Ref = f.Ref
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, f.Type)
	}
}

func bindEvent[T multiplayer.SessionEvent](f Frame) (multiplayer.SessionEvent, error) {
	evt, err := DecodePayload[T](f)
	if err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", f.Type, err)
	}
	return evt, nil
}
