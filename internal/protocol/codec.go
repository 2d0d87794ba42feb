package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes envelopes for one wire format.
type Codec interface {
	// Name is the value of the codec query parameter.
	Name() string
	// Binary reports whether frames must be sent as binary websocket messages.
	Binary() bool
	Encode(msgType, ref string, data any) ([]byte, error)
	Decode(frame []byte) (Frame, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName returns the codec for a query value. Empty selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case MsgPack.Name():
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("protocol: unknown codec %q", name)
	}
}

type jsonEnvelope struct {
	Type string          `json:"type"`
	Ref  string          `json:"ref,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (c jsonCodec) Encode(msgType, ref string, data any) ([]byte, error) {
	if msgType == "" {
		return nil, ErrMissingType
	}
	env := jsonEnvelope{Type: msgType, Ref: ref}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", msgType, err)
		}
		env.Data = b
	}
	return json.Marshal(env)
}

func (c jsonCodec) Decode(frame []byte) (Frame, error) {
	if len(bytes.TrimSpace(frame)) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	var env jsonEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Frame{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Type == "" {
		return Frame{}, ErrMissingType
	}
	data := []byte(env.Data)
	if bytes.Equal(data, []byte("null")) {
		data = nil
	}
	return Frame{Type: env.Type, Ref: env.Ref, data: data, codec: c}, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type msgpackEnvelope struct {
	Type string             `msgpack:"type"`
	Ref  string             `msgpack:"ref,omitempty"`
	Data msgpack.RawMessage `msgpack:"data,omitempty"`
}

// msgpackCodec reuses the json struct tags of the payload types.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (c msgpackCodec) Encode(msgType, ref string, data any) ([]byte, error) {
	if msgType == "" {
		return nil, ErrMissingType
	}
	env := msgpackEnvelope{Type: msgType, Ref: ref}
	if data != nil {
		b, err := c.marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", msgType, err)
		}
		env.Data = b
	}
	return c.marshal(&env)
}

func (c msgpackCodec) Decode(frame []byte) (Frame, error) {
	if len(frame) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	var env msgpackEnvelope
	if err := c.Unmarshal(frame, &env); err != nil {
		return Frame{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Type == "" {
		return Frame{}, ErrMissingType
	}
	return Frame{Type: env.Type, Ref: env.Ref, data: env.Data, codec: c}, nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (msgpackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
