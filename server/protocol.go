package server

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/milk9111/tractorbeam/engine"
)

// Server to client.
const (
	MsgWelcome = "welcome"
	MsgLevel   = "level"
	MsgState   = "state"
)

// Client to server.
const (
	MsgInput     = "input"
	MsgBeam      = "beam"
	MsgBeamClick = "beam_click"
	MsgChat      = "chat"
)

var (
	ErrEmptyEnvelope = eris.New("empty envelope")
	ErrEmptyPayload  = eris.New("empty payload")
	ErrUnknownCodec  = eris.New("unknown codec")
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

type Welcome struct {
	ID          string             `json:"id" msgpack:"id"`
	Player      engine.PlayerState `json:"player" msgpack:"player"`
	Codec       string             `json:"codec" msgpack:"codec"`
	TickHz      int                `json:"tickHz" msgpack:"tickHz"`
	BroadcastHz int                `json:"broadcastHz" msgpack:"broadcastHz"`
}

type BeamPayload struct {
	Active bool `json:"active"`
}

type BeamClickPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyEnvelope
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, eris.Wrap(err, "decode envelope")
	}
	return env, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, eris.Wrapf(ErrEmptyPayload, "message %q", env.T)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		return out, eris.Wrapf(err, "decode %q payload", env.T)
	}
	return out, nil
}

// Codec frames outgoing messages. Clients always send JSON text; the codec
// chosen at connect time only affects what the server writes.
type Codec interface {
	Name() string
	Encode(t string, payload any) (frameType int, data []byte, err error)
}

func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, eris.Wrapf(ErrUnknownCodec, "codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(t string, payload any) (int, []byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "encode %q", t)
	}
	b, err := json.Marshal(Envelope{T: t, P: p})
	if err != nil {
		return 0, nil, eris.Wrapf(err, "encode %q", t)
	}
	return websocket.TextMessage, b, nil
}

type msgpackEnvelope struct {
	T string `msgpack:"t"`
	P any    `msgpack:"p"`
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(t string, payload any) (int, []byte, error) {
	// pre-encoded JSON (the level descriptor) is re-read so it packs as a map
	if raw, ok := payload.(json.RawMessage); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, nil, eris.Wrapf(err, "encode %q", t)
		}
		payload = v
	}
	b, err := msgpack.Marshal(&msgpackEnvelope{T: t, P: payload})
	if err != nil {
		return 0, nil, eris.Wrapf(err, "encode %q", t)
	}
	return websocket.BinaryMessage, b, nil
}
