package ws

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Codec turns envelopes into websocket frames and back.
type Codec interface {
	Name() string
	FrameType() int
	Encode(env Envelope) ([]byte, error)
	Decode(data []byte) (Envelope, error)
}

// CodecFor picks the codec requested by the ?enc= query value.
func CodecFor(enc string) (Codec, error) {
	switch enc {
	case "", EncodingJSON:
		return jsonCodec{}, nil
	case EncodingMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return EncodingJSON }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (jsonCodec) Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// msgpackCodec reuses the json tags so both encodings share field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return EncodingMsgpack }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(data []byte) (Envelope, error) {
	var env Envelope
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
