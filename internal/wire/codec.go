package wire

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// WireCodec encodes and decodes a WireMessage. JSON is the primary,
// human-inspectable codec every consumer speaks; gob is a secondary codec,
// never used for the network protocol. AuditSink (audit.go) writes its own
// gob records with encoding/gob and does not go through WireCodec.
type WireCodec interface {
	Encode(msg WireMessage) ([]byte, error)
	Decode(data []byte) (WireMessage, error)
	Name() string
}

// jsonCodec implements WireCodec over encoding/json.
type jsonCodec struct{}

// NewJSONCodec returns the primary wire codec.
func NewJSONCodec() WireCodec { return jsonCodec{} }

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(msg WireMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Decode(data []byte) (WireMessage, error) {
	var msg WireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WireMessage{}, fmt.Errorf("wire: decode json: %w", err)
	}
	return msg, nil
}

// gobCodec implements WireCodec over encoding/gob. Nothing speaks gob over
// the network, and AuditSink does not use this codec.
type gobCodec struct{}

// NewGobCodec returns the secondary, gob-based codec.
func NewGobCodec() WireCodec { return gobCodec{} }

func (gobCodec) Name() string { return "gob" }

func (gobCodec) Encode(msg WireMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("wire: encode gob: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(data []byte) (WireMessage, error) {
	var msg WireMessage
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return WireMessage{}, fmt.Errorf("wire: decode gob: %w", err)
	}
	return msg, nil
}
