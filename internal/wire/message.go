// Package wire implements the delta/snapshot market-data protocol consumers
// speak to this process: a DepthSnapshot to seed local state, then a stream
// of DepthUpdate deltas with contiguous first_update_id/final_update_id
// ranges a consumer can use to detect a gap (see internal/syncstate on the
// consuming side).
package wire

import (
	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// MsgType identifies the payload carried by a WireMessage.
type MsgType uint8

const (
	MsgTypeDepthSnapshot MsgType = iota + 1
	MsgTypeDepthUpdate
	MsgTypeTrade
)

// WireMessage is the outer envelope every market-data message is sent in,
// regardless of codec. Sequence is the book sequence the payload was
// produced at; a consumer uses it (together with FirstUpdateID/
// FinalUpdateID inside Depth payloads) to detect gaps.
type WireMessage struct {
	MsgType     MsgType `json:"msg_type"`
	Sequence    uint64  `json:"sequence"`
	TimestampNS int64   `json:"timestamp_ns"`
	Source      string  `json:"source"`
	Symbol      values.Symbol `json:"symbol"`
	Payload     []byte  `json:"payload"`
}

// DepthLevelWire is one (price, quantity) pair as it appears on the wire.
type DepthLevelWire struct {
	Price    values.Price    `json:"price"`
	Quantity values.Quantity `json:"quantity"`
}

// DepthSnapshotPayload seeds a consumer with a full point-in-time view of
// the book.
type DepthSnapshotPayload struct {
	Symbol       values.Symbol    `json:"symbol"`
	LastUpdateID uint64           `json:"last_update_id"`
	Bids         []DepthLevelWire `json:"bids"`
	Asks         []DepthLevelWire `json:"asks"`
}

// DepthUpdatePayload carries the net level changes from one book mutation.
type DepthUpdatePayload struct {
	Symbol        values.Symbol    `json:"symbol"`
	FirstUpdateID uint64           `json:"first_update_id"`
	FinalUpdateID uint64           `json:"final_update_id"`
	Bids          []DepthLevelWire `json:"bids"`
	Asks          []DepthLevelWire `json:"asks"`
}

func toWireLevels(levels []events.DepthLevel) []DepthLevelWire {
	out := make([]DepthLevelWire, len(levels))
	for i, l := range levels {
		out[i] = DepthLevelWire{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

// FromSnapshot converts a core DepthSnapshot event into its wire payload.
func FromSnapshot(e *events.DepthSnapshot) DepthSnapshotPayload {
	return DepthSnapshotPayload{
		Symbol:       e.Symbol,
		LastUpdateID: e.LastUpdateID,
		Bids:         toWireLevels(e.Bids),
		Asks:         toWireLevels(e.Asks),
	}
}

// FromUpdate converts a core DepthUpdate event into its wire payload.
func FromUpdate(e *events.DepthUpdate) DepthUpdatePayload {
	return DepthUpdatePayload{
		Symbol:        e.Symbol,
		FirstUpdateID: e.FirstUpdateID,
		FinalUpdateID: e.FinalUpdateID,
		Bids:          toWireLevels(e.Bids),
		Asks:          toWireLevels(e.Asks),
	}
}
