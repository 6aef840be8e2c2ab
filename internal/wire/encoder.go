package wire

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// Encoder subscribes to a marketdata.Publisher and turns DepthSnapshot and
// DepthUpdate events into encoded WireMessages on Out. Every other event
// kind (order lifecycle, trades) is dropped here: those reach subscribers
// through their own channel, not the depth wire protocol.
type Encoder struct {
	pub    *marketdata.Publisher
	codec  WireCodec
	Out    chan []byte
	lastID uint64
}

// NewEncoder builds an encoder that reads from pub and writes encoded
// messages to a channel of the given buffer size.
func NewEncoder(pub *marketdata.Publisher, codec WireCodec, bufferSize int) *Encoder {
	if codec == nil {
		codec = NewJSONCodec()
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Encoder{
		pub:   pub,
		codec: codec,
		Out:   make(chan []byte, bufferSize),
	}
}

// Run subscribes to symbol's depth events and encodes them until ctx is
// canceled or the subscription's channel closes. It does not close Out,
// since other symbols' Run goroutines may share the same Encoder's Out.
func (e *Encoder) Run(ctx context.Context, symbol values.Symbol) error {
	ch, unsubscribe := e.pub.Subscribe(symbol)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			if err := env.Err(); err != nil {
				// A gap in the delta stream: downstream (internal/syncstate)
				// is responsible for detecting this via FirstUpdateID
				// discontinuity and requesting a fresh snapshot. The
				// encoder itself has nothing more specific to say here.
				continue
			}
			if err := e.encodeOne(symbol, env.Event); err != nil {
				return err
			}
		}
	}
}

func (e *Encoder) encodeOne(symbol values.Symbol, evt events.Event) error {
	var msg WireMessage
	switch ev := evt.(type) {
	case *events.DepthSnapshot:
		payload, err := json.Marshal(FromSnapshot(ev))
		if err != nil {
			return fmt.Errorf("wire: marshal snapshot payload: %w", err)
		}
		e.lastID = ev.LastUpdateID
		msg = WireMessage{
			MsgType:     MsgTypeDepthSnapshot,
			Sequence:    ev.SequenceNum,
			TimestampNS: ev.Timestamp,
			Source:      "matching-core",
			Symbol:      symbol,
			Payload:     payload,
		}
	case *events.DepthUpdate:
		payload, err := json.Marshal(FromUpdate(ev))
		if err != nil {
			return fmt.Errorf("wire: marshal update payload: %w", err)
		}
		e.lastID = ev.FinalUpdateID
		msg = WireMessage{
			MsgType:     MsgTypeDepthUpdate,
			Sequence:    ev.SequenceNum,
			TimestampNS: ev.Timestamp,
			Source:      "matching-core",
			Symbol:      symbol,
			Payload:     payload,
		}
	default:
		return nil
	}

	encoded, err := e.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("wire: encode message: %w", err)
	}
	select {
	case e.Out <- encoded:
	default:
		// Out is full: the same non-blocking, tell-don't-stall policy as
		// marketdata.Publisher applies here too. A consumer slow enough to
		// fill this buffer will see a gap in FirstUpdateID and resync.
	}
	return nil
}

// LastUpdateID returns the most recent snapshot/update identifier this
// encoder has emitted, for diagnostics.
func (e *Encoder) LastUpdateID() uint64 { return e.lastID }

// EncodeSnapshot encodes snap as a standalone wire message, bypassing the Out
// channel. A freshly connected depth-stream consumer needs this once, before
// Run starts feeding it the live DepthUpdate stream, so it has a base to
// apply deltas against instead of an empty book (§4.H, §4.K).
func (e *Encoder) EncodeSnapshot(symbol values.Symbol, snap *events.DepthSnapshot) ([]byte, error) {
	payload, err := json.Marshal(FromSnapshot(snap))
	if err != nil {
		return nil, fmt.Errorf("wire: marshal snapshot payload: %w", err)
	}
	e.lastID = snap.LastUpdateID
	msg := WireMessage{
		MsgType:     MsgTypeDepthSnapshot,
		Sequence:    snap.SequenceNum,
		TimestampNS: snap.Timestamp,
		Source:      "matching-core",
		Symbol:      symbol,
		Payload:     payload,
	}
	return e.codec.Encode(msg)
}
