package wire

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
)

func TestEncoder_EncodesDepthSnapshotAndUpdate(t *testing.T) {
	pub := marketdata.NewPublisher(16)
	defer pub.Close()

	enc := NewEncoder(pub, NewJSONCodec(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- enc.Run(ctx, "BTC-USD") }()

	pub.Publish("BTC-USD", &events.DepthSnapshot{
		Base:         events.Base{SequenceNum: 1, Timestamp: 10, Type: events.EventTypeDepthSnapshot},
		Symbol:       "BTC-USD",
		LastUpdateID: 5,
	})
	pub.Publish("BTC-USD", &events.DepthUpdate{
		Base:          events.Base{SequenceNum: 2, Timestamp: 20, Type: events.EventTypeDepthUpdate},
		Symbol:        "BTC-USD",
		FirstUpdateID: 6,
		FinalUpdateID: 6,
	})

	var msgs []WireMessage
	for i := 0; i < 2; i++ {
		select {
		case raw := <-enc.Out:
			var msg WireMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			msgs = append(msgs, msg)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for encoded message")
		}
	}

	require.Equal(t, MsgTypeDepthSnapshot, msgs[0].MsgType)
	require.Equal(t, MsgTypeDepthUpdate, msgs[1].MsgType)
	require.Equal(t, uint64(6), enc.LastUpdateID())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestEncoder_DropsNonDepthEvents(t *testing.T) {
	pub := marketdata.NewPublisher(16)
	defer pub.Close()

	enc := NewEncoder(pub, NewJSONCodec(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go enc.Run(ctx, "BTC-USD")

	pub.Publish("BTC-USD", &events.OrderAccepted{Base: events.Base{SequenceNum: 1, Type: events.EventTypeOrderAccepted}, Symbol: "BTC-USD"})
	pub.Publish("BTC-USD", &events.DepthUpdate{Base: events.Base{SequenceNum: 2, Type: events.EventTypeDepthUpdate}, Symbol: "BTC-USD"})

	select {
	case raw := <-enc.Out:
		var msg WireMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		require.Equal(t, MsgTypeDepthUpdate, msg.MsgType, "order lifecycle events never reach the depth wire protocol")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the depth update")
	}
}
