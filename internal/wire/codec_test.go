package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/values"
)

func sampleMessage(t *testing.T) WireMessage {
	t.Helper()
	price, err := values.ParsePrice("50000.00")
	require.NoError(t, err)
	qty, err := values.ParseQuantity("1.5")
	require.NoError(t, err)

	snapshot := DepthSnapshotPayload{
		Symbol:       "BTC-USD",
		LastUpdateID: 42,
		Bids:         []DepthLevelWire{{Price: price, Quantity: qty}},
	}
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	return WireMessage{
		MsgType:     MsgTypeDepthSnapshot,
		Sequence:    42,
		TimestampNS: 1000,
		Source:      "matching-core",
		Symbol:      "BTC-USD",
		Payload:     data,
	}
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	codec := NewJSONCodec()
	msg := sampleMessage(t)

	encoded, err := codec.Encode(msg)
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
	require.Equal(t, "json", codec.Name())
}

func TestGobCodec_RoundTrip(t *testing.T) {
	codec := NewGobCodec()
	msg := sampleMessage(t)

	encoded, err := codec.Encode(msg)
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
	require.Equal(t, "gob", codec.Name())
}

func TestJSONCodec_Decode_RejectsGarbage(t *testing.T) {
	_, err := NewJSONCodec().Decode([]byte("not json"))
	require.Error(t, err)
}

func TestGobCodec_Decode_RejectsGarbage(t *testing.T) {
	_, err := NewGobCodec().Decode([]byte("not gob"))
	require.Error(t, err)
}
