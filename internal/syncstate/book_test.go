package syncstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

type recordingWriter struct {
	snapshots []wire.DepthSnapshotPayload
	updates   []wire.DepthUpdatePayload
}

func (w *recordingWriter) ApplySnapshot(symbol string, snapshot wire.DepthSnapshotPayload) {
	w.snapshots = append(w.snapshots, snapshot)
}

func (w *recordingWriter) ApplyUpdate(symbol string, update wire.DepthUpdatePayload) bool {
	w.updates = append(w.updates, update)
	return true
}

func delta(first, final uint64) wire.DepthUpdatePayload {
	return wire.DepthUpdatePayload{Symbol: "BTC-USD", FirstUpdateID: first, FinalUpdateID: final}
}

func TestMachine_StartsUninitialized(t *testing.T) {
	m := NewMachine("BTC-USD", &recordingWriter{}, 0)
	require.Equal(t, Uninitialized, m.Status())
	require.True(t, m.Status().NeedsSnapshot())
	require.False(t, m.Status().IsReady())
}

func TestMachine_FirstDeltaRequestsSnapshotAndBuffers(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)

	needsSnapshot := m.OnDelta(delta(1, 5))
	require.True(t, needsSnapshot)
	require.Equal(t, Syncing, m.Status())
	require.Empty(t, w.updates, "deltas buffer while syncing, they are not applied directly")
}

func TestMachine_SnapshotAlignsWithBufferedDelta(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)

	m.OnDelta(delta(1, 5))
	m.OnDelta(delta(6, 10))

	needsAnother := m.OnSnapshot(wire.DepthSnapshotPayload{Symbol: "BTC-USD", LastUpdateID: 5})
	require.False(t, needsAnother)
	require.Equal(t, Synced, m.Status())
	require.Len(t, w.snapshots, 1)
	require.Len(t, w.updates, 1, "only the delta covering lastUpdateID+1 and any contiguous tail apply")
	require.Equal(t, uint64(6), w.updates[0].FirstUpdateID)
}

func TestMachine_SnapshotTooOldRequestsAnother(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)

	m.OnDelta(delta(100, 105))

	needsAnother := m.OnSnapshot(wire.DepthSnapshotPayload{Symbol: "BTC-USD", LastUpdateID: 5})
	require.True(t, needsAnother)
	require.Empty(t, w.snapshots, "a snapshot that can't line up with any buffered delta is not applied")
}

func TestMachine_SyncedDeltaAppliesInOrder(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)
	m.OnDelta(delta(1, 5))
	m.OnSnapshot(wire.DepthSnapshotPayload{Symbol: "BTC-USD", LastUpdateID: 0})
	require.Equal(t, Synced, m.Status())
	require.Len(t, w.updates, 1, "the snapshot path already applied the one buffered delta covering it")

	needsSnapshot := m.OnDelta(delta(6, 10))
	require.False(t, needsSnapshot)
	require.Len(t, w.updates, 2)
	require.Equal(t, uint64(6), w.updates[1].FirstUpdateID)
}

func TestMachine_SyncedDeltaGapGoesOutOfSync(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)
	m.OnSnapshot(wire.DepthSnapshotPayload{Symbol: "BTC-USD", LastUpdateID: 0})
	require.Equal(t, Synced, m.Status())

	needsSnapshot := m.OnDelta(delta(5, 10))
	require.True(t, needsSnapshot, "a gap between expectedNext and the delta's first id forces a resync")
	require.Equal(t, OutOfSync, m.Status())
}

func TestMachine_SyncedStaleDeltaIgnored(t *testing.T) {
	w := &recordingWriter{}
	m := NewMachine("BTC-USD", w, 0)
	m.OnSnapshot(wire.DepthSnapshotPayload{Symbol: "BTC-USD", LastUpdateID: 10})
	require.Equal(t, Synced, m.Status())

	needsSnapshot := m.OnDelta(delta(1, 5))
	require.False(t, needsSnapshot)
	require.Equal(t, Synced, m.Status())
	require.Empty(t, w.updates, "a delta entirely behind expectedNext is a stale duplicate")
}

func TestMachine_BufferEvictsOldestOnOverflow(t *testing.T) {
	m := NewMachine("BTC-USD", &recordingWriter{}, 2)
	m.OnDelta(delta(1, 2))
	m.OnDelta(delta(3, 4))
	m.OnDelta(delta(5, 6))

	require.Len(t, m.buffer, 2)
	require.Equal(t, uint64(3), m.buffer[0].FirstUpdateID, "the oldest buffered delta is dropped once bufCap is exceeded")
}
