package syncstate

import (
	"sync"

	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// DefaultBufferCap bounds how many undelivered deltas a Machine holds while
// waiting for a snapshot. On overflow the oldest buffered delta is dropped,
// matching a consumer that would rather lose old history than grow
// unbounded while a snapshot request is in flight.
const DefaultBufferCap = 1000

// Machine is the per-(exchange, symbol) sync state machine described in
// SPEC_FULL.md §4.I. It owns no network I/O: callers feed it deltas and
// snapshots as they arrive and act on the booleans it returns (whether a
// fresh snapshot should now be requested).
type Machine struct {
	mu           sync.Mutex
	symbol       string
	writer       OrderBookWriter
	status       Status
	buffer       []wire.DepthUpdatePayload
	bufCap       int
	expectedNext uint64
}

// NewMachine creates a Machine starting in Uninitialized for symbol, writing
// applied snapshots/updates to writer.
func NewMachine(symbol string, writer OrderBookWriter, bufCap int) *Machine {
	if bufCap <= 0 {
		bufCap = DefaultBufferCap
	}
	return &Machine{
		symbol: symbol,
		writer: writer,
		status: Uninitialized,
		bufCap: bufCap,
	}
}

// Status returns the machine's current state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnDelta feeds one delta to the machine. It returns true if the caller
// should (re)request a snapshot as a result.
func (m *Machine) OnDelta(u wire.DepthUpdatePayload) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case Uninitialized:
		m.bufferAppend(u)
		m.status = Syncing
		return true

	case Syncing, OutOfSync:
		m.bufferAppend(u)
		return false

	case Synced:
		switch {
		case u.FirstUpdateID == m.expectedNext:
			if !m.writer.ApplyUpdate(m.symbol, u) {
				m.status = OutOfSync
				m.buffer = m.buffer[:0]
				m.bufferAppend(u)
				return true
			}
			m.expectedNext = u.FinalUpdateID + 1
			return false
		case u.FirstUpdateID > m.expectedNext:
			m.status = OutOfSync
			m.buffer = m.buffer[:0]
			m.bufferAppend(u)
			return true
		default:
			// first_update_id < expected_next: the delta starts behind what
			// was already applied; treated as a stale duplicate and ignored.
			return false
		}
	}
	return false
}

// OnSnapshot feeds a freshly fetched snapshot to the machine. It returns
// true if the snapshot was too old (or the buffered deltas didn't line up,
// or the writer rejected one of them) and the caller should request
// another one.
func (m *Machine) OnSnapshot(s wire.DepthSnapshotPayload) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.status.NeedsSnapshot() {
		return false
	}

	lastID := s.LastUpdateID
	idx := -1
	for i, d := range m.buffer {
		if d.FirstUpdateID <= lastID+1 && lastID+1 <= d.FinalUpdateID {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Either every buffered delta is already stale (final <= S, meaning
		// the snapshot caught up and there's nothing left to apply — treat
		// as a clean resync) or the oldest buffered delta starts beyond
		// S+1 (the snapshot arrived too old). Distinguish the two: if the
		// buffer is empty or its tail is already behind S, the snapshot is
		// usable on its own.
		if len(m.buffer) == 0 || m.buffer[len(m.buffer)-1].FinalUpdateID <= lastID {
			m.writer.ApplySnapshot(m.symbol, s)
			m.buffer = m.buffer[:0]
			m.expectedNext = lastID + 1
			m.status = Synced
			return false
		}
		return true
	}

	m.writer.ApplySnapshot(m.symbol, s)
	prevFinal := m.buffer[idx].FinalUpdateID
	if !m.writer.ApplyUpdate(m.symbol, m.buffer[idx]) {
		m.buffer = m.buffer[idx:]
		m.status = OutOfSync
		return true
	}
	for i := idx + 1; i < len(m.buffer); i++ {
		d := m.buffer[i]
		if d.FirstUpdateID != prevFinal+1 {
			// A hole inside the buffer itself: give up on this resync
			// attempt and ask for another snapshot.
			m.buffer = m.buffer[i:]
			m.status = OutOfSync
			return true
		}
		if !m.writer.ApplyUpdate(m.symbol, d) {
			m.buffer = m.buffer[i:]
			m.status = OutOfSync
			return true
		}
		prevFinal = d.FinalUpdateID
	}

	m.buffer = m.buffer[:0]
	m.expectedNext = prevFinal + 1
	m.status = Synced
	return false
}

func (m *Machine) bufferAppend(u wire.DepthUpdatePayload) {
	if len(m.buffer) >= m.bufCap {
		m.buffer = m.buffer[1:]
	}
	m.buffer = append(m.buffer, u)
}
