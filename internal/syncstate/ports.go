package syncstate

import (
	"context"

	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// DepthFetcher fetches a full depth snapshot for one symbol, e.g. over REST
// or by querying the in-process engine directly. Interface Segregation: a
// consumer that only needs snapshots never depends on write capability.
type DepthFetcher interface {
	GetDepth(ctx context.Context, symbol string, limit int) (wire.DepthSnapshotPayload, error)
}

// OrderBookWriter applies sync-machine decisions to whatever local structure
// a consumer keeps its book in. Dependency Inversion: the state machine
// depends on this abstraction, never on a concrete book implementation.
type OrderBookWriter interface {
	// ApplySnapshot replaces the writer's current state for symbol wholesale.
	ApplySnapshot(symbol string, snapshot wire.DepthSnapshotPayload)
	// ApplyUpdate applies one delta. Returns false if the writer itself
	// detects an inconsistency (e.g. a negative resulting quantity) that
	// the state machine should treat as an out-of-sync signal.
	ApplyUpdate(symbol string, update wire.DepthUpdatePayload) bool
}
