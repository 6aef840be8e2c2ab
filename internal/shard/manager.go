package shard

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rishav/exchange-sim-kernel/internal/disruptor"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
	"github.com/rishav/exchange-sim-kernel/internal/matching"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// Manager builds a fixed pool of shard workers and routes every command to
// the worker owning its symbol, using FNV-1a over the canonical symbol
// string — a cheap non-cryptographic hash, the same tradeoff the teacher's
// routing makes for account/order key hashing.
type Manager struct {
	workers []*Worker

	ownerMu sync.RWMutex
	owner   map[values.Symbol]int
}

// Config configures a Manager.
type Config struct {
	NumShards  int
	BufferSize uint64
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{NumShards: 4, BufferSize: 8192}
}

// NewManager builds cfg.NumShards workers, each with its own engine
// instance; all of them publish to the one pub and write to the one
// (optional) audit sink passed in.
func NewManager(cfg Config, ids values.IDGenerator, defaultAlgo matching.MatchingAlgorithm, pub *marketdata.Publisher, sink *wire.AuditSink) *Manager {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 1
	}
	m := &Manager{
		workers: make([]*Worker, cfg.NumShards),
		owner:   make(map[values.Symbol]int),
	}
	for i := 0; i < cfg.NumShards; i++ {
		engine := matching.NewEngine(ids, defaultAlgo)
		w := NewWorker(i, engine, pub, sink, cfg.BufferSize)
		w.Start()
		m.workers[i] = w
	}
	return m
}

// shardFor returns the shard index owning symbol, hashed with FNV-1a over
// the canonical symbol string.
func (m *Manager) shardFor(symbol values.Symbol) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return int(h.Sum32()) % len(m.workers)
}

// AddSymbol registers symbol with its owning shard, creating the book.
func (m *Manager) AddSymbol(ctx context.Context, symbol values.Symbol) error {
	idx := m.shardFor(symbol)
	m.ownerMu.Lock()
	m.owner[symbol] = idx
	m.ownerMu.Unlock()
	return m.workers[idx].AddSymbol(ctx, symbol)
}

func (m *Manager) workerFor(symbol values.Symbol) *Worker {
	m.ownerMu.RLock()
	idx, ok := m.owner[symbol]
	m.ownerMu.RUnlock()
	if !ok {
		idx = m.shardFor(symbol)
	}
	return m.workers[idx]
}

// SubmitOrder routes order to its symbol's shard.
func (m *Manager) SubmitOrder(ctx context.Context, order *orders.Order) (*disruptor.OrderResponse, error) {
	return m.workerFor(order.Symbol).SubmitOrder(ctx, order)
}

// CancelOrder routes a cancel to symbol's shard.
func (m *Manager) CancelOrder(ctx context.Context, symbol values.Symbol, orderID values.OrderID) (*disruptor.OrderResponse, error) {
	return m.workerFor(symbol).CancelOrder(ctx, symbol, orderID)
}

// GetDepth routes a depth query to symbol's shard.
func (m *Manager) GetDepth(ctx context.Context, symbol values.Symbol, limit int) (*disruptor.OrderResponse, error) {
	return m.workerFor(symbol).GetDepth(ctx, symbol, limit)
}

// GetOrder routes an order lookup to symbol's shard.
func (m *Manager) GetOrder(ctx context.Context, symbol values.Symbol, orderID values.OrderID) (*disruptor.OrderResponse, error) {
	return m.workerFor(symbol).GetOrder(ctx, symbol, orderID)
}

// GetSequence routes a sequence query to symbol's shard.
func (m *Manager) GetSequence(ctx context.Context, symbol values.Symbol) (*disruptor.OrderResponse, error) {
	return m.workerFor(symbol).GetSequence(ctx, symbol)
}

// ExpireTick routes an on-demand Gtd-expiry/stop-trigger sweep to symbol's
// shard. Each worker already runs this periodically on its own ticker; this
// entry point exists for tests and admin tooling that need it to happen
// synchronously instead of waiting for the next tick.
func (m *Manager) ExpireTick(ctx context.Context, symbol values.Symbol, now int64) (*disruptor.OrderResponse, error) {
	return m.workerFor(symbol).ExpireTick(ctx, symbol, now)
}

// Shutdown sends Shutdown to every worker and waits for each to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	var firstErr error
	var wg sync.WaitGroup
	errs := make([]error, len(m.workers))
	for i, w := range m.workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()
			errs[i] = w.Shutdown(ctx)
		}(i, w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats returns every worker's current counters.
func (m *Manager) Stats() []Stats {
	out := make([]Stats, len(m.workers))
	for i, w := range m.workers {
		out[i] = w.Stats()
	}
	return out
}
