// Package shard partitions trading symbols across dedicated goroutines, one
// order book shard each, so that a slow or hot symbol never blocks matching
// on another. Routing is by hash of the symbol (see manager.go); within a
// shard, everything is single-threaded and deterministic.
package shard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rishav/exchange-sim-kernel/internal/disruptor"
	"github.com/rishav/exchange-sim-kernel/internal/errcodes"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
	"github.com/rishav/exchange-sim-kernel/internal/matching"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// expireTickInterval is how often a worker sweeps its owned symbols for Gtd
// expiry and stop-order triggers. It runs on the same goroutine-per-shard,
// ticker-driven pattern as internal/disruptor.EventBatcher's audit flush.
const expireTickInterval = 200 * time.Millisecond

// ErrShardFull is returned when a shard's command queue has no room and
// spinning exhausted its budget. Callers are expected to retry or drop.
var ErrShardFull = fmt.Errorf("shard: %s", errcodes.ReasonShardFull.Message)

// Stats is a shard's point-in-time counters, mirroring the source's
// ShardStats (order_book_shard/command.rs).
type Stats struct {
	ShardID              int
	NumSymbols           int
	TotalOrdersProcessed uint64
	TotalTradesExecuted  uint64
	CommandsInQueue      uint64
}

// Worker owns a partition of symbols and runs a single dedicated goroutine
// processing commands off its own ring buffer. It never shares a command
// channel with another shard, so a slow shard cannot starve the others.
type Worker struct {
	id     int
	rb     *disruptor.RingBuffer
	seq    *disruptor.Sequencer
	proc   *disruptor.EventProcessor
	engine *matching.Engine

	symbolsMu sync.RWMutex
	symbols   map[values.Symbol]struct{}

	ordersProcessed atomic.Uint64
	tradesExecuted  atomic.Uint64

	tickStopCh chan struct{}
	tickDoneCh chan struct{}
}

// NewWorker builds a shard worker with its own ring buffer, sequencer, and
// event processor. pub and sink may be nil (see EventProcessor).
func NewWorker(id int, engine *matching.Engine, pub *marketdata.Publisher, sink *wire.AuditSink, bufferSize uint64) *Worker {
	rb := disruptor.NewRingBuffer(disruptor.Config{BufferSize: bufferSize})
	var batcher *disruptor.EventBatcher
	if sink != nil {
		batcher = disruptor.NewEventBatcher(sink, 1000, 10)
	}
	return &Worker{
		id:         id,
		rb:         rb,
		seq:        disruptor.NewSequencer(rb),
		proc:       disruptor.NewEventProcessor(rb, engine, pub, batcher),
		engine:     engine,
		symbols:    make(map[values.Symbol]struct{}),
		tickStopCh: make(chan struct{}),
		tickDoneCh: make(chan struct{}),
	}
}

// Start launches the worker's processing goroutine and its Gtd-expiry/
// stop-trigger ticker.
func (w *Worker) Start() {
	w.proc.Start()
	go w.expireTickLoop()
}

// expireTickLoop periodically dispatches an ExpireTick command for every
// symbol this worker owns, driving Gtd expiry and stop-family trigger
// evaluation in production — Submit and Cancel never run them, so apart from
// explicit ExpireTick calls nothing else in the system calls
// Engine.ExpireTick.
func (w *Worker) expireTickLoop() {
	defer close(w.tickDoneCh)

	ticker := time.NewTicker(expireTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.expireTickAll()
		case <-w.tickStopCh:
			return
		}
	}
}

// expireTickAll fires one ExpireTick per owned symbol with a bounded
// deadline; a slow or full shard drops this sweep rather than blocking the
// ticker goroutine until the next one.
func (w *Worker) expireTickAll() {
	w.symbolsMu.RLock()
	symbols := make([]values.Symbol, 0, len(w.symbols))
	for s := range w.symbols {
		symbols = append(symbols, s)
	}
	w.symbolsMu.RUnlock()

	now := orders.Now()
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), expireTickInterval)
		_, err := w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeExpireTick, Symbol: symbol, Now: now})
		cancel()
		if err != nil {
			log.Printf("WARNING: shard %d: expire tick for %s: %v", w.id, symbol, err)
		}
	}
}

// Shutdown stops the expiry ticker, sends a Shutdown command, and waits for
// the worker goroutine to exit, or ctx to expire.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.tickStopCh)
	<-w.tickDoneCh
	_, err := w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeShutdown})
	w.proc.Shutdown()
	return err
}

// AddSymbol registers symbol as owned by this worker and ensures its book
// exists.
func (w *Worker) AddSymbol(ctx context.Context, symbol values.Symbol) error {
	w.symbolsMu.Lock()
	w.symbols[symbol] = struct{}{}
	w.symbolsMu.Unlock()

	_, err := w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeGetOrCreateBook, Symbol: symbol})
	return err
}

// NumSymbols reports how many symbols this worker currently owns.
func (w *Worker) NumSymbols() int {
	w.symbolsMu.RLock()
	defer w.symbolsMu.RUnlock()
	return len(w.symbols)
}

// SubmitOrder dispatches a SubmitOrder command and blocks for the reply.
func (w *Worker) SubmitOrder(ctx context.Context, order *orders.Order) (*disruptor.OrderResponse, error) {
	resp, err := w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeSubmitOrder, Order: order})
	if err == nil {
		w.ordersProcessed.Add(1)
		w.tradesExecuted.Add(uint64(len(resp.Fills)))
	}
	return resp, err
}

// CancelOrder dispatches a CancelOrder command and blocks for the reply.
func (w *Worker) CancelOrder(ctx context.Context, symbol values.Symbol, orderID values.OrderID) (*disruptor.OrderResponse, error) {
	return w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeCancelOrder, Symbol: symbol, OrderID: orderID})
}

// GetDepth dispatches a GetDepth command and blocks for the reply.
func (w *Worker) GetDepth(ctx context.Context, symbol values.Symbol, limit int) (*disruptor.OrderResponse, error) {
	return w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeGetDepth, Symbol: symbol, Limit: limit})
}

// GetOrder dispatches a GetOrder command and blocks for the reply.
func (w *Worker) GetOrder(ctx context.Context, symbol values.Symbol, orderID values.OrderID) (*disruptor.OrderResponse, error) {
	return w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeGetOrder, Symbol: symbol, OrderID: orderID})
}

// GetSequence dispatches a GetSequence command and blocks for the reply.
func (w *Worker) GetSequence(ctx context.Context, symbol values.Symbol) (*disruptor.OrderResponse, error) {
	return w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeGetSequence, Symbol: symbol})
}

// ExpireTick dispatches an ExpireTick command for symbol and blocks for the
// reply. expireTickLoop calls this on its own timer; tests drive it directly
// with a fixed `now` to pin Gtd-expiry and stop-trigger behavior without
// waiting on wall-clock time.
func (w *Worker) ExpireTick(ctx context.Context, symbol values.Symbol, now int64) (*disruptor.OrderResponse, error) {
	return w.dispatch(ctx, &disruptor.OrderRequest{Type: disruptor.RequestTypeExpireTick, Symbol: symbol, Now: now})
}

// Stats returns this worker's current counters.
func (w *Worker) Stats() Stats {
	return Stats{
		ShardID:              w.id,
		NumSymbols:           w.NumSymbols(),
		TotalOrdersProcessed: w.ordersProcessed.Load(),
		TotalTradesExecuted:  w.tradesExecuted.Load(),
		CommandsInQueue:      w.rb.Depth(),
	}
}

// dispatch claims a sequence, publishes the request, and blocks for the
// one-shot reply or ctx cancellation.
func (w *Worker) dispatch(ctx context.Context, req *disruptor.OrderRequest) (*disruptor.OrderResponse, error) {
	seq, err := w.seq.Next()
	if err != nil {
		return nil, ErrShardFull
	}

	responseCh := make(chan *disruptor.OrderResponse, 1)
	w.seq.Publish(seq, req, responseCh)

	select {
	case resp := <-responseCh:
		if resp.Error != nil {
			return resp, resp.Error
		}
		if !resp.Success {
			return resp, fmt.Errorf("shard: command failed")
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
