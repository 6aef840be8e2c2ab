package disruptor

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
	"github.com/rishav/exchange-sim-kernel/internal/matching"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// EventProcessor processes shard commands from the ring buffer in a single
// thread.
//
// Design:
// - Single goroutine for deterministic, sequential processing
// - Reads from ring buffer using spin-wait
// - Calls matching engine (single-threaded, no locks needed)
// - Publishes resulting events to the market-data publisher and queues them
//   for batched audit logging
// - Sends responses back to callers via channels
type EventProcessor struct {
	rb           *RingBuffer
	engine       *matching.Engine
	pub          *marketdata.Publisher
	eventBatcher *EventBatcher
	running      atomic.Bool
	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewEventProcessor creates a new event processor. pub and batcher may be
// nil if this shard should not publish to market-data subscribers or the
// audit sink (e.g. in tests).
func NewEventProcessor(rb *RingBuffer, engine *matching.Engine, pub *marketdata.Publisher, batcher *EventBatcher) *EventProcessor {
	return &EventProcessor{
		rb:           rb,
		engine:       engine,
		pub:          pub,
		eventBatcher: batcher,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins processing commands from the ring buffer.
func (p *EventProcessor) Start() {
	p.running.Store(true)
	go p.processLoop()
	if p.eventBatcher != nil {
		go p.eventBatcher.Start()
	}
}

// processLoop is the main command processing loop (single goroutine).
//
// This loop maintains determinism by processing commands sequentially in
// sequence number order. It never uses locks, relying on the single-
// threaded nature for correctness: only this goroutine ever mutates a book
// owned by this shard.
func (p *EventProcessor) processLoop() {
	defer close(p.shutdownDone)

	nextSequence := uint64(1) // Start at 1 (0 is initial state)

	for p.running.Load() {
		index := nextSequence & p.rb.indexMask
		slot := &p.rb.slots[index]

		// Spin-wait for publisher to finish writing
		for {
			available := atomic.LoadUint64(&slot.SequenceNum)
			if available == nextSequence {
				break
			}

			select {
			case <-p.shutdownCh:
				return
			default:
				runtime.Gosched()
			}
		}

		shutdown := p.processRequest(slot)

		atomic.StoreUint64(&p.rb.gatingSequence, nextSequence)
		nextSequence++

		if shutdown {
			p.running.Store(false)
			return
		}
	}
}

// processRequest processes a single command from the ring buffer. It
// returns true if the command was Shutdown.
func (p *EventProcessor) processRequest(slot *RingBufferSlot) (shutdown bool) {
	req := slot.Request
	responseCh := slot.ResponseCh

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: shard worker panic: %v", r)
			select {
			case responseCh <- &OrderResponse{Success: false, Error: fmt.Errorf("internal error: %v", r)}:
			default:
			}
		}
	}()

	switch req.Type {
	case RequestTypeSubmitOrder:
		p.processSubmitOrder(req, responseCh)
	case RequestTypeCancelOrder:
		p.processCancelOrder(req, responseCh)
	case RequestTypeGetDepth:
		p.processGetDepth(req, responseCh)
	case RequestTypeGetOrder:
		p.processGetOrder(req, responseCh)
	case RequestTypeGetOrCreateBook:
		p.processGetOrCreateBook(req, responseCh)
	case RequestTypeGetSequence:
		p.processGetSequence(req, responseCh)
	case RequestTypeExpireTick:
		p.processExpireTick(req, responseCh)
	case RequestTypeShutdown:
		reply(responseCh, &OrderResponse{Success: true})
		return true
	default:
		reply(responseCh, &OrderResponse{Success: false, Error: fmt.Errorf("unknown request type: %d", req.Type)})
	}
	return false
}

func (p *EventProcessor) processSubmitOrder(req *OrderRequest, responseCh chan *OrderResponse) {
	order := req.Order
	evts := p.engine.Submit(order)
	p.publishAndLog(order.Symbol, evts)

	resp := &OrderResponse{Success: !rejected(evts), Order: order, Fills: fillsFromEvents(evts)}
	for _, e := range evts {
		resp.Events = append(resp.Events, e)
	}
	if r, ok := rejectReason(evts); ok {
		resp.Error = fmt.Errorf("%s", r)
	}
	reply(responseCh, resp)
}

func (p *EventProcessor) processCancelOrder(req *OrderRequest, responseCh chan *OrderResponse) {
	evts := p.engine.Cancel(req.Symbol, req.OrderID)
	p.publishAndLog(req.Symbol, evts)

	if len(evts) == 0 {
		reply(responseCh, &OrderResponse{Success: false, Error: fmt.Errorf("order %s not found", req.OrderID)})
		return
	}
	resp := &OrderResponse{Success: true}
	for _, e := range evts {
		if c, ok := e.(*events.OrderCanceled); ok {
			resp.Order = &orders.Order{ID: c.OrderID, Symbol: c.Symbol}
		}
		resp.Events = append(resp.Events, e)
	}
	reply(responseCh, resp)
}

func (p *EventProcessor) processGetDepth(req *OrderRequest, responseCh chan *OrderResponse) {
	bids, asks, seq, ok := p.engine.GetDepth(req.Symbol, req.Limit)
	if !ok {
		reply(responseCh, &OrderResponse{Success: false, Error: fmt.Errorf("unknown symbol %s", req.Symbol)})
		return
	}
	resp := &OrderResponse{Success: true, Sequence: seq}
	for _, l := range bids {
		resp.Bids = append(resp.Bids, DepthLevel{Price: l.Price, Quantity: l.Quantity})
	}
	for _, l := range asks {
		resp.Asks = append(resp.Asks, DepthLevel{Price: l.Price, Quantity: l.Quantity})
	}
	reply(responseCh, resp)
}

func (p *EventProcessor) processGetOrder(req *OrderRequest, responseCh chan *OrderResponse) {
	order, ok := p.engine.GetOrder(req.Symbol, req.OrderID)
	if !ok {
		reply(responseCh, &OrderResponse{Success: false, Error: fmt.Errorf("order %s not found", req.OrderID)})
		return
	}
	reply(responseCh, &OrderResponse{Success: true, Order: order})
}

func (p *EventProcessor) processGetOrCreateBook(req *OrderRequest, responseCh chan *OrderResponse) {
	if _, ok := p.engine.GetOrderBook(req.Symbol); !ok {
		p.engine.AddSymbol(req.Symbol)
	}
	reply(responseCh, &OrderResponse{Success: true})
}

// processExpireTick runs Gtd expiry and stop-trigger evaluation for one
// symbol and publishes whatever it produces exactly like a Submit/Cancel
// would. Unknown symbols are a silent no-op, not an error: the periodic
// ticker that drives this (internal/shard.Worker) may race a symbol's
// removal without any caller to report a failure to.
func (p *EventProcessor) processExpireTick(req *OrderRequest, responseCh chan *OrderResponse) {
	evts := p.engine.ExpireTick(req.Symbol, req.Now)
	p.publishAndLog(req.Symbol, evts)

	resp := &OrderResponse{Success: true}
	for _, e := range evts {
		resp.Events = append(resp.Events, e)
	}
	reply(responseCh, resp)
}

func (p *EventProcessor) processGetSequence(req *OrderRequest, responseCh chan *OrderResponse) {
	book, ok := p.engine.GetOrderBook(req.Symbol)
	if !ok {
		reply(responseCh, &OrderResponse{Success: false, Error: fmt.Errorf("unknown symbol %s", req.Symbol)})
		return
	}
	reply(responseCh, &OrderResponse{Success: true, Sequence: book.Sequence()})
}

func (p *EventProcessor) publishAndLog(symbol values.Symbol, evts []events.Event) {
	for _, e := range evts {
		if p.pub != nil {
			p.pub.Publish(symbol, e)
		}
		if p.eventBatcher != nil {
			p.eventBatcher.QueueEvent(e)
		}
	}
}

func rejected(evts []events.Event) bool {
	for _, e := range evts {
		if _, ok := e.(*events.OrderRejected); ok {
			return true
		}
	}
	return false
}

func rejectReason(evts []events.Event) (string, bool) {
	for _, e := range evts {
		if r, ok := e.(*events.OrderRejected); ok {
			return r.RejectReason, true
		}
	}
	return "", false
}

func fillsFromEvents(evts []events.Event) []orders.Fill {
	var fills []orders.Fill
	for _, e := range evts {
		t, ok := e.(*events.TradeExecuted)
		if !ok {
			continue
		}
		fills = append(fills, orders.Fill{
			TradeID:        t.TradeID,
			MakerOrderID:   t.MakerOrderID,
			TakerOrderID:   t.TakerOrderID,
			Price:          t.Price,
			Quantity:       t.Quantity,
			Timestamp:      t.Timestamp,
			Symbol:         t.Symbol,
			MakerAccountID: t.MakerAccountID,
			TakerAccountID: t.TakerAccountID,
			TakerSide:      t.TakerSide,
		})
	}
	return fills
}

func reply(ch chan *OrderResponse, resp *OrderResponse) {
	select {
	case ch <- resp:
	default:
		log.Printf("WARNING: shard worker response dropped, caller channel not ready")
	}
}

// Shutdown gracefully shuts down the event processor.
//
// It stops the processing loop and waits for it to exit; commands still in
// the ring buffer behind the one being processed are not run. It then shuts
// down the audit batcher, flushing its queued events to the audit sink.
func (p *EventProcessor) Shutdown() {
	p.running.Store(false)
	close(p.shutdownCh)
	<-p.shutdownDone
	if p.eventBatcher != nil {
		p.eventBatcher.Shutdown()
	}
}
