// Package marketdata fans the matching core's event stream out to
// subscribers: global listeners that want every symbol (an admin console,
// a wire encoder that serves many pairs) and per-symbol listeners (a single
// WebSocket client watching one book).
//
// Distribution is non-blocking and lossy by design: a slow subscriber never
// gets to apply backpressure to the matching core. What a slow subscriber
// does get is told, explicitly, that it missed something — via a Lagged
// envelope pushed into its own channel — rather than silently falling
// behind with no way to tell "there was nothing more to send" from "I
// dropped things you needed."
package marketdata

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// ErrLagged is the sentinel a consumer should treat an Envelope with
// Lagged == true as carrying: some number of events were dropped before
// this point because the consumer's channel was full.
var ErrLagged = errors.New("marketdata: subscriber lagged, events were dropped")

// Envelope is what a subscription channel actually carries. Exactly one of
// Event or Lagged is meaningful for any given value.
type Envelope struct {
	Event  events.Event
	Lagged bool
}

// Err returns ErrLagged if this envelope is a lag marker, nil otherwise.
func (e Envelope) Err() error {
	if e.Lagged {
		return ErrLagged
	}
	return nil
}

type subscription struct {
	id     uint64
	ch     chan Envelope
	lagged atomic.Bool
}

// Publisher distributes matching-core events to global and per-symbol
// subscribers.
type Publisher struct {
	mu         sync.RWMutex
	global     map[uint64]*subscription
	bySymbol   map[values.Symbol]map[uint64]*subscription
	nextID     uint64
	bufferSize int
}

// NewPublisher creates a publisher whose subscriber channels each buffer up
// to bufferSize envelopes before a slow consumer starts lagging.
func NewPublisher(bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Publisher{
		global:     make(map[uint64]*subscription),
		bySymbol:   make(map[values.Symbol]map[uint64]*subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe opens a channel that receives every event published for symbol.
// The returned function unsubscribes and closes the channel; callers must
// call it exactly once when done.
func (p *Publisher) Subscribe(symbol values.Symbol) (<-chan Envelope, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := p.newSubscription()
	if p.bySymbol[symbol] == nil {
		p.bySymbol[symbol] = make(map[uint64]*subscription)
	}
	p.bySymbol[symbol][sub.id] = sub

	return sub.ch, func() { p.unsubscribe(symbol, sub.id) }
}

// SubscribeAll opens a channel that receives every event for every symbol.
func (p *Publisher) SubscribeAll() (<-chan Envelope, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := p.newSubscription()
	p.global[sub.id] = sub

	return sub.ch, func() { p.unsubscribeGlobal(sub.id) }
}

func (p *Publisher) newSubscription() *subscription {
	p.nextID++
	return &subscription{
		id: p.nextID,
		ch: make(chan Envelope, p.bufferSize),
	}
}

func (p *Publisher) unsubscribe(symbol values.Symbol, id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.bySymbol[symbol]
	if subs == nil {
		return
	}
	if sub, ok := subs[id]; ok {
		delete(subs, id)
		close(sub.ch)
	}
	if len(subs) == 0 {
		delete(p.bySymbol, symbol)
	}
}

func (p *Publisher) unsubscribeGlobal(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.global[id]; ok {
		delete(p.global, id)
		close(sub.ch)
	}
}

// Publish delivers evt to every subscriber of symbol and every global
// subscriber. Never blocks: a subscriber whose channel is full is marked
// lagged instead of receiving the event.
func (p *Publisher) Publish(symbol values.Symbol, evt events.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, sub := range p.bySymbol[symbol] {
		deliver(sub, evt)
	}
	for _, sub := range p.global {
		deliver(sub, evt)
	}
}

// deliver attempts to flush a pending lag marker first (so a subscriber
// learns about the gap before or alongside the next event it actually
// receives), then attempts to send evt itself. Either step that finds the
// channel full marks the subscriber lagged instead of blocking.
func deliver(sub *subscription, evt events.Event) {
	if sub.lagged.CompareAndSwap(true, false) {
		select {
		case sub.ch <- Envelope{Lagged: true}:
		default:
			sub.lagged.Store(true)
			return
		}
	}

	select {
	case sub.ch <- Envelope{Event: evt}:
	default:
		sub.lagged.Store(true)
	}
}

// Close shuts down every subscription channel. The publisher must not be
// used afterward.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, sub := range p.global {
		close(sub.ch)
	}
	for _, subs := range p.bySymbol {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	p.global = make(map[uint64]*subscription)
	p.bySymbol = make(map[values.Symbol]map[uint64]*subscription)
}
