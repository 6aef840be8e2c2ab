// Package matching implements the order matching engine: the component that
// turns a validated incoming order into book mutations and the event stream
// describing them.
//
// Architecture: Single-Threaded Core
//
// Why single-threaded?
// 1. Determinism: the same command sequence always produces the same trades
// 2. No locks: matching never contends with itself for book state
// 3. Replay: deterministic IDGenerator + command log lets tests rebuild any
//    state by resubmitting the same commands
// 4. Simplicity: no data races to reason about inside a book's lifetime
//
// Real exchanges like LMAX achieve millions of orders/second with exactly
// this pattern: matching is CPU-bound, not I/O-bound, so sharing a book
// across goroutines would only add synchronization overhead without
// improving throughput. Parallelism in this system comes from sharding
// symbols across independent single-threaded workers (internal/shard), not
// from making one book concurrent.
package matching

import (
	"sort"

	"github.com/rishav/exchange-sim-kernel/internal/errcodes"
	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/orderbook"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// Engine owns every order book the process serves and the matching
// algorithm each one uses.
//
// Thread safety: a single Engine (and every book it owns) must only ever be
// driven from one goroutine. internal/shard is what provides that guarantee
// in production; tests may call Engine methods directly from a single
// goroutine without any additional synchronization.
type Engine struct {
	books       map[values.Symbol]*orderbook.OrderBook
	algos       map[values.Symbol]MatchingAlgorithm
	defaultAlgo MatchingAlgorithm
	ids         values.IDGenerator
}

// NewEngine creates an engine with no symbols yet registered. defaultAlgo is
// used for every symbol added via AddSymbol; AddSymbolWithAlgorithm
// overrides it per symbol.
func NewEngine(ids values.IDGenerator, defaultAlgo MatchingAlgorithm) *Engine {
	return &Engine{
		books:       make(map[values.Symbol]*orderbook.OrderBook),
		algos:       make(map[values.Symbol]MatchingAlgorithm),
		defaultAlgo: defaultAlgo,
		ids:         ids,
	}
}

// AddSymbol registers a tradable symbol using the engine's default matching
// algorithm. A no-op if the symbol is already registered.
func (e *Engine) AddSymbol(symbol values.Symbol) {
	e.AddSymbolWithAlgorithm(symbol, e.defaultAlgo)
}

// AddSymbolWithAlgorithm registers a tradable symbol with an explicit
// matching algorithm, overriding the engine default for this symbol only.
func (e *Engine) AddSymbolWithAlgorithm(symbol values.Symbol, algo MatchingAlgorithm) {
	if _, exists := e.books[symbol]; exists {
		return
	}
	e.books[symbol] = orderbook.NewOrderBook(symbol)
	e.algos[symbol] = algo
}

// GetOrderBook returns the order book for a symbol, if registered.
func (e *Engine) GetOrderBook(symbol values.Symbol) (*orderbook.OrderBook, bool) {
	book, ok := e.books[symbol]
	return book, ok
}

// Symbols returns every symbol currently registered with the engine.
func (e *Engine) Symbols() []values.Symbol {
	symbols := make([]values.Symbol, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	return symbols
}

func (e *Engine) algoFor(symbol values.Symbol) MatchingAlgorithm {
	if algo, ok := e.algos[symbol]; ok {
		return algo
	}
	return e.defaultAlgo
}

// Submit processes an incoming order through the full lifecycle described
// in §4.B: reject-on-halt/bad-status, TIF/order-type edge policies, walk
// the opposite side, apply fills, then dispose of any remainder according to
// the order's time-in-force. The caller is expected to have already run the
// order through a validator — Submit only re-checks the conditions that
// depend on live book state (halt, marketability, liquidity).
//
// Every event returned shares the one sequence number the book advanced to
// for this call, assigned after every event has been assembled.
func (e *Engine) Submit(order *orders.Order) []events.Event {
	now := orders.Now()
	if order.CreatedAt == 0 {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	book, ok := e.books[order.Symbol]
	if !ok {
		return e.reject(nil, order, errcodes.ReasonInvalidSymbol)
	}
	if book.Halted() {
		return e.reject(book, order, errcodes.ReasonMarketHalted)
	}
	if order.Status != orders.StatusNew {
		return e.reject(book, order, errcodes.ReasonInvalidParameter)
	}

	if order.ID == (values.OrderID{}) {
		order.ID = e.ids.NextOrderID()
	}

	if order.Type.IsStopFamily() {
		return e.acceptStopOrder(book, order, now)
	}

	algo := e.algoFor(order.Symbol)
	isMarket := order.Type == orders.OrderTypeMarket

	oppositeLevel := e.bestOpposite(book, order.Side)
	if isMarket && oppositeLevel == nil {
		return e.reject(book, order, errcodes.ReasonInsufficientLiquidity)
	}

	if order.Type == orders.OrderTypeLimitMaker {
		exists := oppositeLevel != nil
		var bestPrice values.Price
		if exists {
			bestPrice = oppositeLevel.Price
		}
		if order.IsMarketable(bestPrice, exists) {
			return e.reject(book, order, errcodes.ReasonLimitMakerWouldCross)
		}
	}

	if order.TimeInForce == orders.TimeInForceFok {
		if !e.canFillEntirely(order, book, algo) {
			return e.reject(book, order, errcodes.ReasonFokNotFullyFillable)
		}
	}

	var evts []events.Event
	evts = append(evts, &events.OrderAccepted{
		Base:    events.Base{Type: events.EventTypeOrderAccepted},
		OrderID: order.ID,
		Symbol:  order.Symbol,
		Order:   order,
	})

	tracker := newLevelTracker()
	_, matchEvts := e.match(order, book, algo, tracker)
	evts = append(evts, matchEvts...)

	switch {
	case order.IsFilled():
		order.Status = orders.StatusFilled
	case order.FilledQty > 0:
		order.Status = orders.StatusPartiallyFilled
	default:
		order.Status = orders.StatusNew
	}

	remaining := order.RemainingQty()
	if remaining > 0 {
		switch {
		case order.Type == orders.OrderTypeMarket || order.TimeInForce == orders.TimeInForceIoc:
			order.Status = orders.StatusCanceled
			evts = append(evts, &events.OrderCanceled{
				Base:        events.Base{Type: events.EventTypeOrderCanceled},
				OrderID:     order.ID,
				Symbol:      order.Symbol,
				CanceledQty: remaining,
				Reason:      "NOT_RESTED",
			})
		default:
			// Gtc/Gtd rest; Fok is unreachable here since it was prechecked.
			order.SequenceNum = book.Sequence() + 1
			_ = book.AddOrder(order)
			tracker.touch(order.Side, order.Price)
		}
	}

	seq := book.BumpSequence()
	if du := depthUpdate(book, tracker); du != nil {
		du.FirstUpdateID, du.FinalUpdateID = seq, seq
		evts = append(evts, du)
	}
	events.StampAll(evts, seq, now)
	return evts
}

// acceptStopOrder parks a stop-family order in the book's trigger index
// instead of matching it; it never touches the live book until triggered.
func (e *Engine) acceptStopOrder(book *orderbook.OrderBook, order *orders.Order, now int64) []events.Event {
	order.Status = orders.StatusNew
	order.SequenceNum = book.Sequence() + 1
	book.Stops().Add(order)

	evts := []events.Event{&events.OrderAccepted{
		Base:    events.Base{Type: events.EventTypeOrderAccepted},
		OrderID: order.ID,
		Symbol:  order.Symbol,
		Order:   order,
	}}
	seq := book.BumpSequence()
	events.StampAll(evts, seq, now)
	return evts
}

// bestOpposite returns the best resting level on the other side of the book
// from side, or nil if that side is empty.
func (e *Engine) bestOpposite(book *orderbook.OrderBook, side orders.Side) *orderbook.PriceLevel {
	if side == orders.SideBuy {
		return book.GetBestAsk()
	}
	return book.GetBestBid()
}

// levelTracker collects the (side, price) pairs a single Submit/Cancel/
// ExpireTick mutation touched, so the engine can summarize them into one
// DepthUpdate (§4.B.6) without diffing the whole book.
type levelTracker struct {
	bids map[values.Price]struct{}
	asks map[values.Price]struct{}
}

func newLevelTracker() *levelTracker {
	return &levelTracker{bids: make(map[values.Price]struct{}), asks: make(map[values.Price]struct{})}
}

func (t *levelTracker) touch(side orders.Side, price values.Price) {
	if side == orders.SideBuy {
		t.bids[price] = struct{}{}
	} else {
		t.asks[price] = struct{}{}
	}
}

func (t *levelTracker) empty() bool {
	return len(t.bids) == 0 && len(t.asks) == 0
}

// depthUpdate reads the book's current quantity at every price the tracker
// touched and summarizes it into a DepthUpdate; a level the mutation emptied
// out reports Quantity 0 rather than being dropped, matching the corpus's
// delta-feed convention of an explicit zero meaning "remove this level".
// FirstUpdateID/FinalUpdateID are left at zero — the caller assigns them the
// book sequence the mutation advanced to, once that is known.
func depthUpdate(book *orderbook.OrderBook, t *levelTracker) *events.DepthUpdate {
	if t.empty() {
		return nil
	}

	du := &events.DepthUpdate{
		Base:   events.Base{Type: events.EventTypeDepthUpdate},
		Symbol: book.Symbol(),
		Bids:   make([]events.DepthLevel, 0, len(t.bids)),
		Asks:   make([]events.DepthLevel, 0, len(t.asks)),
	}
	for price := range t.bids {
		du.Bids = append(du.Bids, events.DepthLevel{Price: price, Quantity: book.LevelQuantity(orders.SideBuy, price)})
	}
	for price := range t.asks {
		du.Asks = append(du.Asks, events.DepthLevel{Price: price, Quantity: book.LevelQuantity(orders.SideSell, price)})
	}
	sort.Slice(du.Bids, func(i, j int) bool { return du.Bids[i].Price > du.Bids[j].Price })
	sort.Slice(du.Asks, func(i, j int) bool { return du.Asks[i].Price < du.Asks[j].Price })
	return du
}

// canFillEntirely reports whether the full remaining quantity of order could
// be matched against the opposite side as it stands right now, without
// mutating anything. Used for the Fok precheck-then-commit policy.
func (e *Engine) canFillEntirely(order *orders.Order, book *orderbook.OrderBook, algo MatchingAlgorithm) bool {
	var levels []*orderbook.PriceLevel
	if order.Side == orders.SideBuy {
		levels = book.GetAskDepth(0)
	} else {
		levels = book.GetBidDepth(0)
	}

	isMarket := order.Type == orders.OrderTypeMarket
	var available values.Quantity
	need := order.RemainingQty()

	for _, level := range levels {
		if !algo.CanMatch(order.Price, isMarket, order.Side, level.Price) {
			break
		}
		available += level.TotalQty
		if available >= need {
			return true
		}
	}
	return available >= need
}

// match walks the opposite side of the book from best price inward,
// matching against it via algo until the taker is satisfied, its TIF
// disallows further resting, or no matchable level remains. Every level it
// fills against is recorded in tracker so the caller can summarize the net
// change into a DepthUpdate.
func (e *Engine) match(taker *orders.Order, book *orderbook.OrderBook, algo MatchingAlgorithm, tracker *levelTracker) ([]orders.Fill, []events.Event) {
	var allFills []orders.Fill
	var evts []events.Event
	isMarket := taker.Type == orders.OrderTypeMarket
	opposite := orders.SideSell
	if taker.Side == orders.SideSell {
		opposite = orders.SideBuy
	}

	for taker.RemainingQty() > 0 {
		level := e.bestOpposite(book, taker.Side)
		if level == nil {
			break
		}
		if !algo.CanMatch(taker.Price, isMarket, taker.Side, level.Price) {
			break
		}

		levelPrice := level.Price
		fills, levelEvts := algo.MatchOne(taker, level, book, e.ids)
		if len(fills) == 0 {
			break
		}
		for _, f := range fills {
			book.SetLastPrice(f.Price)
		}
		tracker.touch(opposite, levelPrice)

		allFills = append(allFills, fills...)
		evts = append(evts, levelEvts...)
	}

	return allFills, evts
}

// Cancel removes a resting or stop-parked order from the book. Returns nil
// if the symbol is unknown or the order was not found.
func (e *Engine) Cancel(symbol values.Symbol, orderID values.OrderID) []events.Event {
	book, ok := e.books[symbol]
	if !ok {
		return nil
	}

	var order *orders.Order
	fromBook := false
	if order = book.Stops().Remove(orderID); order == nil {
		order = book.CancelOrder(orderID)
		fromBook = order != nil
	}
	if order == nil {
		return nil
	}

	order.Status = orders.StatusCanceled
	order.UpdatedAt = orders.Now()

	evts := []events.Event{&events.OrderCanceled{
		Base:        events.Base{Type: events.EventTypeOrderCanceled},
		OrderID:     order.ID,
		Symbol:      order.Symbol,
		CanceledQty: order.RemainingQty(),
		Reason:      "REQUESTED",
	}}

	// A stop-parked order never held a price level, so canceling it leaves
	// no level touched; only a removal from the live book is depth-visible.
	tracker := newLevelTracker()
	if fromBook {
		tracker.touch(order.Side, order.Price)
	}

	seq := book.BumpSequence()
	if du := depthUpdate(book, tracker); du != nil {
		du.FirstUpdateID, du.FinalUpdateID = seq, seq
		evts = append(evts, du)
	}
	events.StampAll(evts, seq, order.UpdatedAt)
	return evts
}

// GetOrder retrieves a resting or stop-parked order by symbol and id.
func (e *Engine) GetOrder(symbol values.Symbol, orderID values.OrderID) (*orders.Order, bool) {
	book, ok := e.books[symbol]
	if !ok {
		return nil, false
	}
	if order := book.GetOrder(orderID); order != nil {
		return order, true
	}
	if order := book.Stops().Get(orderID); order != nil {
		return order, true
	}
	return nil, false
}

// GetDepth returns up to limit levels per side (0 means all levels) plus the
// book's current sequence, taken as one consistent snapshot.
func (e *Engine) GetDepth(symbol values.Symbol, limit int) (bids, asks []events.DepthLevel, sequence uint64, ok bool) {
	book, exists := e.books[symbol]
	if !exists {
		return nil, nil, 0, false
	}

	bidLevels := book.GetBidDepth(limit)
	askLevels := book.GetAskDepth(limit)

	bids = make([]events.DepthLevel, len(bidLevels))
	for i, l := range bidLevels {
		bids[i] = events.DepthLevel{Price: l.Price, Quantity: l.TotalQty}
	}
	asks = make([]events.DepthLevel, len(askLevels))
	for i, l := range askLevels {
		asks[i] = events.DepthLevel{Price: l.Price, Quantity: l.TotalQty}
	}

	return bids, asks, book.Sequence(), true
}

// GetDepthSnapshot builds the full-book DepthSnapshot a freshly subscribing
// depth-stream consumer needs to seed itself before applying DepthUpdates
// (§4.H, §4.K). Returns nil if the symbol is unknown.
func (e *Engine) GetDepthSnapshot(symbol values.Symbol, now int64) *events.DepthSnapshot {
	bids, asks, seq, ok := e.GetDepth(symbol, 0)
	if !ok {
		return nil
	}
	return &events.DepthSnapshot{
		Base:         events.Base{Type: events.EventTypeDepthSnapshot, SequenceNum: seq, Timestamp: now},
		Symbol:       symbol,
		LastUpdateID: seq,
		Bids:         bids,
		Asks:         asks,
	}
}

// ExpireTick removes every Gtd order past its expire_time and evaluates the
// stop-order trigger index against the book's last traded price, resubmitting
// anything that fires. Returns nil if the symbol is unknown.
func (e *Engine) ExpireTick(symbol values.Symbol, now int64) []events.Event {
	book, ok := e.books[symbol]
	if !ok {
		return nil
	}

	tracker := newLevelTracker()
	var expiryEvts []events.Event
	for _, id := range book.ExpiringGtdOrders(now) {
		order := book.CancelOrder(id)
		if order == nil {
			continue
		}
		order.Status = orders.StatusExpired
		order.UpdatedAt = now
		tracker.touch(order.Side, order.Price)
		expiryEvts = append(expiryEvts, &events.OrderExpired{
			Base:       events.Base{Type: events.EventTypeOrderExpired},
			OrderID:    order.ID,
			Symbol:     order.Symbol,
			ExpiredQty: order.RemainingQty(),
		})
	}

	var cascadeEvts []events.Event
	if lastPrice, hasPrice := book.LastPrice(); hasPrice {
		for _, stopOrder := range book.Stops().Triggered(lastPrice) {
			cascadeEvts = append(cascadeEvts, e.Submit(convertTriggeredOrder(stopOrder))...)
		}
	}

	if len(expiryEvts) > 0 {
		seq := book.BumpSequence()
		if du := depthUpdate(book, tracker); du != nil {
			du.FirstUpdateID, du.FinalUpdateID = seq, seq
			expiryEvts = append(expiryEvts, du)
		}
		events.StampAll(expiryEvts, seq, now)
	}

	return append(expiryEvts, cascadeEvts...)
}

// convertTriggeredOrder turns a fired stop-family order into its
// Market/Limit counterpart and resets it to a fresh, resubmittable state.
func convertTriggeredOrder(order *orders.Order) *orders.Order {
	order.Type = order.Type.TriggeredType()
	order.Status = orders.StatusNew
	order.UpdatedAt = orders.Now()
	return order
}

// reject marks order as rejected and returns its single OrderRejected event,
// stamped with book's sequence if a book exists (an unknown-symbol rejection
// has none to advance).
func (e *Engine) reject(book *orderbook.OrderBook, order *orders.Order, reason errcodes.Reason) []events.Event {
	order.Status = orders.StatusRejected
	now := orders.Now()

	evts := []events.Event{&events.OrderRejected{
		Base:         events.Base{Type: events.EventTypeOrderRejected},
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		RejectReason: reason.Message,
		RejectCode:   reason.Code,
	}}

	var seq uint64
	if book != nil {
		seq = book.Sequence()
	}
	events.StampAll(evts, seq, now)
	return evts
}
