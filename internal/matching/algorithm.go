package matching

import (
	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/orderbook"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// MatchingAlgorithm is the strategy interface the engine dispatches through
// for every price level it visits while matching an incoming order. It is a
// small closed set — exactly priceTimeAlgorithm and proRataAlgorithm below —
// chosen once when an order book is constructed, not a plugin registry: Go's
// compiler can devirtualize a two-way interface dispatch in a way it cannot
// for reflection-based lookup, and the hot loop only ever pays one indirect
// call per visited level.
type MatchingAlgorithm interface {
	// CanMatch reports whether a resting order at bookPrice is an acceptable
	// counterparty for the incoming order. Market takers accept any price;
	// limit takers only accept prices that do not cross their own limit.
	CanMatch(takerPrice values.Price, takerIsMarket bool, takerSide orders.Side, bookPrice values.Price) bool

	// MatchOne matches the taker against the resting orders at a single
	// price level, mutating maker and taker FilledQty/Status in place and
	// removing any maker that becomes fully filled from the book. It
	// returns the fills produced at this level and the TradeExecuted /
	// OrderFilled / OrderPartiallyFilled events each fill generates for its
	// maker and taker. The taker may still have remaining quantity when
	// this returns because the level did not hold enough (pro-rata hands
	// its flooring remainder to makers at the same level, so flooring alone
	// leaves nothing over) — the caller re-invokes MatchOne against the
	// next level.
	MatchOne(taker *orders.Order, level *orderbook.PriceLevel, book *orderbook.OrderBook, ids values.IDGenerator) ([]orders.Fill, []events.Event)

	// TieBreak reports whether order a has matching priority over order b
	// when both rest at the same price. Both algorithms break ties the
	// same way (FIFO by CreatedAt, then by id byte order) since pro-rata's
	// flooring remainder also needs a deterministic earliest-order rule.
	TieBreak(a, b *orders.Order) bool

	// LastPriceForSymbol returns the book's last traded price, used for
	// market-vs-market crosses where there is no resting limit price to
	// anchor on.
	LastPriceForSymbol(book *orderbook.OrderBook) (values.Price, bool)

	// Name identifies the algorithm for logs and metrics labels.
	Name() string
}

// priceAcceptable implements the price-crossing rule shared by both
// algorithms: a market taker crosses at any price; a limit taker only
// crosses at a price that does not violate its own limit.
func priceAcceptable(takerPrice values.Price, takerIsMarket bool, takerSide orders.Side, bookPrice values.Price) bool {
	if takerIsMarket {
		return true
	}
	if takerSide == orders.SideBuy {
		return bookPrice <= takerPrice
	}
	return bookPrice >= takerPrice
}

// tieBreak implements the shared FIFO-then-id tie-break rule.
func tieBreak(a, b *orders.Order) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID.String() < b.ID.String()
}

// fillFor builds a Fill record for one maker/taker match, applies its
// quantity to both orders, removes the maker from the book when it becomes
// fully filled, and returns the TradeExecuted/OrderFilled/
// OrderPartiallyFilled events the match produces. Shared by both algorithms
// so the bookkeeping (status transitions, level quantity maintenance, book
// removal) only lives once. Sequence numbers are left zero; the engine
// stamps every event from a Submit call with the one final sequence after
// all of them are assembled (§4.B.6).
func fillFor(taker, maker *orders.Order, level *orderbook.PriceLevel, qty values.Quantity, book *orderbook.OrderBook, ids values.IDGenerator) (orders.Fill, []events.Event) {
	fill := orders.Fill{
		TradeID:        ids.NextTradeID(),
		MakerOrderID:   maker.ID,
		TakerOrderID:   taker.ID,
		Price:          level.Price,
		Quantity:       qty,
		Timestamp:      orders.Now(),
		Symbol:         taker.Symbol,
		MakerAccountID: maker.AccountID,
		TakerAccountID: taker.AccountID,
		TakerSide:      taker.Side,
	}

	taker.FilledQty += qty
	maker.FilledQty += qty
	maker.UpdatedAt = fill.Timestamp
	taker.UpdatedAt = fill.Timestamp

	level.UpdateQuantity(-qty)
	if maker.IsFilled() {
		maker.Status = orders.StatusFilled
		book.CancelOrder(maker.ID)
	} else {
		maker.Status = orders.StatusPartiallyFilled
	}

	evts := []events.Event{
		&events.TradeExecuted{
			Base:           events.Base{Type: events.EventTypeTradeExecuted},
			TradeID:        fill.TradeID,
			Symbol:         fill.Symbol,
			Price:          fill.Price,
			Quantity:       fill.Quantity,
			MakerOrderID:   fill.MakerOrderID,
			TakerOrderID:   fill.TakerOrderID,
			MakerAccountID: fill.MakerAccountID,
			TakerAccountID: fill.TakerAccountID,
			TakerSide:      fill.TakerSide,
		},
		statusEvent(maker),
		statusEvent(taker),
	}

	return fill, evts
}

// statusEvent builds the OrderFilled or OrderPartiallyFilled event matching
// an order's current fill state, read right after a fillFor mutation.
func statusEvent(o *orders.Order) events.Event {
	if o.IsFilled() {
		return &events.OrderFilled{
			Base:      events.Base{Type: events.EventTypeOrderFilled},
			OrderID:   o.ID,
			Symbol:    o.Symbol,
			FilledQty: o.FilledQty,
		}
	}
	return &events.OrderPartiallyFilled{
		Base:         events.Base{Type: events.EventTypeOrderPartiallyFilled},
		OrderID:      o.ID,
		Symbol:       o.Symbol,
		FilledQty:    o.FilledQty,
		RemainingQty: o.RemainingQty(),
	}
}

// priceTimeAlgorithm matches strictly in FIFO arrival order at each price
// level: the resting order at the head of the queue is filled first, then
// the next, until either the taker or the level is exhausted.
type priceTimeAlgorithm struct{}

// NewPriceTimeAlgorithm returns the standard price-time (FIFO) matching
// strategy.
func NewPriceTimeAlgorithm() MatchingAlgorithm {
	return priceTimeAlgorithm{}
}

func (priceTimeAlgorithm) Name() string { return "price_time" }

func (priceTimeAlgorithm) CanMatch(takerPrice values.Price, takerIsMarket bool, takerSide orders.Side, bookPrice values.Price) bool {
	return priceAcceptable(takerPrice, takerIsMarket, takerSide, bookPrice)
}

func (priceTimeAlgorithm) TieBreak(a, b *orders.Order) bool {
	return tieBreak(a, b)
}

func (priceTimeAlgorithm) LastPriceForSymbol(book *orderbook.OrderBook) (values.Price, bool) {
	return book.LastPrice()
}

func (a priceTimeAlgorithm) MatchOne(taker *orders.Order, level *orderbook.PriceLevel, book *orderbook.OrderBook, ids values.IDGenerator) ([]orders.Fill, []events.Event) {
	var fills []orders.Fill
	var evts []events.Event

	node := level.Head()
	for node != nil && taker.RemainingQty() > 0 {
		maker := node.Order
		next := node.Next()

		qty := taker.RemainingQty()
		if maker.RemainingQty() < qty {
			qty = maker.RemainingQty()
		}

		fill, fillEvts := fillFor(taker, maker, level, qty, book, ids)
		fills = append(fills, fill)
		evts = append(evts, fillEvts...)

		node = next
	}

	return fills, evts
}

// proRataAlgorithm matches by allocating the taker's quantity across every
// resting order at a price level in proportion to each maker's remaining
// size, floored to minLot; the leftover from flooring is then handed out in
// queue (arrival) order, each maker taking as much of it as its remaining
// room allows, until either it is exhausted or every maker at the level is
// saturated.
type proRataAlgorithm struct {
	minLot values.Quantity
}

// NewProRataAlgorithm returns a pro-rata matching strategy that floors
// allocations to minLot (pass values.Quantity(1) for no effective flooring
// below the shared fixed-point scale).
func NewProRataAlgorithm(minLot values.Quantity) MatchingAlgorithm {
	if minLot <= 0 {
		minLot = 1
	}
	return proRataAlgorithm{minLot: minLot}
}

func (proRataAlgorithm) Name() string { return "pro_rata" }

func (proRataAlgorithm) CanMatch(takerPrice values.Price, takerIsMarket bool, takerSide orders.Side, bookPrice values.Price) bool {
	return priceAcceptable(takerPrice, takerIsMarket, takerSide, bookPrice)
}

func (proRataAlgorithm) TieBreak(a, b *orders.Order) bool {
	return tieBreak(a, b)
}

func (proRataAlgorithm) LastPriceForSymbol(book *orderbook.OrderBook) (values.Price, bool) {
	return book.LastPrice()
}

func (p proRataAlgorithm) MatchOne(taker *orders.Order, level *orderbook.PriceLevel, book *orderbook.OrderBook, ids values.IDGenerator) ([]orders.Fill, []events.Event) {
	totalAvailable := level.TotalQty
	toMatch := taker.RemainingQty()
	if totalAvailable < toMatch {
		toMatch = totalAvailable
	}
	if toMatch <= 0 || totalAvailable <= 0 {
		return nil, nil
	}

	type allocation struct {
		node *orderbook.OrderNode
		qty  values.Quantity
	}

	var allocations []allocation
	var allocated values.Quantity

	for node := level.Head(); node != nil; node = node.Next() {
		maker := node.Order
		share := toMatch.MulDiv(int64(maker.RemainingQty()), int64(totalAvailable))
		share = share.FloorToLot(p.minLot)
		if share > maker.RemainingQty() {
			share = maker.RemainingQty()
		}
		allocations = append(allocations, allocation{node: node, qty: share})
		allocated += share
	}

	// Distribute the flooring remainder to the earliest resting orders
	// first, capped by each maker's remaining room.
	remainder := toMatch - allocated
	for i := 0; remainder > 0 && i < len(allocations); i++ {
		maker := allocations[i].node.Order
		room := maker.RemainingQty() - allocations[i].qty
		if room <= 0 {
			continue
		}
		give := remainder
		if give > room {
			give = room
		}
		allocations[i].qty += give
		remainder -= give
	}

	var fills []orders.Fill
	var evts []events.Event
	for _, alloc := range allocations {
		if alloc.qty <= 0 {
			continue
		}
		fill, fillEvts := fillFor(taker, alloc.node.Order, level, alloc.qty, book, ids)
		fills = append(fills, fill)
		evts = append(evts, fillEvts...)
	}

	return fills, evts
}
