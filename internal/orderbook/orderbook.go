package orderbook

import (
	"fmt"
	"strings"

	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// OrderBook maintains the buy (bid) and sell (ask) sides of the market for a
// single symbol, plus the bookkeeping SPEC_FULL.md's matching core needs on
// top of plain price-level storage: a monotonic mutation sequence, a GTD
// expiry index, and a stop-order trigger index.
//
// Architecture:
//
//	                    OrderBook
//	                        │
//	       ┌────────────────┴────────────────┐
//	       │                                 │
//	    Bids (RBTree)                   Asks (RBTree)
//	    descending=true                 descending=false
//	       │                                 │
//	    PriceLevel                       PriceLevel
//	    (sorted high→low)                (sorted low→high)
//	       │                                 │
//	    OrderQueue                       OrderQueue
//	    (FIFO linked list)               (FIFO linked list)
//
// Ownership: exactly one shard worker goroutine ever calls into a given
// OrderBook for the lifetime of the process; there is no internal locking
// because there is no concurrent access to guard against.
type OrderBook struct {
	symbol values.Symbol
	bids   *RBTree // Buy orders, sorted by price descending
	asks   *RBTree // Sell orders, sorted by price ascending

	orderIndex map[values.OrderID]*OrderNode // O(1) cancel by id

	sequence uint64
	halted   bool
	lastPrice values.Price
	hasLastPrice bool

	gtdExpiry map[values.OrderID]int64 // order id -> expire_time, Gtd orders only

	stops *StopIndex
}

// NewOrderBook creates a new order book for the given symbol.
func NewOrderBook(symbol values.Symbol) *OrderBook {
	return &OrderBook{
		symbol:     symbol,
		bids:       NewRBTree(true),  // descending: true (highest price first)
		asks:       NewRBTree(false), // descending: false (lowest price first)
		orderIndex: make(map[values.OrderID]*OrderNode),
		gtdExpiry:  make(map[values.OrderID]int64),
		stops:      NewStopIndex(),
	}
}

// Symbol returns the symbol this order book is for.
func (ob *OrderBook) Symbol() values.Symbol {
	return ob.symbol
}

// Sequence returns the book's current mutation sequence without advancing it.
func (ob *OrderBook) Sequence() uint64 {
	return ob.sequence
}

// BumpSequence increments and returns the book's sequence. Called exactly
// once per Submit/Cancel/ExpireTick invocation that mutated the book, after
// every event for that mutation has been assembled (see SPEC_FULL.md §4.B.6).
func (ob *OrderBook) BumpSequence() uint64 {
	ob.sequence++
	return ob.sequence
}

// Halted reports whether the symbol is currently halted for trading.
func (ob *OrderBook) Halted() bool {
	return ob.halted
}

// SetHalted toggles the halt flag; Submit rejects every order while halted.
func (ob *OrderBook) SetHalted(halted bool) {
	ob.halted = halted
}

// LastPrice returns the last traded price for this symbol and whether one
// has been recorded yet. Used by the matching algorithm for market-vs-market
// crosses and by the stop-order trigger index.
func (ob *OrderBook) LastPrice() (values.Price, bool) {
	return ob.lastPrice, ob.hasLastPrice
}

// SetLastPrice records the most recent trade price.
func (ob *OrderBook) SetLastPrice(p values.Price) {
	ob.lastPrice = p
	ob.hasLastPrice = true
}

// Stops exposes the stop-order trigger index.
func (ob *OrderBook) Stops() *StopIndex {
	return ob.stops
}

// AddOrder adds an order to the appropriate side of the book.
// Returns an error if the order already exists.
// Time complexity: O(log P) where P = number of price levels
func (ob *OrderBook) AddOrder(order *orders.Order) error {
	if _, exists := ob.orderIndex[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}

	tree := ob.getTree(order.Side)

	level := tree.Get(order.Price)
	if level == nil {
		level = NewPriceLevel(order.Price)
		tree.Insert(level)
	}

	node := level.Append(order)
	ob.orderIndex[order.ID] = node

	if order.TimeInForce == orders.TimeInForceGtd {
		ob.gtdExpiry[order.ID] = order.ExpireTime
	}

	return nil
}

// CancelOrder removes an order from the book.
// Returns the cancelled order, or nil if not found.
// Time complexity: O(1) for the removal, O(log P) if price level becomes empty
func (ob *OrderBook) CancelOrder(orderID values.OrderID) *orders.Order {
	node, exists := ob.orderIndex[orderID]
	if !exists {
		return nil
	}

	order := node.Order
	level := node.level
	tree := ob.getTree(order.Side)

	level.Remove(node)
	delete(ob.orderIndex, orderID)
	delete(ob.gtdExpiry, orderID)

	if level.IsEmpty() {
		tree.Delete(level.Price)
	}

	return order
}

// GetOrder retrieves an order by ID.
// Time complexity: O(1)
func (ob *OrderBook) GetOrder(orderID values.OrderID) *orders.Order {
	node, exists := ob.orderIndex[orderID]
	if !exists {
		return nil
	}
	return node.Order
}

// GetBestBid returns the highest bid price level, or nil if no bids.
// Time complexity: O(1)
func (ob *OrderBook) GetBestBid() *PriceLevel {
	return ob.bids.Min()
}

// GetBestAsk returns the lowest ask price level, or nil if no asks.
// Time complexity: O(1)
func (ob *OrderBook) GetBestAsk() *PriceLevel {
	return ob.asks.Min()
}

// GetSpread returns the difference between best ask and best bid.
// Returns 0 if either side is empty.
func (ob *OrderBook) GetSpread() values.Price {
	bestBid := ob.GetBestBid()
	bestAsk := ob.GetBestAsk()
	if bestBid == nil || bestAsk == nil {
		return 0
	}
	return bestAsk.Price - bestBid.Price
}

// GetMidPrice returns the midpoint between best bid and ask.
// Returns 0 if either side is empty.
func (ob *OrderBook) GetMidPrice() values.Price {
	bestBid := ob.GetBestBid()
	bestAsk := ob.GetBestAsk()
	if bestBid == nil || bestAsk == nil {
		return 0
	}
	return (bestBid.Price + bestAsk.Price) / 2
}

// BidLevels returns the number of distinct bid price levels.
func (ob *OrderBook) BidLevels() int {
	return ob.bids.Size()
}

// AskLevels returns the number of distinct ask price levels.
func (ob *OrderBook) AskLevels() int {
	return ob.asks.Size()
}

// TotalOrders returns the total number of resting orders in the book
// (excluding stop-family orders still parked in the trigger index).
func (ob *OrderBook) TotalOrders() int {
	return len(ob.orderIndex)
}

// GetBidDepth returns the top N bid price levels.
// If levels <= 0, returns all levels.
func (ob *OrderBook) GetBidDepth(levels int) []*PriceLevel {
	return ob.getDepth(ob.bids, levels)
}

// GetAskDepth returns the top N ask price levels.
// If levels <= 0, returns all levels.
func (ob *OrderBook) GetAskDepth(levels int) []*PriceLevel {
	return ob.getDepth(ob.asks, levels)
}

// getDepth returns the top N levels from a tree.
func (ob *OrderBook) getDepth(tree *RBTree, maxLevels int) []*PriceLevel {
	result := make([]*PriceLevel, 0)
	count := 0

	tree.ForEach(func(level *PriceLevel) bool {
		result = append(result, level)
		count++
		if maxLevels > 0 && count >= maxLevels {
			return false
		}
		return true
	})

	return result
}

// UpdateOrderQuantity updates the remaining quantity of an order.
// Used when an order is partially filled.
// Time complexity: O(1)
func (ob *OrderBook) UpdateOrderQuantity(orderID values.OrderID, fillQty values.Quantity) error {
	node, exists := ob.orderIndex[orderID]
	if !exists {
		return fmt.Errorf("order %s not found", orderID)
	}

	order := node.Order
	order.FilledQty += fillQty
	node.level.UpdateQuantity(-fillQty)

	if order.IsFilled() {
		ob.CancelOrder(orderID)
	}

	return nil
}

// ExpiringGtdOrders returns the ids of every resting Gtd order whose
// expire_time is at or before now. Called by the matching engine's
// ExpireTick.
func (ob *OrderBook) ExpiringGtdOrders(now int64) []values.OrderID {
	var expired []values.OrderID
	for id, expireTime := range ob.gtdExpiry {
		if expireTime <= now {
			expired = append(expired, id)
		}
	}
	return expired
}

// LevelQuantity returns the current aggregate resting quantity at price on
// side, or 0 if no orders rest there. Used by the matching engine to read
// back the post-mutation state of a touched level when building a
// DepthUpdate (§4.B.6); a 0 here is what tells a depth-feed consumer the
// level is now gone rather than just thin.
func (ob *OrderBook) LevelQuantity(side orders.Side, price values.Price) values.Quantity {
	level := ob.getTree(side).Get(price)
	if level == nil {
		return 0
	}
	return level.TotalQty
}

// getTree returns the appropriate tree for the given side.
func (ob *OrderBook) getTree(side orders.Side) *RBTree {
	if side == orders.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// String returns a human-readable representation of the order book.
func (ob *OrderBook) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s Order Book ===\n", ob.symbol))

	asks := ob.GetAskDepth(5)
	sb.WriteString("ASKS:\n")
	for i := len(asks) - 1; i >= 0; i-- {
		level := asks[i]
		sb.WriteString(fmt.Sprintf("  %s: %s shares (%d orders)\n",
			level.Price.Decimal(), level.TotalQty.Decimal(), level.Count()))
	}

	spread := ob.GetSpread()
	if spread > 0 {
		sb.WriteString(fmt.Sprintf("--- Spread: %s ---\n", spread.Decimal()))
	} else {
		sb.WriteString("--- No Spread ---\n")
	}

	bids := ob.GetBidDepth(5)
	sb.WriteString("BIDS:\n")
	for _, level := range bids {
		sb.WriteString(fmt.Sprintf("  %s: %s shares (%d orders)\n",
			level.Price.Decimal(), level.TotalQty.Decimal(), level.Count()))
	}

	return sb.String()
}
