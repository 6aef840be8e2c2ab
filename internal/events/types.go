// Package events defines the event-sourcing vocabulary the matching core
// emits: one event per externally observable consequence of Submit, Cancel,
// or ExpireTick. Events are the single channel between the order book and
// everything downstream of it — the market-data publisher, the wire
// encoder, and (optionally) the audit sink — so nothing downstream ever
// reaches back into an OrderBook directly.
//
// Event sourcing here is observational, not authoritative: the book's
// in-memory state is the source of truth, and the event stream is a replay
// of what happened to it, not a log that can reconstruct it after a crash
// (see the audit sink's doc comment in internal/wire for why).
package events

import (
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// EventType identifies the concrete shape of an Event.
type EventType uint8

const (
	EventTypeOrderAccepted EventType = iota + 1
	EventTypeOrderRejected
	EventTypeOrderPartiallyFilled
	EventTypeOrderFilled
	EventTypeOrderCanceled
	EventTypeOrderExpired
	EventTypeTradeExecuted
	EventTypeDepthUpdate
	EventTypeDepthSnapshot
)

func (t EventType) String() string {
	switch t {
	case EventTypeOrderAccepted:
		return "ORDER_ACCEPTED"
	case EventTypeOrderRejected:
		return "ORDER_REJECTED"
	case EventTypeOrderPartiallyFilled:
		return "ORDER_PARTIALLY_FILLED"
	case EventTypeOrderFilled:
		return "ORDER_FILLED"
	case EventTypeOrderCanceled:
		return "ORDER_CANCELED"
	case EventTypeOrderExpired:
		return "ORDER_EXPIRED"
	case EventTypeTradeExecuted:
		return "TRADE_EXECUTED"
	case EventTypeDepthUpdate:
		return "DEPTH_UPDATE"
	case EventTypeDepthSnapshot:
		return "DEPTH_SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// Event is implemented by every concrete event struct below. A type switch
// on Kind() (or a Go type switch on the concrete value) is how subscribers
// dispatch.
type Event interface {
	Kind() EventType
	Seq() uint64
	When() int64
}

// Base carries the fields every event shares: the book sequence it was
// produced under and when it happened. Embed it, don't duplicate it.
type Base struct {
	SequenceNum uint64
	Timestamp   int64
	Type        EventType
}

func (b Base) Kind() EventType { return b.Type }
func (b Base) Seq() uint64     { return b.SequenceNum }
func (b Base) When() int64    { return b.Timestamp }

// OrderAccepted is emitted once Submit has validated and admitted an order,
// before any matching happens.
type OrderAccepted struct {
	Base
	OrderID values.OrderID
	Symbol  values.Symbol
	Order   *orders.Order
}

// OrderRejected is emitted when Submit refuses an order outright — failed
// validation, book halted, FOK unfillable, LimitMaker would cross, or a
// market order hit an empty opposite side.
type OrderRejected struct {
	Base
	OrderID      values.OrderID
	Symbol       values.Symbol
	RejectReason string
	RejectCode   int
}

// OrderPartiallyFilled is emitted for the taker or maker side of a fill
// that left the order with remaining quantity.
type OrderPartiallyFilled struct {
	Base
	OrderID      values.OrderID
	Symbol       values.Symbol
	FilledQty    values.Quantity
	RemainingQty values.Quantity
}

// OrderFilled is emitted for the taker or maker side of a fill that
// consumed the order's full remaining quantity.
type OrderFilled struct {
	Base
	OrderID   values.OrderID
	Symbol    values.Symbol
	FilledQty values.Quantity
}

// OrderCanceled is emitted when Cancel removes a resting order, or when
// Submit cancels the unfilled remainder of a Market/Ioc order.
type OrderCanceled struct {
	Base
	OrderID      values.OrderID
	Symbol       values.Symbol
	CanceledQty  values.Quantity
	Reason       string
}

// OrderExpired is emitted by ExpireTick for each Gtd order whose
// expire_time has passed.
type OrderExpired struct {
	Base
	OrderID     values.OrderID
	Symbol      values.Symbol
	ExpiredQty  values.Quantity
}

// TradeExecuted is emitted once per match, in addition to the per-order
// Filled/PartiallyFilled events for maker and taker.
type TradeExecuted struct {
	Base
	TradeID        uint64
	Symbol         values.Symbol
	Price          values.Price
	Quantity       values.Quantity
	MakerOrderID   values.OrderID
	TakerOrderID   values.OrderID
	MakerAccountID string
	TakerAccountID string
	TakerSide      orders.Side
}

// DepthLevel is one (price, aggregate quantity) pair in a depth update or
// snapshot.
type DepthLevel struct {
	Price    values.Price
	Quantity values.Quantity
}

// DepthUpdate summarizes the net level-quantity changes a single
// Submit/Cancel/ExpireTick mutation produced, carrying the book's final
// sequence for that mutation (§4.B.6). FirstUpdateID/FinalUpdateID let a
// consumer detect gaps in the stream (see internal/wire, internal/syncstate).
type DepthUpdate struct {
	Base
	Symbol        values.Symbol
	FirstUpdateID uint64
	FinalUpdateID uint64
	Bids          []DepthLevel
	Asks          []DepthLevel
}

// DepthSnapshot is a full point-in-time view of the book, used to (re)seed a
// consumer before it starts applying DepthUpdates.
type DepthSnapshot struct {
	Base
	Symbol        values.Symbol
	LastUpdateID  uint64
	Bids          []DepthLevel
	Asks          []DepthLevel
}
