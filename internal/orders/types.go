// Package orders defines the order entity and its supporting enumerations:
// side, order type, time-in-force, and status. These are the vocabulary the
// order book, matching engine, and validator all share.
package orders

import (
	"fmt"
	"time"

	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// Side is the direction of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// String implements fmt.Stringer.
func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// OrderType enumerates the order families the book accepts. The stop family
// (StopLoss/StopLossLimit/TakeProfit/TakeProfitLimit) never touches the live
// book directly; the order book holds them in a separate trigger index keyed
// by stop price until the last traded price crosses it (see
// orderbook.StopIndex), at which point they convert in place to their
// Market/Limit counterpart and re-enter Submit.
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeLimitMaker
	OrderTypeStopLoss
	OrderTypeStopLossLimit
	OrderTypeTakeProfit
	OrderTypeTakeProfitLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeLimitMaker:
		return "LIMIT_MAKER"
	case OrderTypeStopLoss:
		return "STOP_LOSS"
	case OrderTypeStopLossLimit:
		return "STOP_LOSS_LIMIT"
	case OrderTypeTakeProfit:
		return "TAKE_PROFIT"
	case OrderTypeTakeProfitLimit:
		return "TAKE_PROFIT_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// IsStopFamily reports whether the order type rests in the stop trigger
// index rather than the live book until triggered.
func (t OrderType) IsStopFamily() bool {
	switch t {
	case OrderTypeStopLoss, OrderTypeStopLossLimit, OrderTypeTakeProfit, OrderTypeTakeProfitLimit:
		return true
	default:
		return false
	}
}

// RequiresPrice reports whether the order type needs an explicit limit
// price (as opposed to Market, which ignores price entirely).
func (t OrderType) RequiresPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeLimitMaker, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return true
	default:
		return false
	}
}

// RequiresStopPrice reports whether the order type needs a stop_price.
func (t OrderType) RequiresStopPrice() bool {
	return t.IsStopFamily()
}

// TriggeredType returns the order type this stop-family type converts into
// once its trigger condition fires (StopLoss/TakeProfit -> Market,
// StopLossLimit/TakeProfitLimit -> Limit). Non-stop types return themselves.
func (t OrderType) TriggeredType() OrderType {
	switch t {
	case OrderTypeStopLoss, OrderTypeTakeProfit:
		return OrderTypeMarket
	case OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return OrderTypeLimit
	default:
		return t
	}
}

// TimeInForce controls how long an order may rest and whether partial fills
// are acceptable. It is orthogonal to OrderType: a Limit order can carry any
// TimeInForce, while Market never rests whatever value is supplied (a
// Market order carrying Fok still gets the all-or-nothing precheck).
type TimeInForce uint8

const (
	TimeInForceGtc TimeInForce = iota
	TimeInForceIoc
	TimeInForceFok
	TimeInForceGtd
)

func (tif TimeInForce) String() string {
	switch tif {
	case TimeInForceGtc:
		return "GTC"
	case TimeInForceIoc:
		return "IOC"
	case TimeInForceFok:
		return "FOK"
	case TimeInForceGtd:
		return "GTD"
	default:
		return "UNKNOWN"
	}
}

// RestsOnBook reports whether this TIF allows a non-marketable remainder to
// rest, independent of order type.
func (tif TimeInForce) RestsOnBook() bool {
	return tif == TimeInForceGtc || tif == TimeInForceGtd
}

// OrderStatus is the lifecycle state of an order. Transitions are monotonic:
// once in a terminal status (Filled, Canceled, Rejected, Expired) an order
// never changes status again.
type OrderStatus uint8

const (
	StatusNew OrderStatus = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCanceled
	StatusRejected
	StatusExpired
	StatusPendingCancel
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCanceled:
		return "CANCELED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	case StatusPendingCancel:
		return "PENDING_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// IsFinal reports whether the status is terminal.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// Order is a single order, resting or incoming. The hot matching fields
// (Price, StopPrice, Quantity, FilledQty, Side, Type) are grouped near the
// top of the struct so the comparisons the matching loop performs land in as
// few cache lines as possible, mirroring the field-ordering discipline of
// the teacher's original int64-cents Order.
type Order struct {
	ID            values.OrderID
	ClientOrderID string
	Symbol        values.Symbol
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce
	Price         values.Price // required for the limit family; ignored for Market
	StopPrice     values.Price // required for the stop family
	Quantity      values.Quantity
	FilledQty     values.Quantity
	Status        OrderStatus
	AccountID     string
	SequenceNum   uint64 // book sequence at the time this order was accepted
	ExpireTime    int64  // ns since epoch; required iff TimeInForce == Gtd
	CreatedAt     int64  // ns since epoch
	UpdatedAt     int64  // ns since epoch
}

// RemainingQty returns the unfilled quantity.
func (o *Order) RemainingQty() values.Quantity {
	return o.Quantity - o.FilledQty
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.FilledQty >= o.Quantity
}

// IsActive reports whether the order can still match or rest.
func (o *Order) IsActive() bool {
	return o.Status == StatusNew || o.Status == StatusPartiallyFilled
}

// IsMarketable reports whether a Limit/LimitMaker order at o.Price would
// cross the given best opposite price. Used by the validator's LimitMaker
// check and by the book's LimitMaker-on-entry rejection.
func (o *Order) IsMarketable(bestOppositePrice values.Price, oppositeExists bool) bool {
	if !oppositeExists {
		return false
	}
	if o.Side == SideBuy {
		return o.Price >= bestOppositePrice
	}
	return o.Price <= bestOppositePrice
}

// String renders a short human-readable summary for logs.
func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%s symbol=%s side=%s type=%s tif=%s price=%s qty=%s filled=%s status=%s}",
		o.ID, o.Symbol, o.Side, o.Type, o.TimeInForce, o.Price.Decimal(), o.Quantity.Decimal(), o.FilledQty.Decimal(), o.Status)
}

// Now returns the current time in nanoseconds since epoch. The matching
// engine calls this directly for order and fill timestamps; it has no
// injectable clock, so those timestamps always come from the wall clock
// (only ExpireTick takes its reference instant as a parameter).
func Now() int64 {
	return time.Now().UnixNano()
}

// Fill records one maker/taker match produced by a single matching step.
type Fill struct {
	TradeID        uint64
	MakerOrderID   values.OrderID
	TakerOrderID   values.OrderID
	Price          values.Price
	Quantity       values.Quantity
	Timestamp      int64
	Symbol         values.Symbol
	MakerAccountID string
	TakerAccountID string
	TakerSide      Side
}

// ExecutionResult summarizes one submission: the (possibly mutated)
// incoming order, any fills it produced, whether it was accepted at all, a
// reject reason when it was not, and the quantity that ended up resting on
// the book (0 if none). The matching engine's Submit does not return it; it
// returns the event stream.
type ExecutionResult struct {
	Order        *Order
	Fills        []Fill
	Accepted     bool
	RejectReason string
	RestingQty   values.Quantity
}
