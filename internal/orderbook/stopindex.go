package orderbook

import (
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// StopIndex holds stop-family orders (StopLoss, StopLossLimit, TakeProfit,
// TakeProfitLimit) that have been accepted but have not yet triggered. These
// never touch the live book: they sit here keyed by stop price until the
// last traded price crosses that level, at which point the matching engine
// pulls them out, converts them to their TriggeredType, and resubmits them
// as ordinary Market/Limit orders.
//
// A side's stops are split buy/sell because the trigger direction differs:
// a buy stop fires when the last price rises to or above its stop price
// (stopping out a short, or entering a breakout), a sell stop fires when the
// last price falls to or below it.
type StopIndex struct {
	buyStops  map[values.OrderID]*orders.Order
	sellStops map[values.OrderID]*orders.Order
}

// NewStopIndex creates an empty stop-order trigger index.
func NewStopIndex() *StopIndex {
	return &StopIndex{
		buyStops:  make(map[values.OrderID]*orders.Order),
		sellStops: make(map[values.OrderID]*orders.Order),
	}
}

// Add parks a stop-family order in the index until it triggers.
func (s *StopIndex) Add(order *orders.Order) {
	if order.Side == orders.SideBuy {
		s.buyStops[order.ID] = order
	} else {
		s.sellStops[order.ID] = order
	}
}

// Remove takes a stop order out of the index, e.g. on explicit cancel.
// Returns the removed order, or nil if it was not parked here.
func (s *StopIndex) Remove(orderID values.OrderID) *orders.Order {
	if order, ok := s.buyStops[orderID]; ok {
		delete(s.buyStops, orderID)
		return order
	}
	if order, ok := s.sellStops[orderID]; ok {
		delete(s.sellStops, orderID)
		return order
	}
	return nil
}

// Get looks up a parked stop order by id without removing it.
func (s *StopIndex) Get(orderID values.OrderID) *orders.Order {
	if order, ok := s.buyStops[orderID]; ok {
		return order
	}
	if order, ok := s.sellStops[orderID]; ok {
		return order
	}
	return nil
}

// Triggered returns every parked order whose stop price has been crossed by
// the given last traded price, and removes them from the index. Buy stops
// trigger when lastPrice >= StopPrice; sell stops trigger when
// lastPrice <= StopPrice.
func (s *StopIndex) Triggered(lastPrice values.Price) []*orders.Order {
	var fired []*orders.Order

	for id, order := range s.buyStops {
		if lastPrice >= order.StopPrice {
			fired = append(fired, order)
			delete(s.buyStops, id)
		}
	}
	for id, order := range s.sellStops {
		if lastPrice <= order.StopPrice {
			fired = append(fired, order)
			delete(s.sellStops, id)
		}
	}

	return fired
}

// Len returns the total number of orders parked in the index.
func (s *StopIndex) Len() int {
	return len(s.buyStops) + len(s.sellStops)
}
