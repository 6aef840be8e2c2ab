package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

func mustPrice(t *testing.T, s string) values.Price {
	t.Helper()
	p, err := values.ParsePrice(s)
	require.NoError(t, err)
	return p
}

func mustQty(t *testing.T, s string) values.Quantity {
	t.Helper()
	q, err := values.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

func newLimitOrder(t *testing.T, symbol values.Symbol, side orders.Side, price, qty, account string) *orders.Order {
	t.Helper()
	return &orders.Order{
		Symbol:      symbol,
		Side:        side,
		Type:        orders.OrderTypeLimit,
		TimeInForce: orders.TimeInForceGtc,
		Price:       mustPrice(t, price),
		Quantity:    mustQty(t, qty),
		AccountID:   account,
	}
}

func tradesIn(evts []events.Event) []*events.TradeExecuted {
	var out []*events.TradeExecuted
	for _, e := range evts {
		if trade, ok := e.(*events.TradeExecuted); ok {
			out = append(out, trade)
		}
	}
	return out
}

// TestEngine_Determinism replays the same fixed order sequence through two
// independently constructed engines seeded with a CounterGenerator and
// requires identical trades and final sequence numbers, the property the
// single-threaded-core design exists to guarantee.
func TestEngine_Determinism(t *testing.T) {
	type step struct {
		side  orders.Side
		price string
		qty   string
	}
	seq := []step{
		{orders.SideSell, "151.00", "100"},
		{orders.SideSell, "150.50", "50"},
		{orders.SideBuy, "150.00", "2"},
		{orders.SideBuy, "150.50", "75"},
	}

	run := func() ([]*events.TradeExecuted, uint64) {
		engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
		engine.AddSymbol("AAPL")

		var trades []*events.TradeExecuted
		for _, s := range seq {
			order := newLimitOrder(t, "AAPL", s.side, s.price, s.qty, "TRADER")
			trades = append(trades, tradesIn(engine.Submit(order))...)
		}
		book, ok := engine.GetOrderBook("AAPL")
		require.True(t, ok)
		return trades, book.Sequence()
	}

	tradesA, seqA := run()
	tradesB, seqB := run()

	require.Equal(t, seqA, seqB, "replaying the same commands must reach the same final sequence")
	require.Equal(t, len(tradesA), len(tradesB))
	for i := range tradesA {
		require.Equal(t, tradesA[i].Price, tradesB[i].Price)
		require.Equal(t, tradesA[i].Quantity, tradesB[i].Quantity)
		require.Equal(t, tradesA[i].MakerOrderID, tradesB[i].MakerOrderID)
	}
}

// TestEngine_PriceTimePriority asserts that a marketable order sweeps resting
// opposite orders in price-then-arrival order, leaving a worse price level
// untouched while quantity remained at a better one.
func TestEngine_PriceTimePriority(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	sellers := []struct {
		account string
		price   string
		qty     string
	}{
		{"S1", "150.00", "100"},
		{"S2", "150.00", "100"},
		{"S3", "150.00", "100"},
		{"S4", "150.50", "100"},
	}
	for _, s := range sellers {
		order := newLimitOrder(t, "AAPL", orders.SideSell, s.price, s.qty, s.account)
		engine.Submit(order)
	}

	buy := newLimitOrder(t, "AAPL", orders.SideBuy, "150.00", "250", "BUYER")
	buy.Type = orders.OrderTypeMarket
	buy.TimeInForce = orders.TimeInForceIoc
	trades := tradesIn(engine.Submit(buy))

	require.Len(t, trades, 3, "250 shares should sweep S1, S2, and S3 but not reach S4")
	require.Equal(t, "S1", trades[0].MakerAccountID)
	require.Equal(t, "S2", trades[1].MakerAccountID)
	require.Equal(t, "S3", trades[2].MakerAccountID)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	askDepth := book.GetAskDepth(5)
	require.Len(t, askDepth, 2, "S3's unfilled 50 keeps the $150.00 level ahead of S4's $150.50")
	require.Equal(t, mustPrice(t, "150.00"), askDepth[0].Price)
	require.Equal(t, mustQty(t, "50"), askDepth[0].TotalQty)
	require.Equal(t, mustPrice(t, "150.50"), askDepth[1].Price)
}

// TestEngine_ConservationOfQuantity submits more resting supply than the
// taker consumes and asserts the book's remaining quantity accounts for
// exactly the unfilled balance: nothing is created or destroyed in matching.
func TestEngine_ConservationOfQuantity(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	sellQtys := []string{"100", "50", "75"}
	var totalSell values.Quantity
	for i, qty := range sellQtys {
		order := newLimitOrder(t, "AAPL", orders.SideSell, "150.00", qty, "SELLER")
		engine.Submit(order)
		q := mustQty(t, qty)
		totalSell += q
		_ = i
	}

	buy := newLimitOrder(t, "AAPL", orders.SideBuy, "150.00", "140", "BUYER")
	trades := tradesIn(engine.Submit(buy))

	var filled values.Quantity
	for _, tr := range trades {
		filled += tr.Quantity
	}
	require.Equal(t, mustQty(t, "140"), filled)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	askDepth := book.GetAskDepth(5)
	require.Len(t, askDepth, 1)
	require.Equal(t, totalSell-filled, askDepth[0].TotalQty)
}

// TestEngine_Submit_RestingOrderEmitsDepthUpdate asserts that an order
// resting with nothing to match against still produces a DepthUpdate
// carrying its own level, not just the OrderAccepted event.
func TestEngine_Submit_RestingOrderEmitsDepthUpdate(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	order := newLimitOrder(t, "AAPL", orders.SideBuy, "150.00", "10", "MAKER")
	evts := engine.Submit(order)

	require.Len(t, evts, 2)
	_, ok := evts[0].(*events.OrderAccepted)
	require.True(t, ok)

	du, ok := evts[1].(*events.DepthUpdate)
	require.True(t, ok, "a resting order must produce a DepthUpdate")
	require.Equal(t, values.Symbol("AAPL"), du.Symbol)
	require.Len(t, du.Bids, 1)
	require.Equal(t, mustPrice(t, "150.00"), du.Bids[0].Price)
	require.Equal(t, mustQty(t, "10"), du.Bids[0].Quantity)
	require.Empty(t, du.Asks)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	require.Equal(t, book.Sequence(), du.FirstUpdateID)
	require.Equal(t, book.Sequence(), du.FinalUpdateID)
}

// TestEngine_Submit_FullFillReportsLevelGoneInDepthUpdate asserts that when a
// taker fully consumes a resting level, the DepthUpdate reports that level at
// quantity 0 rather than omitting it — the signal a depth-feed consumer uses
// to remove the level instead of leaving stale size on its local book.
func TestEngine_Submit_FullFillReportsLevelGoneInDepthUpdate(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	ask := newLimitOrder(t, "AAPL", orders.SideSell, "150.00", "10", "MAKER")
	engine.Submit(ask)

	buy := newLimitOrder(t, "AAPL", orders.SideBuy, "150.00", "10", "TAKER")
	evts := engine.Submit(buy)

	var du *events.DepthUpdate
	for _, e := range evts {
		if d, ok := e.(*events.DepthUpdate); ok {
			du = d
		}
	}
	require.NotNil(t, du, "a fully-matched level is still a depth-visible mutation")
	require.Len(t, du.Asks, 1)
	require.Equal(t, mustPrice(t, "150.00"), du.Asks[0].Price)
	require.Equal(t, values.Quantity(0), du.Asks[0].Quantity)
}

// TestEngine_Cancel_EmitsZeroQuantityDepthUpdate mirrors the full-fill case
// for an explicit cancel: the vacated level is reported at quantity 0.
func TestEngine_Cancel_EmitsZeroQuantityDepthUpdate(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	order := newLimitOrder(t, "AAPL", orders.SideBuy, "150.00", "10", "MAKER")
	engine.Submit(order)

	evts := engine.Cancel("AAPL", order.ID)
	require.Len(t, evts, 2)
	_, ok := evts[0].(*events.OrderCanceled)
	require.True(t, ok)

	du, ok := evts[1].(*events.DepthUpdate)
	require.True(t, ok)
	require.Len(t, du.Bids, 1)
	require.Equal(t, values.Quantity(0), du.Bids[0].Quantity)
}

// TestEngine_Cancel_StopOrderTouchesNoLevel asserts canceling a parked
// stop-family order — which never held a book level — emits no DepthUpdate.
func TestEngine_Cancel_StopOrderTouchesNoLevel(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	stop := &orders.Order{
		Symbol:      "AAPL",
		Side:        orders.SideBuy,
		Type:        orders.OrderTypeStopLoss,
		TimeInForce: orders.TimeInForceGtc,
		StopPrice:   mustPrice(t, "150.00"),
		Quantity:    mustQty(t, "5"),
		AccountID:   "STOP",
	}
	engine.Submit(stop)

	evts := engine.Cancel("AAPL", stop.ID)
	require.Len(t, evts, 1, "no DepthUpdate: a parked stop order never touched a price level")
	_, ok := evts[0].(*events.OrderCanceled)
	require.True(t, ok)
}

// TestEngine_ExpireTick_ExpiresGtdOrder covers the production path the
// maintainer flagged as unreachable: a resting Gtd order past its
// expire_time is removed and reported gone via OrderExpired + DepthUpdate.
func TestEngine_ExpireTick_ExpiresGtdOrder(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	order := &orders.Order{
		Symbol:      "AAPL",
		Side:        orders.SideBuy,
		Type:        orders.OrderTypeLimit,
		TimeInForce: orders.TimeInForceGtd,
		Price:       mustPrice(t, "150.00"),
		Quantity:    mustQty(t, "10"),
		AccountID:   "MAKER",
		ExpireTime:  1,
	}
	engine.Submit(order)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	require.NotNil(t, book.GetOrder(order.ID))

	evts := engine.ExpireTick("AAPL", 1000)
	require.Len(t, evts, 2)

	expired, ok := evts[0].(*events.OrderExpired)
	require.True(t, ok)
	require.Equal(t, order.ID, expired.OrderID)

	du, ok := evts[1].(*events.DepthUpdate)
	require.True(t, ok)
	require.Len(t, du.Bids, 1)
	require.Equal(t, values.Quantity(0), du.Bids[0].Quantity)

	require.Nil(t, book.GetOrder(order.ID), "the expired order must be gone from the book")
}

// TestEngine_ExpireTick_TriggersStopOrder covers the other behavior the
// maintainer flagged as unreachable: a parked stop order fires once the
// book's last traded price crosses its stop price, converts to its
// TriggeredType, and resubmits through the normal Submit path.
func TestEngine_ExpireTick_TriggersStopOrder(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	ask := newLimitOrder(t, "AAPL", orders.SideSell, "151.00", "10", "LIQ")
	engine.Submit(ask)

	stop := &orders.Order{
		Symbol:      "AAPL",
		Side:        orders.SideBuy,
		Type:        orders.OrderTypeStopLoss,
		TimeInForce: orders.TimeInForceGtc,
		StopPrice:   mustPrice(t, "150.00"),
		Quantity:    mustQty(t, "5"),
		AccountID:   "STOP",
	}
	engine.Submit(stop)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	book.SetLastPrice(mustPrice(t, "150.00"))

	evts := engine.ExpireTick("AAPL", orders.Now())
	trades := tradesIn(evts)
	require.Len(t, trades, 1, "the triggered stop should convert to a market order and sweep the resting ask")
	require.Equal(t, mustQty(t, "5"), trades[0].Quantity)
	require.Equal(t, 0, book.Stops().Len(), "the fired stop must leave the trigger index")
}

// TestEngine_LimitMakerRejectsCrossingOrder covers the book-side enforcement
// of the LimitMaker family: an order that would cross the spread is rejected
// outright and never mutates the book or its sequence.
func TestEngine_LimitMakerRejectsCrossingOrder(t *testing.T) {
	engine := NewEngine(values.NewCounterGenerator(), NewPriceTimeAlgorithm())
	engine.AddSymbol("AAPL")

	ask := newLimitOrder(t, "AAPL", orders.SideSell, "150.01", "10", "MAKER")
	engine.Submit(ask)

	book, ok := engine.GetOrderBook("AAPL")
	require.True(t, ok)
	seqBefore := book.Sequence()

	crossing := newLimitOrder(t, "AAPL", orders.SideBuy, "150.02", "10", "TAKER")
	crossing.Type = orders.OrderTypeLimitMaker
	evts := engine.Submit(crossing)

	require.Len(t, evts, 1)
	rejected, ok := evts[0].(*events.OrderRejected)
	require.True(t, ok)
	require.Equal(t, "LIMIT_MAKER_WOULD_CROSS", rejected.RejectReason)
	require.Equal(t, seqBefore, book.Sequence(), "a rejected order must not advance the book sequence")
}
