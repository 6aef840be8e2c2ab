package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/errcodes"
	"github.com/rishav/exchange-sim-kernel/internal/orderbook"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/registry"
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

func basePair(t *testing.T) registry.PairConfig {
	t.Helper()
	return registry.PairConfig{
		Symbol:      "BTC-USD",
		BaseAsset:   "BTC",
		QuoteAsset:  "USD",
		TickSize:    mustPrice(t, "0.01"),
		LotSize:     mustQty(t, "0.001"),
		MinNotional: mustPrice(t, "10.00"),
		Status:      registry.StatusTrading,
	}
}

func baseLimitOrder(t *testing.T) *orders.Order {
	t.Helper()
	return &orders.Order{
		Symbol:      "BTC-USD",
		Side:        orders.SideBuy,
		Type:        orders.OrderTypeLimit,
		TimeInForce: orders.TimeInForceGtc,
		Price:       mustPrice(t, "50000.00"),
		Quantity:    mustQty(t, "1"),
		AccountID:   "ACC1",
	}
}

func TestValidate_Accepts(t *testing.T) {
	err := Validate(baseLimitOrder(t), basePair(t), nil)
	require.Nil(t, err)
}

func TestValidate_RejectsNonPositiveQuantity(t *testing.T) {
	order := baseLimitOrder(t)
	order.Quantity = 0
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonInvalidParameter.Message, err.Message)
}

func TestValidate_RejectsLotSizeMisalignment(t *testing.T) {
	order := baseLimitOrder(t)
	order.Quantity = mustQty(t, "1.0005")
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonLotSizeViolation.Message, err.Message)
}

func TestValidate_RejectsMissingPriceForLimit(t *testing.T) {
	order := baseLimitOrder(t)
	order.Price = 0
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonInvalidParameter.Message, err.Message)
}

func TestValidate_RejectsTickSizeMisalignment(t *testing.T) {
	order := baseLimitOrder(t)
	order.Price = mustPrice(t, "50000.001")
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonTickSizeViolation.Message, err.Message)
}

func TestValidate_RequiresStopPriceForStopFamily(t *testing.T) {
	order := baseLimitOrder(t)
	order.Type = orders.OrderTypeStopLoss
	order.Price = 0
	order.StopPrice = 0
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonInvalidParameter.Message, err.Message)
}

func TestValidate_RejectsNotionalBelowMinimum(t *testing.T) {
	order := baseLimitOrder(t)
	order.Price = mustPrice(t, "1.00")
	order.Quantity = mustQty(t, "0.001")
	err := Validate(order, basePair(t), nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonNotionalBelowMinimum.Message, err.Message)
}

func TestValidate_RejectsHaltedMarket(t *testing.T) {
	pair := basePair(t)
	pair.Status = registry.StatusHalted
	err := Validate(baseLimitOrder(t), pair, nil)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonMarketHalted.Message, err.Message)
}

func TestValidate_LimitMakerSkipsCrossCheckWhenBookNil(t *testing.T) {
	order := baseLimitOrder(t)
	order.Type = orders.OrderTypeLimitMaker
	order.Price = mustPrice(t, "60000.00")

	err := Validate(order, basePair(t), nil)
	require.Nil(t, err, "nil book cannot be checked for crossing, so Validate must not reject on this check")
}

func TestValidate_LimitMakerRejectsCrossWhenBookPresent(t *testing.T) {
	book := orderbook.NewOrderBook("BTC-USD")
	ask := &orders.Order{
		Symbol:      "BTC-USD",
		Side:        orders.SideSell,
		Type:        orders.OrderTypeLimit,
		TimeInForce: orders.TimeInForceGtc,
		Price:       mustPrice(t, "50000.00"),
		Quantity:    mustQty(t, "1"),
		AccountID:   "MAKER",
	}
	require.NoError(t, book.AddOrder(ask))

	order := baseLimitOrder(t)
	order.Type = orders.OrderTypeLimitMaker
	order.Price = mustPrice(t, "50000.01") // would cross the resting ask

	err := Validate(order, basePair(t), book)
	require.NotNil(t, err)
	require.Equal(t, errcodes.ReasonLimitMakerWouldCross.Message, err.Message)
}

func TestValidate_LimitMakerAcceptsNonCrossingWhenBookPresent(t *testing.T) {
	book := orderbook.NewOrderBook("BTC-USD")
	ask := &orders.Order{
		Symbol:      "BTC-USD",
		Side:        orders.SideSell,
		Type:        orders.OrderTypeLimit,
		TimeInForce: orders.TimeInForceGtc,
		Price:       mustPrice(t, "50000.00"),
		Quantity:    mustQty(t, "1"),
		AccountID:   "MAKER",
	}
	require.NoError(t, book.AddOrder(ask))

	order := baseLimitOrder(t)
	order.Type = orders.OrderTypeLimitMaker
	order.Price = mustPrice(t, "49999.00") // rests below the ask, no cross

	err := Validate(order, basePair(t), book)
	require.Nil(t, err)
}
