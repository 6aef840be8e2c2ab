package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/values"
)

func TestSide_Opposite(t *testing.T) {
	require.Equal(t, SideSell, SideBuy.Opposite())
	require.Equal(t, SideBuy, SideSell.Opposite())
}

func TestOrderType_RequiresPrice(t *testing.T) {
	priced := []OrderType{OrderTypeLimit, OrderTypeLimitMaker, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit}
	for _, ty := range priced {
		require.True(t, ty.RequiresPrice(), "%s should require a price", ty)
	}
	unpriced := []OrderType{OrderTypeMarket, OrderTypeStopLoss, OrderTypeTakeProfit}
	for _, ty := range unpriced {
		require.False(t, ty.RequiresPrice(), "%s should not require a price", ty)
	}
}

func TestOrderType_IsStopFamily(t *testing.T) {
	stops := []OrderType{OrderTypeStopLoss, OrderTypeStopLossLimit, OrderTypeTakeProfit, OrderTypeTakeProfitLimit}
	for _, ty := range stops {
		require.True(t, ty.IsStopFamily())
		require.True(t, ty.RequiresStopPrice())
	}
	require.False(t, OrderTypeLimit.IsStopFamily())
	require.False(t, OrderTypeMarket.RequiresStopPrice())
}

func TestOrderType_TriggeredType(t *testing.T) {
	require.Equal(t, OrderTypeMarket, OrderTypeStopLoss.TriggeredType())
	require.Equal(t, OrderTypeMarket, OrderTypeTakeProfit.TriggeredType())
	require.Equal(t, OrderTypeLimit, OrderTypeStopLossLimit.TriggeredType())
	require.Equal(t, OrderTypeLimit, OrderTypeTakeProfitLimit.TriggeredType())
	require.Equal(t, OrderTypeLimit, OrderTypeLimit.TriggeredType(), "non-stop types are returned unchanged")
}

func TestTimeInForce_RestsOnBook(t *testing.T) {
	require.True(t, TimeInForceGtc.RestsOnBook())
	require.True(t, TimeInForceGtd.RestsOnBook())
	require.False(t, TimeInForceIoc.RestsOnBook())
	require.False(t, TimeInForceFok.RestsOnBook())
}

func TestOrderStatus_IsFinal(t *testing.T) {
	final := []OrderStatus{StatusFilled, StatusCanceled, StatusRejected, StatusExpired}
	for _, s := range final {
		require.True(t, s.IsFinal())
	}
	nonFinal := []OrderStatus{StatusNew, StatusPartiallyFilled, StatusPendingCancel}
	for _, s := range nonFinal {
		require.False(t, s.IsFinal())
	}
}

func mustQty(t *testing.T, s string) values.Quantity {
	t.Helper()
	q, err := values.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

func TestOrder_RemainingQtyAndFilled(t *testing.T) {
	o := &Order{Quantity: mustQty(t, "10"), FilledQty: mustQty(t, "4")}
	require.Equal(t, mustQty(t, "6"), o.RemainingQty())
	require.False(t, o.IsFilled())

	o.FilledQty = mustQty(t, "10")
	require.True(t, o.IsFilled())
}

func TestOrder_IsActive(t *testing.T) {
	o := &Order{Status: StatusNew}
	require.True(t, o.IsActive())
	o.Status = StatusPartiallyFilled
	require.True(t, o.IsActive())
	o.Status = StatusFilled
	require.False(t, o.IsActive())
}

func TestOrder_IsMarketable(t *testing.T) {
	price, err := values.ParsePrice("100.00")
	require.NoError(t, err)
	best, err := values.ParsePrice("99.00")
	require.NoError(t, err)

	buy := &Order{Side: SideBuy, Price: price}
	require.True(t, buy.IsMarketable(best, true), "a buy at 100 crosses a best ask of 99")
	require.False(t, buy.IsMarketable(price, false), "no opposite side means nothing to cross")

	sell := &Order{Side: SideSell, Price: best}
	require.True(t, sell.IsMarketable(price, true), "a sell at 99 crosses a best bid of 100")
}
