package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishav/exchange-sim-kernel/internal/values"
)

func TestRegistry_AddGet(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("BTC-USD")
	require.False(t, ok)

	cfg := PairConfig{Symbol: "BTC-USD", BaseAsset: "BTC", QuoteAsset: "USD", Status: StatusTrading}
	r.Add(cfg)

	got, ok := r.Get("BTC-USD")
	require.True(t, ok)
	require.Equal(t, cfg, got)
}

func TestRegistry_List_SortedBySymbol(t *testing.T) {
	r := NewRegistry()
	r.Add(PairConfig{Symbol: "ETH-USD"})
	r.Add(PairConfig{Symbol: "BTC-USD"})
	r.Add(PairConfig{Symbol: "SOL-USD"})

	list := r.List()
	require.Len(t, list, 3)
	require.Equal(t, values.Symbol("BTC-USD"), list[0].Symbol)
	require.Equal(t, values.Symbol("ETH-USD"), list[1].Symbol)
	require.Equal(t, values.Symbol("SOL-USD"), list[2].Symbol)
}

func TestRegistry_SetStatus(t *testing.T) {
	r := NewRegistry()
	r.Add(PairConfig{Symbol: "BTC-USD", Status: StatusTrading})

	require.NoError(t, r.SetStatus("BTC-USD", StatusHalted))
	cfg, ok := r.Get("BTC-USD")
	require.True(t, ok)
	require.Equal(t, StatusHalted, cfg.Status)

	require.Error(t, r.SetStatus("NO-SUCH-PAIR", StatusHalted))
}
