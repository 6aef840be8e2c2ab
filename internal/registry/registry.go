// Package registry holds the trading-pair configuration every incoming
// order is checked against before it reaches the book: tick size, lot size,
// minimum notional, and whether the pair is currently open for trading.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// PairStatus is the trading state of a pair.
type PairStatus uint8

const (
	StatusTrading PairStatus = iota
	StatusHalted
	StatusDelisted
)

func (s PairStatus) String() string {
	switch s {
	case StatusTrading:
		return "TRADING"
	case StatusHalted:
		return "HALTED"
	case StatusDelisted:
		return "DELISTED"
	default:
		return "UNKNOWN"
	}
}

// PairConfig describes the trading rules for one symbol (§3 "Trading-pair
// registry entry"). It is passed by value out of the registry so callers
// never hold a pointer into internal map state.
type PairConfig struct {
	Symbol          values.Symbol
	BaseAsset       string
	QuoteAsset      string
	TickSize        values.Price
	LotSize         values.Quantity
	MinNotional     values.Price
	Status          PairStatus
}

// Registry is a concurrency-safe store of PairConfig, read far more often
// than written (every Submit consults it, configuration changes are rare).
type Registry struct {
	mu    sync.RWMutex
	pairs map[values.Symbol]PairConfig
}

// NewRegistry creates an empty trading-pair registry.
func NewRegistry() *Registry {
	return &Registry{pairs: make(map[values.Symbol]PairConfig)}
}

// Add registers a new pair, or replaces its configuration if already
// present.
func (r *Registry) Add(cfg PairConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[cfg.Symbol] = cfg
}

// Get returns a pair's configuration and whether it is registered.
func (r *Registry) Get(symbol values.Symbol) (PairConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.pairs[symbol]
	return cfg, ok
}

// List returns a snapshot of every registered pair, sorted by symbol.
func (r *Registry) List() []PairConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PairConfig, 0, len(r.pairs))
	for _, cfg := range r.pairs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SetStatus transitions a pair's trading status. Returns an error if the
// pair is not registered.
func (r *Registry) SetStatus(symbol values.Symbol, status PairStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.pairs[symbol]
	if !ok {
		return fmt.Errorf("pair %s not registered", symbol)
	}
	cfg.Status = status
	r.pairs[symbol] = cfg
	return nil
}
