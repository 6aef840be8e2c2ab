// Package validator checks an incoming order against its trading-pair
// configuration before the matching core ever sees it. It mirrors
// internal/risk/checker.go's sequential-checks-return-first-failure shape
// from the teacher, but every check is about order shape and pair rules
// rather than account risk.
package validator

import (
	"github.com/rishav/exchange-sim-kernel/internal/errcodes"
	"github.com/rishav/exchange-sim-kernel/internal/orderbook"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/registry"
	"github.com/rishav/exchange-sim-kernel/internal/values"
)

// ValidationError is returned by Validate when an order fails a check. Code
// is one of the stable integers in internal/errcodes.
type ValidationError struct {
	Code    int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func fail(reason errcodes.Reason) *ValidationError {
	return &ValidationError{Code: reason.Code, Message: reason.Message}
}

// Validate runs order through every check, in the order named in SPEC_FULL
// §4.D, returning the first failure or nil if the order may proceed to
// Submit. book may be nil only when the caller cannot supply one (Validate
// then skips the LimitMaker crossing check, which needs live book state);
// in production code a book always exists by the time an order is
// validated.
func Validate(order *orders.Order, cfg registry.PairConfig, book *orderbook.OrderBook) *ValidationError {
	if order.Quantity <= 0 {
		return fail(errcodes.ReasonInvalidParameter)
	}
	if !order.Quantity.IsAlignedTo(cfg.LotSize) {
		return fail(errcodes.ReasonLotSizeViolation)
	}

	if order.Type.RequiresPrice() {
		if order.Price <= 0 {
			return fail(errcodes.ReasonInvalidParameter)
		}
		if !order.Price.IsAlignedTo(cfg.TickSize) {
			return fail(errcodes.ReasonTickSizeViolation)
		}
	}

	if order.Type.RequiresStopPrice() && order.StopPrice <= 0 {
		return fail(errcodes.ReasonInvalidParameter)
	}

	if order.Price > 0 {
		if values.Notional(order.Price, order.Quantity) < cfg.MinNotional {
			return fail(errcodes.ReasonNotionalBelowMinimum)
		}
	}

	if cfg.Status != registry.StatusTrading {
		return fail(errcodes.ReasonMarketHalted)
	}

	if order.Type == orders.OrderTypeLimitMaker && book != nil {
		var bestOpposite *orderbook.PriceLevel
		if order.Side == orders.SideBuy {
			bestOpposite = book.GetBestAsk()
		} else {
			bestOpposite = book.GetBestBid()
		}
		exists := bestOpposite != nil
		var bestPrice values.Price
		if exists {
			bestPrice = bestOpposite.Price
		}
		if order.IsMarketable(bestPrice, exists) {
			return fail(errcodes.ReasonLimitMakerWouldCross)
		}
	}

	return nil
}
