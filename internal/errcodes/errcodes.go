// Package errcodes holds the stable numeric error codes the matching core
// and its validator attach to every rejection, so a consumer can switch on
// an integer instead of matching an error string. The -1013/-1100/-2010/
// -2011 family is taken directly from a well-known exchange's own public
// error-code surface; codes that surface doesn't define (OrderNotFound, the
// book-level liquidity/TIF rejections) are assigned the next free code in
// the same band.
package errcodes

const (
	InvalidSymbol         = -1100
	MissingParameter      = -1102
	InvalidParameter      = -1013
	NotionalBelowMinimum  = -1013
	TickSizeViolation     = -1013
	LotSizeViolation      = -1013
	MarketHalted          = -1013
	LimitMakerWouldCross  = -2010
	InsufficientLiquidity = -2011
	OrderNotFound         = -2013
	FokNotFullyFillable   = -2021
	IocExcessReject       = -2022
	RateLimited           = -1003
	ShardFull             = -1004
)

// Reason is the human-readable counterpart published alongside a Code in
// OrderRejected events and returned to API callers.
type Reason struct {
	Code    int
	Message string
}

var (
	ReasonInvalidSymbol         = Reason{InvalidSymbol, "INVALID_SYMBOL"}
	ReasonMissingParameter      = Reason{MissingParameter, "MISSING_PARAMETER"}
	ReasonInvalidParameter      = Reason{InvalidParameter, "INVALID_PARAMETER"}
	ReasonNotionalBelowMinimum  = Reason{NotionalBelowMinimum, "NOTIONAL_BELOW_MINIMUM"}
	ReasonTickSizeViolation     = Reason{TickSizeViolation, "TICK_SIZE_VIOLATION"}
	ReasonLotSizeViolation      = Reason{LotSizeViolation, "LOT_SIZE_VIOLATION"}
	ReasonMarketHalted          = Reason{MarketHalted, "MARKET_HALTED"}
	ReasonLimitMakerWouldCross  = Reason{LimitMakerWouldCross, "LIMIT_MAKER_WOULD_CROSS"}
	ReasonInsufficientLiquidity = Reason{InsufficientLiquidity, "INSUFFICIENT_LIQUIDITY"}
	ReasonOrderNotFound         = Reason{OrderNotFound, "ORDER_NOT_FOUND"}
	ReasonFokNotFullyFillable   = Reason{FokNotFullyFillable, "FOK_NOT_FULLY_FILLABLE"}
	ReasonIocExcessReject       = Reason{IocExcessReject, "IOC_EXCESS_REJECT"}
	ReasonRateLimited           = Reason{RateLimited, "RATE_LIMITED"}
	ReasonShardFull             = Reason{ShardFull, "SHARD_FULL"}
)
