package tvtrader

import (
	"context"
	"math/big"
	"strings"
	"sync"
)

const assetPrecision = 8

// OrderBuilder prices market orders against the cached tickers. Taker fees
// are fetched from the exchange clients once and memoized, as exchanges
// treat them as static per API version.
type OrderBuilder struct {
	registry *Registry
	tickers  *TickerCaches
	logger   Logger

	feesMutex sync.Mutex
	fees      map[string]*big.Float
}

func NewOrderBuilder(
	registry *Registry,
	tickers *TickerCaches,
	logger Logger,
) *OrderBuilder {
	return &OrderBuilder{
		registry: registry,
		tickers:  tickers,
		logger:   logger,
		fees:     make(map[string]*big.Float),
	}
}

// CalculateQuantityAndRate fills in the order's quantity and rate so that
// quantity * bid * (1 + takerFee) <= spendLimit, with the rate pinned to
// the current bid. When the price feed is unavailable the order is left
// with zero quantity and rate, signaling "not ready" to downstream
// consumers rather than failing.
func (ob *OrderBuilder) CalculateQuantityAndRate(
	ctx context.Context,
	order *MarketOrder,
	spendLimit *big.Float,
) {
	if spendLimit == nil || spendLimit.Sign() <= 0 {
		ob.logger.Debugf(
			"no spend limit for order [%v]; leaving it not ready",
			order.ID,
		)
		return
	}

	bid, ok := ob.Bid(order.Exchange, order.Pair)
	if !ok {
		ob.logger.Debugf(
			"no ticker for market [%v] on exchange [%v]; "+
				"leaving order [%v] not ready",
			order.Pair.String(),
			order.Exchange,
			order.ID,
		)
		return
	}

	takerFee, err := ob.TakerFee(ctx, order.Exchange)
	if err != nil {
		ob.logger.Warningf(
			"could not get taker fee for exchange [%v]: [%v]",
			order.Exchange,
			err,
		)
		return
	}

	grossRate := new(big.Float).Mul(
		bid,
		new(big.Float).Add(big.NewFloat(1), takerFee),
	)

	quantity := new(big.Float).Quo(spendLimit, grossRate)

	// Truncation only ever shrinks the quantity, so the spend limit
	// invariant survives the precision cut.
	order.Quantity = truncateToPrecision(quantity, assetPrecision)
	order.Rate = bid
}

// Bid returns the cached bid price for the given market, or false when
// there is no ticker snapshot yet.
func (ob *OrderBuilder) Bid(exchange string, pair Pair) (*big.Float, bool) {
	ticker, ok := ob.tickers.Of(exchange).Ticker(pair)
	if !ok || ticker.Bid == nil || ticker.Bid.Sign() <= 0 {
		return nil, false
	}

	return ticker.Bid, true
}

// TakerFee returns the memoized taker fee of the given exchange, fetching
// it from the protocol client on first use.
func (ob *OrderBuilder) TakerFee(
	ctx context.Context,
	exchangeName string,
) (*big.Float, error) {
	ob.feesMutex.Lock()
	defer ob.feesMutex.Unlock()

	key := strings.ToLower(exchangeName)

	if fee, ok := ob.fees[key]; ok {
		return fee, nil
	}

	exchange, err := ob.registry.Exchange(exchangeName)
	if err != nil {
		return nil, err
	}

	fee, err := exchange.TakerFee(ctx)
	if err != nil {
		return nil, err
	}

	ob.fees[key] = fee

	return fee, nil
}

func truncateToPrecision(value *big.Float, precision int) *big.Float {
	power := new(big.Float).SetFloat64(1)
	for i := 0; i < precision; i++ {
		power.Mul(power, big.NewFloat(10))
	}

	scaled := new(big.Float).Mul(value, power)
	integer, _ := scaled.Int(nil)

	return new(big.Float).Quo(new(big.Float).SetInt(integer), power)
}
