package tvtrader

import (
	"context"
	"math/big"
)

// GainChecker validates that a candidate sell clears the account's minimum
// gain: the projected proceeds of liquidating the most recent unsold
// position at the current bid, after the taker fee, must gain at least
// minimumGain percent over the cost basis. A gain exactly equal to the
// minimum passes. Buys carry no position to measure against and pass.
type GainChecker struct {
	transactions *TransactionCaches
	tickers      *TickerCaches
	builder      *OrderBuilder
	logger       Logger
}

func NewGainChecker(
	transactions *TransactionCaches,
	tickers *TickerCaches,
	builder *OrderBuilder,
	logger Logger,
) *GainChecker {
	return &GainChecker{
		transactions: transactions,
		tickers:      tickers,
		builder:      builder,
		logger:       logger,
	}
}

func (gc *GainChecker) Check(
	ctx context.Context,
	account *Account,
	pair Pair,
	orderType OrderType,
) (bool, error) {
	if orderType == LimitBuy {
		return true, nil
	}

	history := gc.transactions.Of(account.ID()).Orders()

	cost, quantity := UnsoldPositionCost(history, pair)
	if quantity.Sign() <= 0 {
		gc.logger.Debugf(
			"no unsold position on market [%v] for account [%v]; "+
				"nothing to sell at a gain",
			pair.String(),
			account.ID(),
		)
		return false, nil
	}

	boughtPrice := new(big.Float).Quo(cost, quantity)

	ticker, ok := gc.tickers.Of(account.Exchange).Ticker(pair)
	if !ok || ticker.Bid == nil || ticker.Bid.Sign() <= 0 {
		gc.logger.Debugf(
			"no ticker for market [%v] on exchange [%v]; "+
				"cannot project gain",
			pair.String(),
			account.Exchange,
		)
		return false, nil
	}

	takerFee, err := gc.builder.TakerFee(ctx, account.Exchange)
	if err != nil {
		return false, err
	}

	proceeds := new(big.Float).Mul(
		ticker.Bid,
		new(big.Float).Sub(big.NewFloat(1), takerFee),
	)

	gainPercent := new(big.Float).Mul(
		new(big.Float).Quo(
			new(big.Float).Sub(proceeds, boughtPrice),
			boughtPrice,
		),
		big.NewFloat(100),
	)

	return gainPercent.Cmp(account.MinimumGainPercent) >= 0, nil
}
