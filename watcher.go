package tvtrader

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

// OpenOrdersWatcher cancels unfilled orders that outlived the expiration
// window. Such orders are assumed stale (the price moved), so with the
// retry flag set a replacement is re-priced against the current market and
// enqueued instead of resubmitting the stale rate.
type OpenOrdersWatcher struct {
	registry   *Registry
	accounts   *AccountList
	builder    *OrderBuilder
	placer     *OrderPlacer
	idService  IDService
	expiration time.Duration
	retryOrder bool
	logger     Logger
}

func NewOpenOrdersWatcher(
	registry *Registry,
	accounts *AccountList,
	builder *OrderBuilder,
	placer *OrderPlacer,
	idService IDService,
	expiration time.Duration,
	retryOrder bool,
	logger Logger,
) *OpenOrdersWatcher {
	return &OpenOrdersWatcher{
		registry:   registry,
		accounts:   accounts,
		builder:    builder,
		placer:     placer,
		idService:  idService,
		expiration: expiration,
		retryOrder: retryOrder,
		logger:     logger,
	}
}

// Check scans every account of every registered exchange. A failure on one
// account is logged and does not abort the scan of the others.
func (w *OpenOrdersWatcher) Check(ctx context.Context) error {
	for _, exchange := range w.registry.Exchanges() {
		for _, account := range w.accounts.AccountsOf(exchange.Name()) {
			if err := w.checkAccount(ctx, exchange, account); err != nil {
				w.logger.Errorf(
					"could not check open orders of account [%v]: [%v]",
					account.ID(),
					err,
				)
			}
		}
	}

	return nil
}

func (w *OpenOrdersWatcher) checkAccount(
	ctx context.Context,
	exchange Exchange,
	account *Account,
) error {
	openOrders, err := exchange.OpenOrders(ctx, account)
	if err != nil {
		return fmt.Errorf("could not fetch open orders: [%v]", err)
	}

	expirationDate := time.Now().Add(-w.expiration)

	for _, order := range openOrders {
		if !order.Time.Before(expirationDate) {
			continue
		}

		if err := exchange.CancelOrder(ctx, account, order.ID); err != nil {
			// Leave the order as-is; the next cycle retries.
			w.logger.Warningf(
				"could not cancel expired order [%v] "+
					"of account [%v]: [%v]",
				order.ID,
				account.ID(),
				err,
			)
			continue
		}

		w.logger.Infof(
			"cancelled expired order [%v] of account [%v]",
			order.ID,
			account.ID(),
		)

		if w.retryOrder {
			w.requeueOrder(ctx, exchange, account, order)
		}
	}

	return nil
}

// requeueOrder rebuilds a cancelled order against the current market. The
// spend limit of the replacement is what selling the remaining quantity at
// the current bid would yield after the taker fee.
func (w *OpenOrdersWatcher) requeueOrder(
	ctx context.Context,
	exchange Exchange,
	account *Account,
	expired *Order,
) {
	bid, ok := w.builder.Bid(exchange.Name(), expired.Pair)
	if !ok {
		w.logger.Warningf(
			"no ticker for market [%v] on exchange [%v]; "+
				"not requeueing order [%v]",
			expired.Pair.String(),
			exchange.Name(),
			expired.ID,
		)
		return
	}

	takerFee, err := w.builder.TakerFee(ctx, exchange.Name())
	if err != nil {
		w.logger.Warningf(
			"could not get taker fee for exchange [%v]: [%v]",
			exchange.Name(),
			err,
		)
		return
	}

	spendLimit := new(big.Float).Mul(
		new(big.Float).Mul(bid, expired.QuantityRemaining),
		new(big.Float).Sub(big.NewFloat(1), takerFee),
	)

	replacement := NewMarketOrder(
		w.idService,
		exchange.Name(),
		account.Name,
		expired.Pair,
		expired.Type,
	)

	w.builder.CalculateQuantityAndRate(ctx, replacement, spendLimit)

	if !replacement.Ready() {
		w.logger.Warningf(
			"replacement for order [%v] could not be priced; dropping it",
			expired.ID,
		)
		return
	}

	w.placer.AddOrder(replacement)

	w.logger.Infof(
		"requeued replacement [%v] for expired order [%v]",
		replacement,
		expired.ID,
	)
}
