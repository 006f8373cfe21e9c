package tvtrader

import "context"

// CacheRefresher owns the polling side of the caches: it is their single
// writer. Decision logic only ever reads the snapshots.
type CacheRefresher struct {
	registry     *Registry
	accounts     *AccountList
	balances     *BalanceCaches
	tickers      *TickerCaches
	transactions *TransactionCaches
	logger       Logger
}

func NewCacheRefresher(
	registry *Registry,
	accounts *AccountList,
	balances *BalanceCaches,
	tickers *TickerCaches,
	transactions *TransactionCaches,
	logger Logger,
) *CacheRefresher {
	return &CacheRefresher{
		registry:     registry,
		accounts:     accounts,
		balances:     balances,
		tickers:      tickers,
		transactions: transactions,
		logger:       logger,
	}
}

// RefreshTickers polls the market summaries of every registered exchange.
// A failing exchange keeps its previous snapshot.
func (cr *CacheRefresher) RefreshTickers(ctx context.Context) error {
	for _, exchange := range cr.registry.Exchanges() {
		summaries, err := exchange.MarketSummaries(ctx)
		if err != nil {
			cr.logger.Errorf(
				"could not refresh tickers of exchange [%v]: [%v]",
				exchange.Name(),
				err,
			)
			continue
		}

		snapshot := make(map[Pair]*Ticker, len(summaries))
		for _, ticker := range summaries {
			snapshot[ticker.Pair] = ticker
		}

		cr.tickers.Of(exchange.Name()).Refresh(snapshot)

		cr.logger.Debugf(
			"refreshed [%v] tickers of exchange [%v]",
			len(snapshot),
			exchange.Name(),
		)
	}

	return nil
}

// RefreshAssets polls balances and order history of every account. A
// failing account keeps its previous snapshots and does not affect the
// others.
func (cr *CacheRefresher) RefreshAssets(ctx context.Context) error {
	for _, account := range cr.accounts.Accounts() {
		exchange, err := cr.registry.Exchange(account.Exchange)
		if err != nil {
			cr.logger.Errorf(
				"could not resolve exchange of account [%v]: [%v]",
				account.ID(),
				err,
			)
			continue
		}

		balances, err := exchange.Balances(ctx, account.Credentials)
		if err != nil {
			cr.logger.Errorf(
				"could not refresh balances of account [%v]: [%v]",
				account.ID(),
				err,
			)
			continue
		}

		cr.balances.Of(account.ID()).Refresh(balances)

		history, err := exchange.OrderHistory(ctx, account)
		if err != nil {
			cr.logger.Errorf(
				"could not refresh order history of account [%v]: [%v]",
				account.ID(),
				err,
			)
			continue
		}

		cr.transactions.Of(account.ID()).Refresh(history)
	}

	return nil
}
