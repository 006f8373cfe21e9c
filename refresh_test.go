package tvtrader

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

func TestCacheRefresher_RefreshTickers(t *testing.T) {
	exchange := newFakeExchange("bittrex")
	pair := mustParsePair("BTC-ETH")

	exchange.marketSummariesFn = func(
		ctx context.Context,
	) ([]*Ticker, error) {
		return []*Ticker{
			{
				Pair: pair,
				Ask:  big.NewFloat(0.051),
				Bid:  big.NewFloat(0.05),
				Last: big.NewFloat(0.0505),
			},
		}, nil
	}

	tickers := NewTickerCaches()

	refresher := NewCacheRefresher(
		NewRegistry(exchange),
		NewAccountList(),
		NewBalanceCaches(),
		tickers,
		NewTransactionCaches(),
		&discardLogger{},
	)

	if err := refresher.RefreshTickers(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	ticker, ok := tickers.Of("bittrex").Ticker(pair)
	if !ok {
		t.Fatalf("expected a refreshed ticker")
	}

	if !floatEquals(ticker.Bid, big.NewFloat(0.05)) {
		t.Errorf(
			"unexpected bid\n"+
				"expected: [0.05]\n"+
				"actual:   [%v]",
			ticker.Bid,
		)
	}
}

func TestCacheRefresher_FailingExchangeKeepsSnapshot(t *testing.T) {
	exchange := newFakeExchange("bittrex")
	pair := mustParsePair("BTC-ETH")

	tickers := NewTickerCaches()
	tickers.Of("bittrex").Refresh(map[Pair]*Ticker{
		pair: {
			Pair: pair,
			Ask:  big.NewFloat(0.051),
			Bid:  big.NewFloat(0.05),
			Last: big.NewFloat(0.0505),
		},
	})

	exchange.marketSummariesFn = func(
		ctx context.Context,
	) ([]*Ticker, error) {
		return nil, errors.New("exchange unavailable")
	}

	refresher := NewCacheRefresher(
		NewRegistry(exchange),
		NewAccountList(),
		NewBalanceCaches(),
		tickers,
		NewTransactionCaches(),
		&discardLogger{},
	)

	if err := refresher.RefreshTickers(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if _, ok := tickers.Of("bittrex").Ticker(pair); !ok {
		t.Errorf("a failing exchange must keep its previous snapshot")
	}
}

func TestCacheRefresher_RefreshAssets(t *testing.T) {
	exchange := newFakeExchange("bittrex")
	account := testAccount("bittrex", "main")

	exchange.balancesFn = func(
		ctx context.Context,
		credentials Credentials,
	) (Balances, error) {
		return Balances{"ETH": big.NewFloat(2)}, nil
	}
	exchange.orderHistoryFn = func(
		ctx context.Context,
		account *Account,
	) ([]*Order, error) {
		return boughtHistory(0.05), nil
	}

	balances := NewBalanceCaches()
	transactions := NewTransactionCaches()

	refresher := NewCacheRefresher(
		NewRegistry(exchange),
		NewAccountList(account),
		balances,
		NewTickerCaches(),
		transactions,
		&discardLogger{},
	)

	if err := refresher.RefreshAssets(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	balance := balances.Of(account.ID()).Balance("ETH")
	if !floatEquals(balance, big.NewFloat(2)) {
		t.Errorf(
			"unexpected balance\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			balance,
		)
	}

	if len(transactions.Of(account.ID()).Orders()) != 1 {
		t.Errorf("expected the order history to be cached")
	}
}
