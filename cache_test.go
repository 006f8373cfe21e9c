package tvtrader

import (
	"math/big"
	"testing"
)

func TestBalanceCache_EmptyDefaults(t *testing.T) {
	cache := NewBalanceCache()

	if balance := cache.Balance("ETH"); balance.Sign() != 0 {
		t.Errorf(
			"unexpected balance before first refresh\n"+
				"expected: [0]\n"+
				"actual:   [%v]",
			balance,
		)
	}

	if !cache.LastRefresh().IsZero() {
		t.Errorf("last refresh must be zero before first refresh")
	}
}

func TestBalanceCache_RefreshSwapsSnapshot(t *testing.T) {
	cache := NewBalanceCache()

	cache.Refresh(Balances{"ETH": big.NewFloat(2)})
	cache.Refresh(Balances{"LTC": big.NewFloat(5)})

	if balance := cache.Balance("ETH"); balance.Sign() != 0 {
		t.Errorf(
			"asset from the previous snapshot must be gone\n"+
				"expected: [0]\n"+
				"actual:   [%v]",
			balance,
		)
	}

	if balance := cache.Balance("LTC"); !floatEquals(balance, big.NewFloat(5)) {
		t.Errorf(
			"unexpected balance\n"+
				"expected: [5]\n"+
				"actual:   [%v]",
			balance,
		)
	}

	if cache.LastRefresh().IsZero() {
		t.Errorf("last refresh must be stamped after refresh")
	}
}

func TestTickerCache_Refresh(t *testing.T) {
	cache := NewTickerCache()

	pair := mustParsePair("BTC-ETH")

	if _, ok := cache.Ticker(pair); ok {
		t.Errorf("unexpected ticker before first refresh")
	}

	cache.Refresh(map[Pair]*Ticker{
		pair: {
			Pair: pair,
			Ask:  big.NewFloat(0.051),
			Bid:  big.NewFloat(0.05),
			Last: big.NewFloat(0.0505),
		},
	})

	ticker, ok := cache.Ticker(pair)
	if !ok {
		t.Fatalf("expected ticker after refresh")
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

func TestTickerCaches_CaseInsensitiveKeys(t *testing.T) {
	caches := NewTickerCaches()

	if caches.Of("Bittrex") != caches.Of("bittrex") {
		t.Errorf("exchange keys must be case-insensitive")
	}
}

func TestTransactionCache_SnapshotIsolation(t *testing.T) {
	cache := NewTransactionCache()

	cache.Refresh([]*Order{
		historyOrder(
			"1", "BTC-ETH", LimitBuy, "2021-03-01T10:00:00Z", 1, 1, 0,
		),
	})

	snapshot := cache.Orders()
	snapshot[0] = nil

	if cache.Orders()[0] == nil {
		t.Errorf("mutating a snapshot must not affect the cache")
	}
}
