package tvtrader

import (
	"math/big"
	"strings"
	"sync"
	"time"
)

// The caches below decouple decision logic from network polling: each one is
// written exclusively by its refresh job and read concurrently by everything
// else. Reads never trigger I/O.

// BalanceCache holds the last known balances of one account.
type BalanceCache struct {
	mutex       sync.RWMutex
	balances    Balances
	lastRefresh time.Time
}

func NewBalanceCache() *BalanceCache {
	return &BalanceCache{balances: make(Balances)}
}

// Refresh replaces the whole snapshot atomically and stamps the refresh
// time.
func (bc *BalanceCache) Refresh(balances Balances) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	bc.balances = balances
	bc.lastRefresh = time.Now()
}

// Balance returns the cached balance of the given asset, zero when the
// asset is unknown.
func (bc *BalanceCache) Balance(asset Asset) *big.Float {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()

	return bc.balances.BalanceOf(asset)
}

func (bc *BalanceCache) Balances() Balances {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()

	snapshot := make(Balances, len(bc.balances))
	for asset, balance := range bc.balances {
		snapshot[asset] = balance
	}

	return snapshot
}

func (bc *BalanceCache) LastRefresh() time.Time {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()

	return bc.lastRefresh
}

// TickerCache holds the last known tickers of one exchange, keyed by market
// pair.
type TickerCache struct {
	mutex       sync.RWMutex
	tickers     map[Pair]*Ticker
	lastRefresh time.Time
}

func NewTickerCache() *TickerCache {
	return &TickerCache{tickers: make(map[Pair]*Ticker)}
}

func (tc *TickerCache) Refresh(tickers map[Pair]*Ticker) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.tickers = tickers
	tc.lastRefresh = time.Now()
}

func (tc *TickerCache) Ticker(pair Pair) (*Ticker, bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	ticker, ok := tc.tickers[pair]

	return ticker, ok
}

func (tc *TickerCache) LastRefresh() time.Time {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return tc.lastRefresh
}

// TransactionCache holds the last known order history of one account.
type TransactionCache struct {
	mutex       sync.RWMutex
	orders      []*Order
	lastRefresh time.Time
}

func NewTransactionCache() *TransactionCache {
	return &TransactionCache{orders: make([]*Order, 0)}
}

func (tc *TransactionCache) Refresh(orders []*Order) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.orders = orders
	tc.lastRefresh = time.Now()
}

func (tc *TransactionCache) Orders() []*Order {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	snapshot := make([]*Order, len(tc.orders))
	copy(snapshot, tc.orders)

	return snapshot
}

func (tc *TransactionCache) LastRefresh() time.Time {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return tc.lastRefresh
}

// BalanceCaches groups the per-account balance caches, creating them on
// first use.
type BalanceCaches struct {
	mutex  sync.Mutex
	caches map[string]*BalanceCache
}

func NewBalanceCaches() *BalanceCaches {
	return &BalanceCaches{caches: make(map[string]*BalanceCache)}
}

func (bc *BalanceCaches) Of(accountID string) *BalanceCache {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	cache, ok := bc.caches[accountID]
	if !ok {
		cache = NewBalanceCache()
		bc.caches[accountID] = cache
	}

	return cache
}

// TickerCaches groups the per-exchange ticker caches.
type TickerCaches struct {
	mutex  sync.Mutex
	caches map[string]*TickerCache
}

func NewTickerCaches() *TickerCaches {
	return &TickerCaches{caches: make(map[string]*TickerCache)}
}

func (tc *TickerCaches) Of(exchange string) *TickerCache {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	key := strings.ToLower(exchange)

	cache, ok := tc.caches[key]
	if !ok {
		cache = NewTickerCache()
		tc.caches[key] = cache
	}

	return cache
}

// TransactionCaches groups the per-account transaction caches.
type TransactionCaches struct {
	mutex  sync.Mutex
	caches map[string]*TransactionCache
}

func NewTransactionCaches() *TransactionCaches {
	return &TransactionCaches{caches: make(map[string]*TransactionCache)}
}

func (tc *TransactionCaches) Of(accountID string) *TransactionCache {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	cache, ok := tc.caches[accountID]
	if !ok {
		cache = NewTransactionCache()
		tc.caches[accountID] = cache
	}

	return cache
}
