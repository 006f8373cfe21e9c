package tvtrader

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// StoplossListener is notified whenever a watcher triggers a liquidation
// order. Listeners are a pure observer mechanism; they take no part in the
// decision and must not block it.
type StoplossListener interface {
	Update(exchange, account string, altcoin Asset, orderType OrderType)
}

// StoplossWatcher tracks one open position. In trailing mode the high-water
// mark only ever rises, dragging the trigger up with it; in fixed mode the
// trigger stays at boughtPrice reduced by the stoploss percentage.
type StoplossWatcher struct {
	Account *Account
	Alt     Asset

	BoughtPrice *big.Float
	HighWater   *big.Float
	Trigger     *big.Float
	Armed       bool
}

func (sw *StoplossWatcher) pair() Pair {
	return Pair{Main: sw.Account.MainAsset, Alt: sw.Alt}
}

func (sw *StoplossWatcher) key() string {
	return sw.Account.ID() + "/" + string(sw.Alt)
}

// StoplossEngine maintains one watcher per open position and liquidates
// positions whose price falls through their trigger.
type StoplossEngine struct {
	registry     *Registry
	accounts     *AccountList
	balances     *BalanceCaches
	tickers      *TickerCaches
	transactions *TransactionCaches
	placer       *OrderPlacer
	idService    IDService
	logger       Logger

	watchersMutex sync.Mutex
	watchers      map[string]*StoplossWatcher

	listenersMutex sync.Mutex
	listeners      []StoplossListener
}

func NewStoplossEngine(
	registry *Registry,
	accounts *AccountList,
	balances *BalanceCaches,
	tickers *TickerCaches,
	transactions *TransactionCaches,
	placer *OrderPlacer,
	idService IDService,
	logger Logger,
) *StoplossEngine {
	return &StoplossEngine{
		registry:     registry,
		accounts:     accounts,
		balances:     balances,
		tickers:      tickers,
		transactions: transactions,
		placer:       placer,
		idService:    idService,
		logger:       logger,
		watchers:     make(map[string]*StoplossWatcher),
	}
}

func (se *StoplossEngine) RegisterListener(listener StoplossListener) {
	se.listenersMutex.Lock()
	defer se.listenersMutex.Unlock()

	se.listeners = append(se.listeners, listener)
}

// StartProtection verifies every account against its exchange and arms a
// watcher for each currently-held non-zero alt-coin balance. An account
// that fails verification does not get protection; the others are
// unaffected.
func (se *StoplossEngine) StartProtection(ctx context.Context) error {
	for _, account := range se.accounts.Accounts() {
		if err := se.startAccountProtection(ctx, account); err != nil {
			se.logger.Errorf(
				"could not start stoploss protection "+
					"of account [%v]: [%v]",
				account.ID(),
				err,
			)
		}
	}

	return nil
}

func (se *StoplossEngine) startAccountProtection(
	ctx context.Context,
	account *Account,
) error {
	exchange, err := se.registry.Exchange(account.Exchange)
	if err != nil {
		return err
	}

	balances, err := exchange.Balances(ctx, account.Credentials)
	if err != nil {
		return UnverifiedErrorf(
			err,
			"could not verify credentials of account [%v]",
			account.ID(),
		)
	}

	history, err := exchange.OrderHistory(ctx, account)
	if err != nil {
		return fmt.Errorf("could not fetch order history: [%v]", err)
	}

	for asset, balance := range balances {
		if asset == account.MainAsset || balance.Sign() <= 0 {
			continue
		}

		se.watchPosition(account, asset, history)
	}

	return nil
}

// watchPosition arms a watcher for one position, deriving the cost basis
// from the orders since the last full sell.
func (se *StoplossEngine) watchPosition(
	account *Account,
	alt Asset,
	history []*Order,
) {
	pair := Pair{Main: account.MainAsset, Alt: alt}

	cost, quantity := UnsoldPositionCost(history, pair)
	if quantity.Sign() <= 0 {
		se.logger.Warningf(
			"no buy history for position [%v] of account [%v]; "+
				"cannot arm stoploss protection",
			string(alt),
			account.ID(),
		)
		return
	}

	boughtPrice := new(big.Float).Quo(cost, quantity)

	watcher := &StoplossWatcher{
		Account:     account,
		Alt:         alt,
		BoughtPrice: boughtPrice,
		Armed:       true,
	}

	if account.TrailingStoploss() {
		watcher.HighWater = boughtPrice
		watcher.Trigger = stoplossTrigger(
			boughtPrice,
			account.TrailingStoplossPercent,
		)
	} else {
		watcher.Trigger = stoplossTrigger(
			boughtPrice,
			account.StoplossPercent,
		)
	}

	se.watchersMutex.Lock()
	se.watchers[watcher.key()] = watcher
	se.watchersMutex.Unlock()

	se.logger.Infof(
		"stoploss protection armed for position [%v] of account [%v], "+
			"bought price: [%v], trigger: [%v]",
		string(alt),
		account.ID(),
		boughtPrice.Text('f', 8),
		watcher.Trigger.Text('f', 8),
	)
}

// Check runs one protection cycle over all accounts. Failures are isolated
// per account.
func (se *StoplossEngine) Check(ctx context.Context) error {
	for _, account := range se.accounts.Accounts() {
		if err := se.checkAccount(ctx, account); err != nil {
			se.logger.Errorf(
				"could not check stoploss of account [%v]: [%v]",
				account.ID(),
				err,
			)
		}
	}

	return nil
}

func (se *StoplossEngine) checkAccount(
	ctx context.Context,
	account *Account,
) error {
	balanceCache := se.balances.Of(account.ID())
	tickerCache := se.tickers.Of(account.Exchange)

	se.watchNewPositions(account, balanceCache)

	for _, watcher := range se.accountWatchers(account) {
		balance := balanceCache.Balance(watcher.Alt)
		if balance.Sign() <= 0 {
			se.removeWatcher(watcher)
			se.logger.Infof(
				"position [%v] of account [%v] has been liquidated; "+
					"stoploss protection removed",
				string(watcher.Alt),
				account.ID(),
			)
			continue
		}

		ticker, ok := tickerCache.Ticker(watcher.pair())
		if !ok {
			se.logger.Debugf(
				"no ticker for market [%v] on exchange [%v]; "+
					"skipping stoploss check",
				watcher.pair().String(),
				account.Exchange,
			)
			continue
		}

		se.checkWatcher(watcher, ticker.Bid, balance)
	}

	return nil
}

func (se *StoplossEngine) checkWatcher(
	watcher *StoplossWatcher,
	bid *big.Float,
	balance *big.Float,
) {
	account := watcher.Account

	if account.TrailingStoploss() && bid.Cmp(watcher.HighWater) > 0 {
		watcher.HighWater = bid
		watcher.Trigger = stoplossTrigger(
			bid,
			account.TrailingStoplossPercent,
		)

		se.logger.Debugf(
			"raised stoploss high-water mark for position [%v] "+
				"of account [%v] to [%v], trigger: [%v]",
			string(watcher.Alt),
			account.ID(),
			watcher.HighWater.Text('f', 8),
			watcher.Trigger.Text('f', 8),
		)
	}

	if !watcher.Armed || bid.Cmp(watcher.Trigger) > 0 {
		return
	}

	order := NewMarketOrder(
		se.idService,
		account.Exchange,
		account.Name,
		watcher.pair(),
		LimitSell,
	)
	order.Quantity = balance
	order.Rate = bid

	se.placer.AddOrder(order)

	// Disarm until the position balance reaches zero so that one trigger
	// emits exactly one liquidation order.
	watcher.Armed = false

	se.logger.Infof(
		"stoploss triggered for position [%v] of account [%v] "+
			"at price [%v], trigger was [%v]",
		string(watcher.Alt),
		account.ID(),
		bid.Text('f', 8),
		watcher.Trigger.Text('f', 8),
	)

	se.notifyListeners(account.Exchange, account.Name, watcher.Alt, LimitSell)
}

// watchNewPositions arms watchers for positions that appeared in the
// balance cache after startup, pricing them from the transaction cache.
func (se *StoplossEngine) watchNewPositions(
	account *Account,
	balanceCache *BalanceCache,
) {
	history := se.transactions.Of(account.ID()).Orders()

	for asset, balance := range balanceCache.Balances() {
		if asset == account.MainAsset || balance.Sign() <= 0 {
			continue
		}

		if se.hasWatcher(account, asset) {
			continue
		}

		se.watchPosition(account, asset, history)
	}
}

func (se *StoplossEngine) accountWatchers(
	account *Account,
) []*StoplossWatcher {
	se.watchersMutex.Lock()
	defer se.watchersMutex.Unlock()

	watchers := make([]*StoplossWatcher, 0)

	for _, watcher := range se.watchers {
		if watcher.Account.ID() == account.ID() {
			watchers = append(watchers, watcher)
		}
	}

	return watchers
}

func (se *StoplossEngine) hasWatcher(account *Account, alt Asset) bool {
	se.watchersMutex.Lock()
	defer se.watchersMutex.Unlock()

	_, ok := se.watchers[account.ID()+"/"+string(alt)]

	return ok
}

func (se *StoplossEngine) removeWatcher(watcher *StoplossWatcher) {
	se.watchersMutex.Lock()
	defer se.watchersMutex.Unlock()

	delete(se.watchers, watcher.key())
}

// notifyListeners invokes listeners synchronously. A panicking listener is
// logged and the remaining listeners still run.
func (se *StoplossEngine) notifyListeners(
	exchange string,
	account string,
	altcoin Asset,
	orderType OrderType,
) {
	se.listenersMutex.Lock()
	listeners := make([]StoplossListener, len(se.listeners))
	copy(listeners, se.listeners)
	se.listenersMutex.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					se.logger.Errorf(
						"stoploss listener panicked: [%v]",
						recovered,
					)
				}
			}()

			listener.Update(exchange, account, altcoin, orderType)
		}()
	}
}

func stoplossTrigger(price, percent *big.Float) *big.Float {
	fraction := new(big.Float).Quo(percent, big.NewFloat(100))

	return new(big.Float).Mul(
		price,
		new(big.Float).Sub(big.NewFloat(1), fraction),
	)
}
