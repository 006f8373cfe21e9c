package tvtrader

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// discardLogger satisfies Logger in tests without producing output.
type discardLogger struct{}

func (dl *discardLogger) Debugf(format string, args ...interface{})   {}
func (dl *discardLogger) Infof(format string, args ...interface{})    {}
func (dl *discardLogger) Warningf(format string, args ...interface{}) {}
func (dl *discardLogger) Errorf(format string, args ...interface{})   {}
func (dl *discardLogger) Fatalf(format string, args ...interface{})   {}

func (dl *discardLogger) WithField(
	key string,
	value interface{},
) Logger {
	return dl
}

func (dl *discardLogger) WithFields(
	fields map[string]interface{},
) Logger {
	return dl
}

type testID string

func (ti testID) String() string {
	return string(ti)
}

// sequentialIDService issues deterministic IDs: id-1, id-2, ...
type sequentialIDService struct {
	counter int
}

func (sis *sequentialIDService) NewID() ID {
	sis.counter++
	return testID(fmt.Sprintf("id-%d", sis.counter))
}

func (sis *sequentialIDService) NewIDFromString(id string) (ID, error) {
	return testID(id), nil
}

// fakeExchange implements Exchange through overridable function fields.
// Unset fields return empty results.
type fakeExchange struct {
	name string

	marketSummariesFn func(ctx context.Context) ([]*Ticker, error)
	balancesFn        func(
		ctx context.Context,
		credentials Credentials,
	) (Balances, error)
	openOrdersFn   func(ctx context.Context, account *Account) ([]*Order, error)
	orderHistoryFn func(ctx context.Context, account *Account) ([]*Order, error)
	placeOrderFn   func(
		ctx context.Context,
		order *MarketOrder,
		credentials Credentials,
	) (string, error)
	cancelOrderFn func(
		ctx context.Context,
		account *Account,
		orderID string,
	) error
	takerFee *big.Float

	placedOrders    []*MarketOrder
	cancelledOrders []string
}

func newFakeExchange(name string) *fakeExchange {
	return &fakeExchange{
		name:     name,
		takerFee: big.NewFloat(0.0025),
	}
}

func (fe *fakeExchange) Name() string {
	return fe.name
}

func (fe *fakeExchange) MarketSummaries(
	ctx context.Context,
) ([]*Ticker, error) {
	if fe.marketSummariesFn != nil {
		return fe.marketSummariesFn(ctx)
	}
	return nil, nil
}

func (fe *fakeExchange) Balances(
	ctx context.Context,
	credentials Credentials,
) (Balances, error) {
	if fe.balancesFn != nil {
		return fe.balancesFn(ctx, credentials)
	}
	return make(Balances), nil
}

func (fe *fakeExchange) OpenOrders(
	ctx context.Context,
	account *Account,
) ([]*Order, error) {
	if fe.openOrdersFn != nil {
		return fe.openOrdersFn(ctx, account)
	}
	return nil, nil
}

func (fe *fakeExchange) OrderHistory(
	ctx context.Context,
	account *Account,
) ([]*Order, error) {
	if fe.orderHistoryFn != nil {
		return fe.orderHistoryFn(ctx, account)
	}
	return nil, nil
}

func (fe *fakeExchange) PlaceOrder(
	ctx context.Context,
	order *MarketOrder,
	credentials Credentials,
) (string, error) {
	fe.placedOrders = append(fe.placedOrders, order)

	if fe.placeOrderFn != nil {
		return fe.placeOrderFn(ctx, order, credentials)
	}
	return "exchange-order-id", nil
}

func (fe *fakeExchange) CancelOrder(
	ctx context.Context,
	account *Account,
	orderID string,
) error {
	if fe.cancelOrderFn != nil {
		if err := fe.cancelOrderFn(ctx, account, orderID); err != nil {
			return err
		}
	}

	fe.cancelledOrders = append(fe.cancelledOrders, orderID)

	return nil
}

func (fe *fakeExchange) TakerFee(ctx context.Context) (*big.Float, error) {
	return fe.takerFee, nil
}

// recordingRepository collects order records in memory.
type recordingRepository struct {
	mutex   sync.Mutex
	records []*OrderRecord
}

func (rr *recordingRepository) CreateOrderRecord(record *OrderRecord) error {
	rr.mutex.Lock()
	defer rr.mutex.Unlock()

	rr.records = append(rr.records, record)

	return nil
}

func (rr *recordingRepository) orderRecords() []*OrderRecord {
	rr.mutex.Lock()
	defer rr.mutex.Unlock()

	snapshot := make([]*OrderRecord, len(rr.records))
	copy(snapshot, rr.records)

	return snapshot
}

type recordingEventService struct {
	events []*Event
}

func (res *recordingEventService) Publish(event *Event) {
	res.events = append(res.events, event)
}

func testAccount(exchange, name string) *Account {
	return &Account{
		Exchange:           exchange,
		Name:               name,
		MainAsset:          "BTC",
		BuyLimit:           big.NewFloat(100),
		StoplossPercent:    big.NewFloat(10),
		MinimumGainPercent: big.NewFloat(1),
		Credentials: Credentials{
			Key:    "test-key",
			Secret: "test-secret",
		},
	}
}

func mustParsePair(value string) Pair {
	pair, err := ParsePair(value)
	if err != nil {
		panic(err)
	}

	return pair
}

func floatEquals(a, b *big.Float) bool {
	return a.Cmp(b) == 0
}
