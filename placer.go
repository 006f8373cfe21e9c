package tvtrader

import (
	"context"
	"fmt"
	"sync"
)

// OrderPlacer serializes order submission. Producers (open-orders watcher,
// stoploss engine, signal ingestion) enqueue concurrently; a single
// scheduler-driven Dispatch drains the queue in FIFO order, which keeps
// per-account submissions ordered and nonces monotonic.
type OrderPlacer struct {
	accounts        *AccountList
	registry        *Registry
	orderRepository OrderRepository
	events          EventService
	logger          Logger

	queueMutex sync.Mutex
	queue      []*MarketOrder
}

func NewOrderPlacer(
	accounts *AccountList,
	registry *Registry,
	orderRepository OrderRepository,
	events EventService,
	logger Logger,
) *OrderPlacer {
	return &OrderPlacer{
		accounts:        accounts,
		registry:        registry,
		orderRepository: orderRepository,
		events:          events,
		logger:          logger,
		queue:           make([]*MarketOrder, 0),
	}
}

// AddOrder enqueues a fully-built order for submission. Orders that are not
// ready (zero quantity or rate) are dropped with a warning; the sentinel
// means an upstream price feed was unavailable.
func (op *OrderPlacer) AddOrder(order *MarketOrder) {
	if order == nil || !order.Ready() {
		op.logger.Warningf(
			"dropping order that is not ready to place: [%v]",
			order,
		)
		return
	}

	op.queueMutex.Lock()
	defer op.queueMutex.Unlock()

	op.queue = append(op.queue, order)
}

func (op *OrderPlacer) QueueSize() int {
	op.queueMutex.Lock()
	defer op.queueMutex.Unlock()

	return len(op.queue)
}

// Dispatch drains the queue and submits each order to its exchange. A
// failing order is logged and recorded; it never blocks the orders behind
// it.
func (op *OrderPlacer) Dispatch(ctx context.Context) error {
	for _, order := range op.drain() {
		if err := op.place(ctx, order); err != nil {
			op.logger.Errorf(
				"could not place order [%v]: [%v]",
				order,
				err,
			)
			op.record(order, StatusFailed)
			continue
		}

		op.logger.Infof("order [%v] has been placed successfully", order)
		op.record(order, StatusPlaced)
	}

	return nil
}

func (op *OrderPlacer) drain() []*MarketOrder {
	op.queueMutex.Lock()
	defer op.queueMutex.Unlock()

	orders := op.queue
	op.queue = make([]*MarketOrder, 0)

	return orders
}

func (op *OrderPlacer) place(ctx context.Context, order *MarketOrder) error {
	account, ok := op.accounts.Account(order.Exchange, order.Account)
	if !ok {
		return fmt.Errorf(
			"unknown account [%v] on exchange [%v]",
			order.Account,
			order.Exchange,
		)
	}

	exchange, err := op.registry.Exchange(order.Exchange)
	if err != nil {
		return err
	}

	orderID, err := exchange.PlaceOrder(ctx, order, account.Credentials)
	if err != nil {
		return err
	}

	op.logger.Debugf(
		"exchange [%v] accepted order [%v] as [%v]",
		exchange.Name(),
		order.ID,
		orderID,
	)

	return nil
}

func (op *OrderPlacer) record(order *MarketOrder, status OrderStatus) {
	record := &OrderRecord{
		ID:       order.ID,
		Exchange: order.Exchange,
		Account:  order.Account,
		Pair:     order.Pair,
		Type:     order.Type,
		Quantity: order.Quantity,
		Rate:     order.Rate,
		Status:   status,
		Time:     order.Time,
	}

	if err := op.orderRepository.CreateOrderRecord(record); err != nil {
		op.logger.Errorf(
			"could not record order [%v]: [%v]",
			order.ID,
			err,
		)
	}

	if op.events != nil && status == StatusPlaced {
		op.events.Publish(NewOrderPlacedEvent(record))
	}
}
