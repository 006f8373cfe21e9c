package tvtrader

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

func placerFixture() (*OrderPlacer, *fakeExchange, *recordingRepository,
	*recordingEventService) {
	exchange := newFakeExchange("bittrex")
	registry := NewRegistry(exchange)
	accounts := NewAccountList(testAccount("bittrex", "main"))
	repository := &recordingRepository{}
	events := &recordingEventService{}

	placer := NewOrderPlacer(
		accounts,
		registry,
		repository,
		events,
		&discardLogger{},
	)

	return placer, exchange, repository, events
}

func readyOrder(idService IDService, account string) *MarketOrder {
	order := NewMarketOrder(
		idService,
		"bittrex",
		account,
		mustParsePair("BTC-ETH"),
		LimitBuy,
	)
	order.Quantity = big.NewFloat(10)
	order.Rate = big.NewFloat(0.05)

	return order
}

func TestOrderPlacer_DispatchFIFO(t *testing.T) {
	placer, exchange, repository, events := placerFixture()
	idService := &sequentialIDService{}

	first := readyOrder(idService, "main")
	second := readyOrder(idService, "main")

	placer.AddOrder(first)
	placer.AddOrder(second)

	if placer.QueueSize() != 2 {
		t.Fatalf(
			"unexpected queue size\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			placer.QueueSize(),
		)
	}

	if err := placer.Dispatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if placer.QueueSize() != 0 {
		t.Errorf("queue must be empty after dispatch")
	}

	if len(exchange.placedOrders) != 2 {
		t.Fatalf(
			"unexpected placed orders count\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			len(exchange.placedOrders),
		)
	}

	if exchange.placedOrders[0] != first || exchange.placedOrders[1] != second {
		t.Errorf("orders must be placed in FIFO order")
	}

	records := repository.orderRecords()
	if len(records) != 2 {
		t.Fatalf(
			"unexpected records count\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			len(records),
		)
	}

	for _, record := range records {
		if record.Status != StatusPlaced {
			t.Errorf(
				"unexpected record status\n"+
					"expected: [%v]\n"+
					"actual:   [%v]",
				StatusPlaced,
				record.Status,
			)
		}
	}

	if len(events.events) != 2 {
		t.Errorf(
			"unexpected events count\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			len(events.events),
		)
	}
}

func TestOrderPlacer_DropsNotReadyOrders(t *testing.T) {
	placer, _, _, _ := placerFixture()

	placer.AddOrder(NewMarketOrder(
		&sequentialIDService{},
		"bittrex",
		"main",
		mustParsePair("BTC-ETH"),
		LimitBuy,
	))

	if placer.QueueSize() != 0 {
		t.Errorf("not-ready order must not be enqueued")
	}
}

func TestOrderPlacer_FailureIsolation(t *testing.T) {
	placer, exchange, repository, events := placerFixture()
	idService := &sequentialIDService{}

	failing := readyOrder(idService, "main")
	succeeding := readyOrder(idService, "main")

	exchange.placeOrderFn = func(
		ctx context.Context,
		order *MarketOrder,
		credentials Credentials,
	) (string, error) {
		if order == failing {
			return "", errors.New("insufficient funds")
		}
		return "exchange-order-id", nil
	}

	placer.AddOrder(failing)
	placer.AddOrder(succeeding)

	if err := placer.Dispatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	records := repository.orderRecords()
	if len(records) != 2 {
		t.Fatalf(
			"unexpected records count\n"+
				"expected: [2]\n"+
				"actual:   [%v]",
			len(records),
		)
	}

	if records[0].Status != StatusFailed {
		t.Errorf(
			"unexpected first record status\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			StatusFailed,
			records[0].Status,
		)
	}

	if records[1].Status != StatusPlaced {
		t.Errorf(
			"unexpected second record status\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			StatusPlaced,
			records[1].Status,
		)
	}

	// Only the successful order produces an event.
	if len(events.events) != 1 {
		t.Errorf(
			"unexpected events count\n"+
				"expected: [1]\n"+
				"actual:   [%v]",
			len(events.events),
		)
	}
}

func TestOrderPlacer_UnknownAccount(t *testing.T) {
	placer, exchange, repository, _ := placerFixture()

	placer.AddOrder(readyOrder(&sequentialIDService{}, "ghost"))

	if err := placer.Dispatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if len(exchange.placedOrders) != 0 {
		t.Errorf("order of an unknown account must not reach the exchange")
	}

	records := repository.orderRecords()
	if len(records) != 1 || records[0].Status != StatusFailed {
		t.Errorf("order of an unknown account must be recorded as failed")
	}
}
