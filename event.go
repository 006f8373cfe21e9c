package tvtrader

import "fmt"

// Event is a fire-and-forget notification about something the engine did.
// Event services must never block decision logic.
type Event struct {
	Exchange string
	Account  string
	Payload  string
}

func NewOrderPlacedEvent(record *OrderRecord) *Event {
	return &Event{
		Exchange: record.Exchange,
		Account:  record.Account,
		Payload: fmt.Sprintf(
			"Order has been placed:\n"+
				"- ID: %v\n"+
				"- Exchange: %v\n"+
				"- Market: %v\n"+
				"- Type: %v\n"+
				"- Quantity: %v\n"+
				"- Rate: %v",
			record.ID.String(),
			record.Exchange,
			record.Pair.String(),
			record.Type.String(),
			record.Quantity.Text('f', 8),
			record.Rate.Text('f', 8),
		),
	}
}

func NewStoplossTriggeredEvent(
	exchange string,
	account string,
	altcoin Asset,
	orderType OrderType,
) *Event {
	return &Event{
		Exchange: exchange,
		Account:  account,
		Payload: fmt.Sprintf(
			"Stoploss has been triggered:\n"+
				"- Exchange: %v\n"+
				"- Account: %v\n"+
				"- Coin: %v\n"+
				"- Order type: %v",
			exchange,
			account,
			string(altcoin),
			orderType.String(),
		),
	}
}

type EventService interface {
	Publish(event *Event)
}

// EventPublishingListener bridges the stoploss listener mechanism to an
// event service such as the pubsub or mail sink.
type EventPublishingListener struct {
	events EventService
}

func NewEventPublishingListener(events EventService) *EventPublishingListener {
	return &EventPublishingListener{events: events}
}

func (epl *EventPublishingListener) Update(
	exchange string,
	account string,
	altcoin Asset,
	orderType OrderType,
) {
	epl.events.Publish(
		NewStoplossTriggeredEvent(exchange, account, altcoin, orderType),
	)
}
