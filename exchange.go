package tvtrader

import (
	"context"
	"math/big"
	"strings"
)

// Exchange is the capability interface implemented once per supported
// exchange. Implementations build signed requests, send them through the
// injected transport and parse the exchange-specific JSON into the shared
// domain shapes, so callers stay exchange-agnostic beyond initial dispatch.
//
// Every operation returns a KindExchange error when the exchange reports a
// failure or the response cannot be parsed; callers must treat such errors
// as retryable and continue with the next account or order.
type Exchange interface {
	Name() string

	MarketSummaries(ctx context.Context) ([]*Ticker, error)

	Balances(ctx context.Context, credentials Credentials) (Balances, error)

	OpenOrders(ctx context.Context, account *Account) ([]*Order, error)

	OrderHistory(ctx context.Context, account *Account) ([]*Order, error)

	PlaceOrder(
		ctx context.Context,
		order *MarketOrder,
		credentials Credentials,
	) (string, error)

	CancelOrder(ctx context.Context, account *Account, orderID string) error

	TakerFee(ctx context.Context) (*big.Float, error)
}

// Registry maps exchange names to their protocol clients. The client set is
// fixed at construction time.
type Registry struct {
	exchanges []Exchange
}

func NewRegistry(exchanges ...Exchange) *Registry {
	return &Registry{exchanges: exchanges}
}

// Exchange resolves a client by name, case-insensitively. Unknown names
// yield a KindUnsupportedExchange error.
func (r *Registry) Exchange(name string) (Exchange, error) {
	for _, exchange := range r.exchanges {
		if strings.EqualFold(exchange.Name(), name) {
			return exchange, nil
		}
	}

	return nil, UnsupportedExchangeErrorf("unsupported exchange: [%v]", name)
}

// Exchanges returns all registered clients, used to fan polling out across
// every supported exchange.
func (r *Registry) Exchanges() []Exchange {
	exchanges := make([]Exchange, len(r.exchanges))
	copy(exchanges, r.exchanges)

	return exchanges
}
