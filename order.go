package tvtrader

import (
	"fmt"
	"math/big"
	"sort"
	"time"
)

type OrderType int

const (
	LimitBuy OrderType = iota
	LimitSell
)

func ParseOrderType(value string) (OrderType, error) {
	switch value {
	case "LIMIT_BUY":
		return LimitBuy, nil
	case "LIMIT_SELL":
		return LimitSell, nil
	}

	return -1, ParserErrorf("unknown order type: [%v]", value)
}

func (ot OrderType) String() string {
	switch ot {
	case LimitBuy:
		return "LIMIT_BUY"
	case LimitSell:
		return "LIMIT_SELL"
	default:
		panic("unknown order type")
	}
}

// Order is an exchange-reported order, either open or historical.
type Order struct {
	ID                string
	Pair              Pair
	Time              time.Time
	Type              OrderType
	Quantity          *big.Float
	QuantityRemaining *big.Float
	Commission        *big.Float
	Price             *big.Float
	Rate              *big.Float
}

// SortOrdersNewestFirst applies the natural order ordering: descending by
// timestamp. It is used to fold order history into the most recent unsold
// position.
func SortOrdersNewestFirst(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Time.After(orders[j].Time)
	})
}

// UnsoldPositionCost folds the order history of one market newest-to-oldest,
// summing buy price plus commission and bought quantity until a sell order
// delimits the previous position. The returned cost and quantity describe
// the orders since the last full sell.
func UnsoldPositionCost(orders []*Order, pair Pair) (*big.Float, *big.Float) {
	sorted := make([]*Order, len(orders))
	copy(sorted, orders)
	SortOrdersNewestFirst(sorted)

	cost := big.NewFloat(0)
	quantity := big.NewFloat(0)

	for _, order := range sorted {
		if order.Pair != pair {
			continue
		}

		if order.Type == LimitSell {
			break
		}

		cost.Add(cost, new(big.Float).Add(order.Price, order.Commission))
		quantity.Add(quantity, order.Quantity)
	}

	return cost, quantity
}

// MarketOrder is a locally constructed order. Quantity and rate stay at zero
// until the order builder fills them in; a zero value means the order is not
// ready to place, which is a sentinel rather than an error.
type MarketOrder struct {
	ID       ID
	Exchange string
	Account  string
	Pair     Pair
	Type     OrderType
	Quantity *big.Float
	Rate     *big.Float
	Time     time.Time
}

func NewMarketOrder(
	idService IDService,
	exchange string,
	account string,
	pair Pair,
	orderType OrderType,
) *MarketOrder {
	return &MarketOrder{
		ID:       idService.NewID(),
		Exchange: exchange,
		Account:  account,
		Pair:     pair,
		Type:     orderType,
		Quantity: big.NewFloat(0),
		Rate:     big.NewFloat(0),
		Time:     time.Now(),
	}
}

// Ready tells whether the order carries a non-zero quantity and rate and can
// be submitted to an exchange.
func (mo *MarketOrder) Ready() bool {
	return mo.Quantity != nil && mo.Quantity.Sign() > 0 &&
		mo.Rate != nil && mo.Rate.Sign() > 0
}

func (mo *MarketOrder) String() string {
	return fmt.Sprintf(
		"%v %v on %v/%v, quantity: %v, rate: %v",
		mo.Type,
		mo.Pair.String(),
		mo.Exchange,
		mo.Account,
		mo.Quantity.Text('f', 8),
		mo.Rate.Text('f', 8),
	)
}

type OrderStatus int

const (
	StatusPlaced OrderStatus = iota
	StatusFailed
)

func ParseOrderStatus(value string) (OrderStatus, error) {
	switch value {
	case "PLACED":
		return StatusPlaced, nil
	case "FAILED":
		return StatusFailed, nil
	}

	return -1, ParserErrorf("unknown order status: [%v]", value)
}

func (os OrderStatus) String() string {
	switch os {
	case StatusPlaced:
		return "PLACED"
	case StatusFailed:
		return "FAILED"
	default:
		panic("unknown order status")
	}
}

// OrderRecord is the audit trail entry persisted for every dispatched
// market order.
type OrderRecord struct {
	ID       ID
	Exchange string
	Account  string
	Pair     Pair
	Type     OrderType
	Quantity *big.Float
	Rate     *big.Float
	Status   OrderStatus
	Time     time.Time
}

type OrderRepository interface {
	CreateOrderRecord(record *OrderRecord) error
}
