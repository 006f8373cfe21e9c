package tvtrader

import (
	"context"
	"fmt"
	"strings"
)

// MailClient exposes the inbox holding the trading signal mails, already
// filtered to the expected sender. Mail protocol details live behind this
// interface.
type MailClient interface {
	FetchSubjectLines(ctx context.Context) ([]string, error)
}

// OrderLine is a trading signal parsed from one mail subject line.
type OrderLine struct {
	Exchange string
	Account  string
	Type     OrderType
	Pair     Pair
}

func (ol *OrderLine) String() string {
	return fmt.Sprintf(
		"%v %v on %v/%v",
		ol.Type,
		ol.Pair.String(),
		ol.Exchange,
		ol.Account,
	)
}

// ParseOrderLine parses a signal subject line of the form
// "exchange:account:side:MAIN-ALT", e.g. "bittrex:main:buy:BTC-ETH".
// Anything else yields no order, which the caller skips silently.
func ParseOrderLine(line string) (*OrderLine, bool) {
	fields := strings.Split(strings.TrimSpace(line), ":")
	if len(fields) != 4 {
		return nil, false
	}

	exchange := strings.TrimSpace(fields[0])
	account := strings.TrimSpace(fields[1])
	if len(exchange) == 0 || len(account) == 0 {
		return nil, false
	}

	var orderType OrderType
	switch strings.ToLower(strings.TrimSpace(fields[2])) {
	case "buy":
		orderType = LimitBuy
	case "sell":
		orderType = LimitSell
	default:
		return nil, false
	}

	pair, err := ParsePair(fields[3])
	if err != nil {
		return nil, false
	}

	return &OrderLine{
		Exchange: exchange,
		Account:  account,
		Type:     orderType,
		Pair:     pair,
	}, true
}

// SignalIngestion converts inbox subject lines into candidate market
// orders, subject to the account's limits and the gain check.
type SignalIngestion struct {
	mail        MailClient
	accounts    *AccountList
	balances    *BalanceCaches
	builder     *OrderBuilder
	placer      *OrderPlacer
	gainChecker *GainChecker
	idService   IDService
	logger      Logger
}

func NewSignalIngestion(
	mail MailClient,
	accounts *AccountList,
	balances *BalanceCaches,
	builder *OrderBuilder,
	placer *OrderPlacer,
	gainChecker *GainChecker,
	idService IDService,
	logger Logger,
) *SignalIngestion {
	return &SignalIngestion{
		mail:        mail,
		accounts:    accounts,
		balances:    balances,
		builder:     builder,
		placer:      placer,
		gainChecker: gainChecker,
		idService:   idService,
		logger:      logger,
	}
}

// Run fetches the current signal mails and processes every subject line.
// One bad line never stops the batch.
func (si *SignalIngestion) Run(ctx context.Context) error {
	lines, err := si.mail.FetchSubjectLines(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch mail subject lines: [%v]", err)
	}

	for _, line := range lines {
		si.processLine(ctx, line)
	}

	return nil
}

func (si *SignalIngestion) processLine(ctx context.Context, line string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			si.logger.Errorf(
				"unexpected failure while processing signal line: [%v]",
				recovered,
			)
		}
	}()

	orderLine, ok := ParseOrderLine(line)
	if !ok {
		si.logger.Debugf("skipping non-signal subject line [%v]", line)
		return
	}

	account, ok := si.accounts.Account(orderLine.Exchange, orderLine.Account)
	if !ok {
		si.logger.Warningf(
			"signal [%v] references an unknown account; skipping it",
			orderLine,
		)
		return
	}

	passes, err := si.gainChecker.Check(
		ctx,
		account,
		orderLine.Pair,
		orderLine.Type,
	)
	if err != nil {
		si.logger.Errorf(
			"could not run gain check for signal [%v]: [%v]",
			orderLine,
			err,
		)
		return
	}

	if !passes {
		si.logger.Infof(
			"dropping signal [%v]: minimum gain not met",
			orderLine,
		)
		return
	}

	order := si.buildOrder(ctx, account, orderLine)

	if !order.Ready() {
		si.logger.Infof(
			"signal [%v] produced an order that is not ready to place; "+
				"skipping it",
			orderLine,
		)
		return
	}

	si.placer.AddOrder(order)

	si.logger.Infof("enqueued order [%v] for signal [%v]", order, orderLine)
}

func (si *SignalIngestion) buildOrder(
	ctx context.Context,
	account *Account,
	orderLine *OrderLine,
) *MarketOrder {
	order := NewMarketOrder(
		si.idService,
		account.Exchange,
		account.Name,
		orderLine.Pair,
		orderLine.Type,
	)

	switch orderLine.Type {
	case LimitBuy:
		si.builder.CalculateQuantityAndRate(ctx, order, account.BuyLimit)
	case LimitSell:
		// Sells liquidate the whole position at the current bid.
		balance := si.balances.Of(account.ID()).Balance(orderLine.Pair.Alt)
		if bid, ok := si.builder.Bid(account.Exchange, orderLine.Pair); ok {
			order.Quantity = balance
			order.Rate = bid
		}
	}

	return order
}
