// Package binance implements the exchange client for the Binance spot REST
// API. Signed endpoints carry a timestamp parameter and a "signature"
// parameter holding the HMAC-SHA256 of the query string, plus the API key
// in the X-MBX-APIKEY header.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	tvtrader "github.com/wouterman/tvtrader-sub001"
	"github.com/wouterman/tvtrader-sub001/rest"
)

const (
	// DefaultBaseURL points at the production Binance API.
	DefaultBaseURL = "https://api.binance.com"

	requestTimeout = 1 * time.Minute

	// Standard spot taker rate without BNB discounts.
	takerFeeRate = 0.001
)

// quoteAssets are the quote currencies recognized when splitting a
// concatenated Binance symbol such as ETHBTC into a market pair. Order
// matters: longer suffixes are matched first.
var quoteAssets = []string{"USDT", "BUSD", "BTC", "ETH", "BNB", "EUR"}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     tvtrader.Logger
}

func NewClient(
	baseURL string,
	httpClient *http.Client,
	logger tvtrader.Logger,
) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) Name() string {
	return "binance"
}

func (c *Client) MarketSummaries(
	ctx context.Context,
) ([]*tvtrader.Ticker, error) {
	body, err := c.call(ctx, rest.NewURL(c.baseURL+"/api/v3/ticker/24hr"))
	if err != nil {
		return nil, err
	}

	var rows []tickerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not parse tickers")
	}

	tickers := make([]*tvtrader.Ticker, 0, len(rows))

	for _, row := range rows {
		pair, ok := splitSymbol(row.Symbol)
		if !ok {
			continue
		}

		ticker, err := row.toTicker(pair)
		if err != nil {
			return nil, tvtrader.ExchangeErrorf(
				err,
				"could not parse ticker of symbol [%v]",
				row.Symbol,
			)
		}

		tickers = append(tickers, ticker)
	}

	return tickers, nil
}

func (c *Client) Balances(
	ctx context.Context,
	credentials tvtrader.Credentials,
) (tvtrader.Balances, error) {
	body, err := c.call(ctx, c.signedURL("/api/v3/account", credentials))
	if err != nil {
		return nil, err
	}

	var account struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not parse balances")
	}

	balances := make(tvtrader.Balances, len(account.Balances))

	for _, balance := range account.Balances {
		amount, ok := new(big.Float).SetString(balance.Free)
		if !ok {
			return nil, tvtrader.ExchangeErrorf(
				nil,
				"could not parse balance of asset [%v]",
				balance.Asset,
			)
		}

		if amount.Sign() == 0 {
			continue
		}

		balances[tvtrader.Asset(balance.Asset)] = amount
	}

	return balances, nil
}

func (c *Client) OpenOrders(
	ctx context.Context,
	account *tvtrader.Account,
) ([]*tvtrader.Order, error) {
	body, err := c.call(
		ctx,
		c.signedURL("/api/v3/openOrders", account.Credentials),
	)
	if err != nil {
		return nil, err
	}

	return c.parseOrders(body)
}

// OrderHistory assembles the account's history market by market: Binance
// requires a symbol per query, so the markets are derived from the
// account's currently held assets. A failing symbol, such as a held asset
// with no market against the main asset, is skipped so the remaining
// markets still contribute their history.
func (c *Client) OrderHistory(
	ctx context.Context,
	account *tvtrader.Account,
) ([]*tvtrader.Order, error) {
	balances, err := c.Balances(ctx, account.Credentials)
	if err != nil {
		return nil, err
	}

	orders := make([]*tvtrader.Order, 0)

	for asset := range balances {
		if asset == account.MainAsset {
			continue
		}

		symbol := string(asset) + string(account.MainAsset)

		body, err := c.call(
			ctx,
			c.signedURL(
				"/api/v3/allOrders",
				account.Credentials,
				"symbol="+symbol,
			),
		)
		if err != nil {
			c.logger.Warningf(
				"could not fetch order history for symbol [%v]: [%v]",
				symbol,
				err,
			)
			continue
		}

		assetOrders, err := c.parseOrders(body)
		if err != nil {
			c.logger.Warningf(
				"could not parse order history for symbol [%v]: [%v]",
				symbol,
				err,
			)
			continue
		}

		orders = append(orders, assetOrders...)
	}

	return orders, nil
}

func (c *Client) PlaceOrder(
	ctx context.Context,
	order *tvtrader.MarketOrder,
	credentials tvtrader.Credentials,
) (string, error) {
	var side string
	switch order.Type {
	case tvtrader.LimitBuy:
		side = "BUY"
	case tvtrader.LimitSell:
		side = "SELL"
	default:
		return "", tvtrader.ExchangeErrorf(
			nil,
			"unsupported order type: [%v]",
			order.Type,
		)
	}

	symbol := string(order.Pair.Alt) + string(order.Pair.Main)

	body, err := c.call(
		ctx,
		c.signedURL(
			"/api/v3/order",
			credentials,
			"symbol="+symbol,
			"side="+side,
			"type=LIMIT",
			"timeInForce=GTC",
			"quantity="+order.Quantity.Text('f', 8),
			"price="+order.Rate.Text('f', 8),
		).WithMethod(http.MethodPost),
	)
	if err != nil {
		return "", err
	}

	var placed struct {
		Symbol  string `json:"symbol"`
		OrderID int64  `json:"orderId"`
	}
	if err := json.Unmarshal(body, &placed); err != nil {
		return "", tvtrader.ExchangeErrorf(
			err,
			"could not parse place order response",
		)
	}

	return compositeOrderID(placed.Symbol, placed.OrderID), nil
}

// CancelOrder expects the composite order ID produced by this client
// (SYMBOL:orderId), since Binance addresses orders by symbol and numeric
// ID.
func (c *Client) CancelOrder(
	ctx context.Context,
	account *tvtrader.Account,
	orderID string,
) error {
	parts := strings.SplitN(orderID, ":", 2)
	if len(parts) != 2 {
		return tvtrader.ExchangeErrorf(
			nil,
			"malformed binance order id: [%v]",
			orderID,
		)
	}

	_, err := c.call(
		ctx,
		c.signedURL(
			"/api/v3/order",
			account.Credentials,
			"symbol="+parts[0],
			"orderId="+parts[1],
		).WithMethod(http.MethodDelete),
	)

	return err
}

func (c *Client) TakerFee(ctx context.Context) (*big.Float, error) {
	return big.NewFloat(takerFeeRate), nil
}

// signedURL assembles a signed request: endpoint parameters first, then the
// timestamp, with the signature folded over the exact query string.
func (c *Client) signedURL(
	path string,
	credentials tvtrader.Credentials,
	parameters ...string,
) *rest.URL {
	url := rest.NewURL(c.baseURL + path)

	for _, parameter := range parameters {
		url.AddParameter(parameter)
	}

	url.AddParameter(
		"timestamp=" + strconv.FormatInt(time.Now().UnixMilli(), 10),
	)
	url.AddParameter(
		"recvWindow=" + strconv.FormatUint(requestTimeoutMillis(), 10),
	)

	url.AddParameter(
		"signature=" + rest.SignSHA256(url.Query(), credentials.Secret),
	)

	return url.AddHeader("X-MBX-APIKEY", credentials.Key)
}

func requestTimeoutMillis() uint64 {
	millis := requestTimeout.Milliseconds()

	// Binance caps recvWindow at 60000.
	if millis > 60000 {
		millis = 60000
	}

	return uint64(millis)
}

func (c *Client) call(ctx context.Context, url *rest.URL) ([]byte, error) {
	requestCtx, cancelRequestCtx := context.WithTimeout(ctx, requestTimeout)
	defer cancelRequestCtx()

	request, err := url.NewRequest(requestCtx)
	if err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not build request")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "request failed")
	}
	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, tvtrader.ExchangeErrorf(
			err,
			"could not read response body",
		)
	}

	// Binance signals failure through the status code and an error body
	// of the form {"code": -1121, "msg": "..."}.
	if response.StatusCode != http.StatusOK {
		var apiError struct {
			Code    int64  `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiError); err != nil {
			return nil, tvtrader.ExchangeErrorf(
				err,
				"could not parse error response with status [%v]",
				response.StatusCode,
			)
		}

		return nil, tvtrader.ExchangeErrorf(
			nil,
			"binance reported failure [%v]: [%v]",
			apiError.Code,
			apiError.Message,
		)
	}

	return body, nil
}

type tickerRow struct {
	Symbol    string `json:"symbol"`
	AskPrice  string `json:"askPrice"`
	BidPrice  string `json:"bidPrice"`
	LastPrice string `json:"lastPrice"`
}

func (row *tickerRow) toTicker(pair tvtrader.Pair) (*tvtrader.Ticker, error) {
	ask, err := parsePrice(row.AskPrice)
	if err != nil {
		return nil, err
	}

	bid, err := parsePrice(row.BidPrice)
	if err != nil {
		return nil, err
	}

	last, err := parsePrice(row.LastPrice)
	if err != nil {
		return nil, err
	}

	return &tvtrader.Ticker{
		Pair: pair,
		Ask:  ask,
		Bid:  bid,
		Last: last,
	}, nil
}

type orderRow struct {
	Symbol      string `json:"symbol"`
	OrderID     int64  `json:"orderId"`
	Price       string `json:"price"`
	OrigQty     string `json:"origQty"`
	ExecutedQty string `json:"executedQty"`
	QuoteQty    string `json:"cummulativeQuoteQty"`
	Side        string `json:"side"`
	Time        int64  `json:"time"`
}

func (c *Client) parseOrders(body []byte) ([]*tvtrader.Order, error) {
	var rows []orderRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not parse orders")
	}

	orders := make([]*tvtrader.Order, 0, len(rows))

	for _, row := range rows {
		pair, ok := splitSymbol(row.Symbol)
		if !ok {
			c.logger.Debugf(
				"skipping order with unrecognized symbol [%v]",
				row.Symbol,
			)
			continue
		}

		order, err := row.toOrder(pair)
		if err != nil {
			return nil, tvtrader.ExchangeErrorf(
				err,
				"could not parse order [%v]",
				row.OrderID,
			)
		}

		orders = append(orders, order)
	}

	return orders, nil
}

func (row *orderRow) toOrder(pair tvtrader.Pair) (*tvtrader.Order, error) {
	var orderType tvtrader.OrderType
	switch row.Side {
	case "BUY":
		orderType = tvtrader.LimitBuy
	case "SELL":
		orderType = tvtrader.LimitSell
	default:
		return nil, fmt.Errorf("unknown order side: [%v]", row.Side)
	}

	quantity, err := parsePrice(row.OrigQty)
	if err != nil {
		return nil, err
	}

	executed, err := parsePrice(row.ExecutedQty)
	if err != nil {
		return nil, err
	}

	rate, err := parsePrice(row.Price)
	if err != nil {
		return nil, err
	}

	price, err := parsePrice(row.QuoteQty)
	if err != nil {
		return nil, err
	}

	return &tvtrader.Order{
		ID:                compositeOrderID(row.Symbol, row.OrderID),
		Pair:              pair,
		Time:              time.Unix(0, row.Time*int64(time.Millisecond)),
		Type:              orderType,
		Quantity:          quantity,
		QuantityRemaining: new(big.Float).Sub(quantity, executed),
		// Binance reports commissions on trades, not orders; the
		// cummulativeQuoteQty total already reflects the filled value.
		Commission: big.NewFloat(0),
		Price:      price,
		Rate:       rate,
	}, nil
}

func compositeOrderID(symbol string, orderID int64) string {
	return symbol + ":" + strconv.FormatInt(orderID, 10)
}

func splitSymbol(symbol string) (tvtrader.Pair, bool) {
	for _, quote := range quoteAssets {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return tvtrader.Pair{
				Main: tvtrader.Asset(quote),
				Alt:  tvtrader.Asset(strings.TrimSuffix(symbol, quote)),
			}, true
		}
	}

	return tvtrader.Pair{}, false
}

func parsePrice(value string) (*big.Float, error) {
	if len(value) == 0 {
		return big.NewFloat(0), nil
	}

	price, ok := new(big.Float).SetString(value)
	if !ok {
		return nil, fmt.Errorf("could not parse numeric value: [%v]", value)
	}

	return price, nil
}
