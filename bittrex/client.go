// Package bittrex implements the exchange client for the Bittrex v1.1
// REST API. Signed endpoints carry apikey and nonce parameters and an
// "apisign" header holding the HMAC-SHA512 of the full request URI.
package bittrex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	tvtrader "github.com/wouterman/tvtrader-sub001"
	"github.com/wouterman/tvtrader-sub001/rest"
)

const (
	// DefaultBaseURL points at the production Bittrex API.
	DefaultBaseURL = "https://api.bittrex.com/api/v1.1"

	requestTimeout = 1 * time.Minute

	// The v1.1 API exposes no fee endpoint; this is the documented
	// standard taker rate.
	takerFeeRate = 0.0025
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	nonce      *rest.NonceGenerator
	logger     tvtrader.Logger
}

func NewClient(
	baseURL string,
	httpClient *http.Client,
	nonce *rest.NonceGenerator,
	logger tvtrader.Logger,
) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		nonce:      nonce,
		logger:     logger,
	}
}

func (c *Client) Name() string {
	return "bittrex"
}

func (c *Client) MarketSummaries(
	ctx context.Context,
) ([]*tvtrader.Ticker, error) {
	result, err := c.call(ctx, c.publicURL("/public/getmarketsummaries"))
	if err != nil {
		return nil, err
	}

	var summaries []marketSummaryRow
	if err := json.Unmarshal(result, &summaries); err != nil {
		return nil, tvtrader.ExchangeErrorf(
			err,
			"could not parse market summaries",
		)
	}

	tickers := make([]*tvtrader.Ticker, 0, len(summaries))

	for _, summary := range summaries {
		pair, err := tvtrader.ParsePair(summary.MarketName)
		if err != nil {
			c.logger.Debugf(
				"skipping market summary with unparsable name [%v]",
				summary.MarketName,
			)
			continue
		}

		tickers = append(tickers, &tvtrader.Ticker{
			Pair: pair,
			Ask:  big.NewFloat(summary.Ask),
			Bid:  big.NewFloat(summary.Bid),
			Last: big.NewFloat(summary.Last),
		})
	}

	return tickers, nil
}

func (c *Client) Balances(
	ctx context.Context,
	credentials tvtrader.Credentials,
) (tvtrader.Balances, error) {
	result, err := c.call(
		ctx,
		c.signedURL("/account/getbalances", credentials),
	)
	if err != nil {
		return nil, err
	}

	var rows []balanceRow
	if err := json.Unmarshal(result, &rows); err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not parse balances")
	}

	balances := make(tvtrader.Balances, len(rows))
	for _, row := range rows {
		balances[tvtrader.Asset(row.Currency)] = big.NewFloat(row.Available)
	}

	return balances, nil
}

func (c *Client) OpenOrders(
	ctx context.Context,
	account *tvtrader.Account,
) ([]*tvtrader.Order, error) {
	result, err := c.call(
		ctx,
		c.signedURL("/market/getopenorders", account.Credentials),
	)
	if err != nil {
		return nil, err
	}

	return c.parseOrders(result)
}

func (c *Client) OrderHistory(
	ctx context.Context,
	account *tvtrader.Account,
) ([]*tvtrader.Order, error) {
	result, err := c.call(
		ctx,
		c.signedURL("/account/getorderhistory", account.Credentials),
	)
	if err != nil {
		return nil, err
	}

	return c.parseOrders(result)
}

func (c *Client) PlaceOrder(
	ctx context.Context,
	order *tvtrader.MarketOrder,
	credentials tvtrader.Credentials,
) (string, error) {
	var path string
	switch order.Type {
	case tvtrader.LimitBuy:
		path = "/market/buylimit"
	case tvtrader.LimitSell:
		path = "/market/selllimit"
	default:
		return "", tvtrader.ExchangeErrorf(
			nil,
			"unsupported order type: [%v]",
			order.Type,
		)
	}

	result, err := c.call(
		ctx,
		c.signedURL(
			path,
			credentials,
			"market="+order.Pair.String(),
			"quantity="+order.Quantity.Text('f', 8),
			"rate="+order.Rate.Text('f', 8),
		),
	)
	if err != nil {
		return "", err
	}

	var placed struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(result, &placed); err != nil {
		return "", tvtrader.ExchangeErrorf(
			err,
			"could not parse place order response",
		)
	}

	return placed.UUID, nil
}

func (c *Client) CancelOrder(
	ctx context.Context,
	account *tvtrader.Account,
	orderID string,
) error {
	_, err := c.call(
		ctx,
		c.signedURL("/market/cancel", account.Credentials, "uuid="+orderID),
	)

	return err
}

func (c *Client) TakerFee(ctx context.Context) (*big.Float, error) {
	return big.NewFloat(takerFeeRate), nil
}

func (c *Client) publicURL(path string) *rest.URL {
	return rest.NewURL(c.baseURL + path)
}

// signedURL assembles a signed request: apikey and nonce come first, then
// the endpoint parameters, and the signature folds over the exact rendered
// URI.
func (c *Client) signedURL(
	path string,
	credentials tvtrader.Credentials,
	parameters ...string,
) *rest.URL {
	url := rest.NewURL(c.baseURL + path).
		AddParameter("apikey=" + credentials.Key).
		AddParameter("nonce=" + strconv.FormatUint(c.nonce.Next(), 10))

	for _, parameter := range parameters {
		url.AddParameter(parameter)
	}

	return url.AddHeader(
		"apisign",
		rest.SignSHA512(url.Render(), credentials.Secret),
	)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) call(
	ctx context.Context,
	url *rest.URL,
) (json.RawMessage, error) {
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

	var parsed envelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, tvtrader.ExchangeErrorf(
			err,
			"could not parse response envelope",
		)
	}

	if !parsed.Success {
		return nil, tvtrader.ExchangeErrorf(
			nil,
			"bittrex reported failure: [%v]",
			parsed.Message,
		)
	}

	return parsed.Result, nil
}

type marketSummaryRow struct {
	MarketName string  `json:"MarketName"`
	Ask        float64 `json:"Ask"`
	Bid        float64 `json:"Bid"`
	Last       float64 `json:"Last"`
}

type balanceRow struct {
	Currency  string  `json:"Currency"`
	Balance   float64 `json:"Balance"`
	Available float64 `json:"Available"`
}

type orderRow struct {
	OrderUUID         string  `json:"OrderUuid"`
	Exchange          string  `json:"Exchange"`
	TimeStamp         string  `json:"TimeStamp"`
	Opened            string  `json:"Opened"`
	OrderType         string  `json:"OrderType"`
	Quantity          float64 `json:"Quantity"`
	QuantityRemaining float64 `json:"QuantityRemaining"`
	Commission        float64 `json:"Commission"`
	CommissionPaid    float64 `json:"CommissionPaid"`
	Price             float64 `json:"Price"`
	PricePerUnit      float64 `json:"PricePerUnit"`
	Limit             float64 `json:"Limit"`
}

func (c *Client) parseOrders(result json.RawMessage) ([]*tvtrader.Order, error) {
	var rows []orderRow
	if err := json.Unmarshal(result, &rows); err != nil {
		return nil, tvtrader.ExchangeErrorf(err, "could not parse orders")
	}

	orders := make([]*tvtrader.Order, 0, len(rows))

	for _, row := range rows {
		order, err := row.toOrder()
		if err != nil {
			return nil, tvtrader.ExchangeErrorf(
				err,
				"could not parse order [%v]",
				row.OrderUUID,
			)
		}

		orders = append(orders, order)
	}

	return orders, nil
}

func (row *orderRow) toOrder() (*tvtrader.Order, error) {
	pair, err := tvtrader.ParsePair(row.Exchange)
	if err != nil {
		return nil, err
	}

	orderType, err := tvtrader.ParseOrderType(row.OrderType)
	if err != nil {
		return nil, err
	}

	timestamp := row.TimeStamp
	if len(timestamp) == 0 {
		timestamp = row.Opened
	}

	orderTime, err := parseTimestamp(timestamp)
	if err != nil {
		return nil, err
	}

	commission := row.Commission
	if commission == 0 {
		commission = row.CommissionPaid
	}

	rate := row.PricePerUnit
	if rate == 0 {
		rate = row.Limit
	}

	return &tvtrader.Order{
		ID:                row.OrderUUID,
		Pair:              pair,
		Time:              orderTime,
		Type:              orderType,
		Quantity:          big.NewFloat(row.Quantity),
		QuantityRemaining: big.NewFloat(row.QuantityRemaining),
		Commission:        big.NewFloat(commission),
		Price:             big.NewFloat(row.Price),
		Rate:              big.NewFloat(rate),
	}, nil
}

// Bittrex timestamps come without a zone and with a variable fraction,
// e.g. "2014-07-09T03:55:48.77".
func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}

	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf(
		"could not parse timestamp [%v]: [%v]",
		value,
		lastErr,
	)
}
