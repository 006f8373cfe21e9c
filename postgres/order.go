package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	tvtrader "github.com/wouterman/tvtrader-sub001"
)

type OrderRepository struct {
	client    *Client
	idService tvtrader.IDService
}

func NewOrderRepository(
	client *Client,
	idService tvtrader.IDService,
) *OrderRepository {
	return &OrderRepository{client, idService}
}

func (or *OrderRepository) CreateOrderRecord(
	record *tvtrader.OrderRecord,
) error {
	query := `INSERT INTO
		order_record (id, exchange, account, market, type, quantity, rate,
			status, time)
		VALUES (:id, :exchange, :account, :market, :type, :quantity, :rate,
			:status, :time)`

	row, err := new(orderRecordRow).wrap(record)
	if err != nil {
		return fmt.Errorf(
			"could not convert order record [%v] to pg row: [%v]",
			record.ID,
			err,
		)
	}

	_, err = or.client.instance().NamedExec(query, row)
	if err != nil {
		return fmt.Errorf(
			"could not execute command for order record [%v]: [%v]",
			record.ID,
			err,
		)
	}

	return nil
}

func (or *OrderRepository) OrderRecords(
	exchange string,
	account string,
) ([]*tvtrader.OrderRecord, error) {
	query := `SELECT id, exchange, account, market, type, quantity, rate,
		status, time
		FROM order_record
		WHERE exchange = $1 AND account = $2
		ORDER BY time DESC`

	var rows []orderRecordRow
	err := or.client.instance().Select(&rows, query, exchange, account)
	if err != nil {
		return nil, fmt.Errorf("could not execute query: [%v]", err)
	}

	records := make([]*tvtrader.OrderRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.unwrap(or.idService)
		if err != nil {
			return nil, fmt.Errorf(
				"could not convert pg row to order record: [%v]",
				err,
			)
		}

		records = append(records, record)
	}

	return records, nil
}

type orderRecordRow struct {
	ID       string
	Exchange string
	Account  string
	Market   string
	Type     string
	Quantity pgtype.Numeric
	Rate     pgtype.Numeric
	Status   string
	Time     time.Time
}

func (orr *orderRecordRow) wrap(
	record *tvtrader.OrderRecord,
) (*orderRecordRow, error) {
	quantity, err := floatToNumeric(record.Quantity)
	if err != nil {
		return nil, err
	}

	rate, err := floatToNumeric(record.Rate)
	if err != nil {
		return nil, err
	}

	orr.ID = record.ID.String()
	orr.Exchange = record.Exchange
	orr.Account = record.Account
	orr.Market = record.Pair.String()
	orr.Type = record.Type.String()
	orr.Quantity = quantity
	orr.Rate = rate
	orr.Status = record.Status.String()
	orr.Time = record.Time

	return orr, nil
}

func (orr *orderRecordRow) unwrap(
	idService tvtrader.IDService,
) (*tvtrader.OrderRecord, error) {
	ID, err := idService.NewIDFromString(orr.ID)
	if err != nil {
		return nil, err
	}

	pair, err := tvtrader.ParsePair(orr.Market)
	if err != nil {
		return nil, err
	}

	orderType, err := tvtrader.ParseOrderType(orr.Type)
	if err != nil {
		return nil, err
	}

	status, err := tvtrader.ParseOrderStatus(orr.Status)
	if err != nil {
		return nil, err
	}

	quantity, err := numericToFloat(orr.Quantity)
	if err != nil {
		return nil, err
	}

	rate, err := numericToFloat(orr.Rate)
	if err != nil {
		return nil, err
	}

	return &tvtrader.OrderRecord{
		ID:       ID,
		Exchange: orr.Exchange,
		Account:  orr.Account,
		Pair:     pair,
		Type:     orderType,
		Quantity: quantity,
		Rate:     rate,
		Status:   status,
		Time:     orr.Time,
	}, nil
}
