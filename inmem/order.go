package inmem

import (
	"sync"

	tvtrader "github.com/wouterman/tvtrader-sub001"
)

type OrderRepository struct {
	recordsMutex sync.RWMutex
	records      []*tvtrader.OrderRecord
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		records: make([]*tvtrader.OrderRecord, 0),
	}
}

func (or *OrderRepository) CreateOrderRecord(
	record *tvtrader.OrderRecord,
) error {
	or.recordsMutex.Lock()
	defer or.recordsMutex.Unlock()

	or.records = append(or.records, record)

	return nil
}

func (or *OrderRepository) OrderRecords() []*tvtrader.OrderRecord {
	or.recordsMutex.RLock()
	defer or.recordsMutex.RUnlock()

	snapshot := make([]*tvtrader.OrderRecord, len(or.records))
	copy(snapshot, or.records)

	return snapshot
}
