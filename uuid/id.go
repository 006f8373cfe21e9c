package uuid

import (
	"github.com/google/uuid"
	tvtrader "github.com/wouterman/tvtrader-sub001"
)

type IDService struct{}

func (ids *IDService) NewID() tvtrader.ID {
	return uuid.New()
}

func (ids *IDService) NewIDFromString(id string) (tvtrader.ID, error) {
	return uuid.Parse(id)
}
