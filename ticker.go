package tvtrader

import (
	"fmt"
	"math/big"
)

// Ticker is a transient market snapshot, replaced wholesale on each refresh.
type Ticker struct {
	Pair Pair
	Ask  *big.Float
	Bid  *big.Float
	Last *big.Float
}

func (t *Ticker) String() string {
	return fmt.Sprintf(
		"%v, ask: %v, bid: %v, last: %v",
		t.Pair.String(),
		t.Ask.Text('f', 8),
		t.Bid.Text('f', 8),
		t.Last.Text('f', 8),
	)
}
