package tvtrader

import (
	"math/big"
	"strings"
)

type Asset string

// Pair is a traded market: the alt coin priced in the main coin, rendered in
// exchange notation as MAIN-ALT (e.g. BTC-ETH).
type Pair struct {
	Main, Alt Asset
}

func ParsePair(value string) (Pair, error) {
	symbols := strings.Split(strings.TrimSpace(value), "-")
	if len(symbols) != 2 || len(symbols[0]) == 0 || len(symbols[1]) == 0 {
		return Pair{}, ParserErrorf("could not parse market pair: [%v]", value)
	}

	return Pair{
		Main: Asset(strings.ToUpper(symbols[0])),
		Alt:  Asset(strings.ToUpper(symbols[1])),
	}, nil
}

func (p Pair) String() string {
	return string(p.Main) + "-" + string(p.Alt)
}

type Balances map[Asset]*big.Float

// BalanceOf returns the balance of the given asset. An asset absent from the
// map yields zero, indistinguishable from an actual zero balance.
func (bm Balances) BalanceOf(asset Asset) *big.Float {
	for balanceAsset, balanceValue := range bm {
		if balanceAsset == asset {
			return balanceValue
		}
	}

	return big.NewFloat(0)
}
