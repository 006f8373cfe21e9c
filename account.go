package tvtrader

import (
	"math/big"
	"strings"
	"sync"
)

// Credentials are used only for request signing and must never be logged.
type Credentials struct {
	Key    string
	Secret string
}

// Account is an immutable record built from validated configuration. It is
// never mutated; a configuration reload replaces the whole account list.
type Account struct {
	Exchange  string
	Name      string
	MainAsset Asset

	BuyLimit                *big.Float
	StoplossPercent         *big.Float
	TrailingStoplossPercent *big.Float
	MinimumGainPercent      *big.Float

	Credentials Credentials
}

// ID identifies an account by its (exchange, name) tuple.
func (a *Account) ID() string {
	return strings.ToLower(a.Exchange) + "/" + a.Name
}

// TrailingStoploss tells whether the account runs the trailing variant of
// the stoploss protection.
func (a *Account) TrailingStoploss() bool {
	return a.TrailingStoplossPercent != nil &&
		a.TrailingStoplossPercent.Sign() > 0
}

// AccountList holds the current account snapshot. Reads get a copy; a config
// reload swaps the whole snapshot through Replace.
type AccountList struct {
	accountsMutex sync.RWMutex
	accounts      []*Account
}

func NewAccountList(accounts ...*Account) *AccountList {
	return &AccountList{accounts: accounts}
}

func (al *AccountList) Replace(accounts []*Account) {
	al.accountsMutex.Lock()
	defer al.accountsMutex.Unlock()

	al.accounts = accounts
}

func (al *AccountList) Accounts() []*Account {
	al.accountsMutex.RLock()
	defer al.accountsMutex.RUnlock()

	snapshot := make([]*Account, len(al.accounts))
	copy(snapshot, al.accounts)

	return snapshot
}

func (al *AccountList) AccountsOf(exchange string) []*Account {
	al.accountsMutex.RLock()
	defer al.accountsMutex.RUnlock()

	accounts := make([]*Account, 0)

	for _, account := range al.accounts {
		if strings.EqualFold(account.Exchange, exchange) {
			accounts = append(accounts, account)
		}
	}

	return accounts
}

func (al *AccountList) Account(exchange, name string) (*Account, bool) {
	al.accountsMutex.RLock()
	defer al.accountsMutex.RUnlock()

	for _, account := range al.accounts {
		if strings.EqualFold(account.Exchange, exchange) &&
			account.Name == name {
			return account, true
		}
	}

	return nil, false
}
