package tvtrader

import "time"

// Settings is the validated, hot-reloadable runtime configuration snapshot
// consumed by the engine. All intervals must be at least one second.
type Settings struct {
	MailPollingInterval     time.Duration
	StoplossCheckInterval   time.Duration
	OpenOrdersCheckInterval time.Duration
	OpenOrdersExpiration    time.Duration
	TickerRefreshInterval   time.Duration
	AssetRefreshInterval    time.Duration

	RetryOrder     bool
	ExpectedSender string
}

func NewSettings(
	mailPollingSeconds int,
	stoplossCheckSeconds int,
	openOrdersCheckSeconds int,
	openOrdersExpirationSeconds int,
	tickerRefreshSeconds int,
	assetRefreshSeconds int,
	retryOrder bool,
	expectedSender string,
) (*Settings, error) {
	intervals := map[string]int{
		"mail polling interval":      mailPollingSeconds,
		"stoploss check interval":    stoplossCheckSeconds,
		"open orders check interval": openOrdersCheckSeconds,
		"open orders expiration":     openOrdersExpirationSeconds,
		"ticker refresh interval":    tickerRefreshSeconds,
		"asset refresh interval":     assetRefreshSeconds,
	}

	for name, value := range intervals {
		if value < 1 {
			return nil, ParserErrorf(
				"%v must be a positive number of seconds, got [%v]",
				name,
				value,
			)
		}
	}

	return &Settings{
		MailPollingInterval:     time.Duration(mailPollingSeconds) * time.Second,
		StoplossCheckInterval:   time.Duration(stoplossCheckSeconds) * time.Second,
		OpenOrdersCheckInterval: time.Duration(openOrdersCheckSeconds) * time.Second,
		OpenOrdersExpiration:    time.Duration(openOrdersExpirationSeconds) * time.Second,
		TickerRefreshInterval:   time.Duration(tickerRefreshSeconds) * time.Second,
		AssetRefreshInterval:    time.Duration(assetRefreshSeconds) * time.Second,
		RetryOrder:              retryOrder,
		ExpectedSender:          expectedSender,
	}, nil
}
