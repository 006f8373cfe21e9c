package main

import (
	"math/big"

	"github.com/sherifabdlnaby/configuro"
	tvtrader "github.com/wouterman/tvtrader-sub001"
)

// Config values can be set using either environment variables with `CONFIG_`
// prefix or config.yml file placed in working directory.
// See https://github.com/sherifabdlnaby/configuro.
type Config struct {
	Logging  Logging
	Database Database
	PubSub   PubSub
	Imap     Imap
	Smtp     Smtp
	Engine   Engine
	Accounts []AccountEntry
}

type Logging struct {
	Level  string
	Format string
}

type Database struct {
	Address      string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MigrationDir string
}

type PubSub struct {
	ProjectID          string
	NotificationsTopic string
}

type Imap struct {
	Address  string
	Username string
	Password string
	Mailbox  string
}

type Smtp struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

type Engine struct {
	MailPollingSeconds     int
	StoplossCheckSeconds   int
	OpenOrdersCheckSeconds int
	OpenOrdersExpiration   int
	TickerRefreshSeconds   int
	AssetRefreshSeconds    int
	RetryOrder             bool
	ExpectedSender         string
}

type AccountEntry struct {
	Exchange                string
	Name                    string
	MainAsset               string
	ApiKey                  string
	SecretKey               string
	BuyLimit                float64
	StoplossPercent         float64
	TrailingStoplossPercent float64
	MinimumGainPercent      float64
}

func readConfig() (*Config, error) {
	loader, err := configuro.NewConfig()
	if err != nil {
		return nil, err
	}

	// Default config values.
	config := &Config{
		Logging: Logging{
			Level: "info",
		},
		Database: Database{
			Address:  "localhost:5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "postgres",
			SSLMode:  "disabled",
		},
		Engine: Engine{
			MailPollingSeconds:     30,
			StoplossCheckSeconds:   10,
			OpenOrdersCheckSeconds: 60,
			OpenOrdersExpiration:   300,
			TickerRefreshSeconds:   10,
			AssetRefreshSeconds:    60,
		},
	}

	err = loader.Load(config)
	if err != nil {
		return nil, err
	}

	err = loader.Validate(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) settings() (*tvtrader.Settings, error) {
	return tvtrader.NewSettings(
		c.Engine.MailPollingSeconds,
		c.Engine.StoplossCheckSeconds,
		c.Engine.OpenOrdersCheckSeconds,
		c.Engine.OpenOrdersExpiration,
		c.Engine.TickerRefreshSeconds,
		c.Engine.AssetRefreshSeconds,
		c.Engine.RetryOrder,
		c.Engine.ExpectedSender,
	)
}

func (c *Config) accounts() []*tvtrader.Account {
	accounts := make([]*tvtrader.Account, 0, len(c.Accounts))

	for _, entry := range c.Accounts {
		accounts = append(accounts, &tvtrader.Account{
			Exchange:                entry.Exchange,
			Name:                    entry.Name,
			MainAsset:               tvtrader.Asset(entry.MainAsset),
			BuyLimit:                big.NewFloat(entry.BuyLimit),
			StoplossPercent:         big.NewFloat(entry.StoplossPercent),
			TrailingStoplossPercent: big.NewFloat(entry.TrailingStoplossPercent),
			MinimumGainPercent:      big.NewFloat(entry.MinimumGainPercent),
			Credentials: tvtrader.Credentials{
				Key:    entry.ApiKey,
				Secret: entry.SecretKey,
			},
		})
	}

	return accounts
}
