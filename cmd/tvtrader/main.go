package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tvtrader "github.com/wouterman/tvtrader-sub001"
	"github.com/wouterman/tvtrader-sub001/binance"
	"github.com/wouterman/tvtrader-sub001/bittrex"
	"github.com/wouterman/tvtrader-sub001/imap"
	"github.com/wouterman/tvtrader-sub001/inmem"
	"github.com/wouterman/tvtrader-sub001/logrus"
	"github.com/wouterman/tvtrader-sub001/notification"
	"github.com/wouterman/tvtrader-sub001/postgres"
	"github.com/wouterman/tvtrader-sub001/pubsub"
	"github.com/wouterman/tvtrader-sub001/rest"
	"github.com/wouterman/tvtrader-sub001/uuid"
)

const httpClientTimeout = 1 * time.Minute

func main() {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	go handleShutdownSignals(cancelCtx)

	config, err := readConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not read config: [%v]", err)
		os.Exit(1)
	}

	logger := logrus.ConfigureStandardLogger(
		config.Logging.Format,
		config.Logging.Level,
	)

	settings, err := config.settings()
	if err != nil {
		logger.Fatalf("could not validate settings: [%v]", err)
	}

	accounts := tvtrader.NewAccountList(config.accounts()...)

	idService := &uuid.IDService{}

	orderRepository, err := createOrderRepository(ctx, logger, config)
	if err != nil {
		logger.Fatalf("could not create order repository: [%v]", err)
	}

	eventService, err := createEventService(ctx, logger, config)
	if err != nil {
		logger.Fatalf("could not create event service: [%v]", err)
	}

	httpClient := &http.Client{Timeout: httpClientTimeout}

	registry := tvtrader.NewRegistry(
		bittrex.NewClient(
			bittrex.DefaultBaseURL,
			httpClient,
			rest.NewNonceGenerator(),
			logger,
		),
		binance.NewClient(
			binance.DefaultBaseURL,
			httpClient,
			logger,
		),
	)

	balances := tvtrader.NewBalanceCaches()
	tickers := tvtrader.NewTickerCaches()
	transactions := tvtrader.NewTransactionCaches()

	builder := tvtrader.NewOrderBuilder(registry, tickers, logger)

	placer := tvtrader.NewOrderPlacer(
		accounts,
		registry,
		orderRepository,
		eventService,
		logger,
	)

	gainChecker := tvtrader.NewGainChecker(
		transactions,
		tickers,
		builder,
		logger,
	)

	refresher := tvtrader.NewCacheRefresher(
		registry,
		accounts,
		balances,
		tickers,
		transactions,
		logger,
	)

	openOrdersWatcher := tvtrader.NewOpenOrdersWatcher(
		registry,
		accounts,
		builder,
		placer,
		idService,
		settings.OpenOrdersExpiration,
		settings.RetryOrder,
		logger,
	)

	stoplossEngine := tvtrader.NewStoplossEngine(
		registry,
		accounts,
		balances,
		tickers,
		transactions,
		placer,
		idService,
		logger,
	)

	if eventService != nil {
		stoplossEngine.RegisterListener(
			tvtrader.NewEventPublishingListener(eventService),
		)
	}

	mailClient := imap.NewClient(
		&imap.Config{
			Address:        config.Imap.Address,
			Username:       config.Imap.Username,
			Password:       config.Imap.Password,
			Mailbox:        config.Imap.Mailbox,
			ExpectedSender: settings.ExpectedSender,
		},
		logger,
	)

	signalIngestion := tvtrader.NewSignalIngestion(
		mailClient,
		accounts,
		balances,
		builder,
		placer,
		gainChecker,
		idService,
		logger,
	)

	// Prime the caches so protection starts against live data rather than
	// empty snapshots.
	if err := refresher.RefreshTickers(ctx); err != nil {
		logger.Errorf("could not prime ticker caches: [%v]", err)
	}
	if err := refresher.RefreshAssets(ctx); err != nil {
		logger.Errorf("could not prime asset caches: [%v]", err)
	}

	if err := stoplossEngine.StartProtection(ctx); err != nil {
		logger.Fatalf("could not start stoploss protection: [%v]", err)
	}

	scheduler := tvtrader.NewScheduler(logger)

	scheduler.Schedule(
		"ticker-refresh",
		settings.TickerRefreshInterval,
		refresher.RefreshTickers,
	)
	scheduler.Schedule(
		"asset-refresh",
		settings.AssetRefreshInterval,
		refresher.RefreshAssets,
	)
	scheduler.Schedule(
		"mail-polling",
		settings.MailPollingInterval,
		signalIngestion.Run,
	)
	scheduler.Schedule(
		"stoploss-check",
		settings.StoplossCheckInterval,
		stoplossEngine.Check,
	)
	scheduler.Schedule(
		"open-orders-check",
		settings.OpenOrdersCheckInterval,
		openOrdersWatcher.Check,
	)
	scheduler.Schedule(
		"order-dispatch",
		settings.MailPollingInterval,
		placer.Dispatch,
	)

	scheduler.Start(ctx)

	logger.Infof("engine started")

	<-ctx.Done()

	logger.Infof("engine stopped")
}

func handleShutdownSignals(cancelCtx context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	cancelCtx()
}

func createOrderRepository(
	ctx context.Context,
	logger tvtrader.Logger,
	config *Config,
) (tvtrader.OrderRepository, error) {
	if len(config.Database.Address) == 0 {
		logger.Warningf(
			"no database address configured; " +
				"order records will be kept in memory only",
		)
		return inmem.NewOrderRepository(), nil
	}

	if err := postgres.RunMigration(
		logger,
		(*postgres.Config)(&config.Database),
	); err != nil {
		return nil, fmt.Errorf(
			"could not run postgres migration: [%v]",
			err,
		)
	}

	client, err := postgres.NewClient(
		ctx,
		logger,
		(*postgres.Config)(&config.Database),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"could not create postgres client: [%v]",
			err,
		)
	}

	return postgres.NewOrderRepository(client, &uuid.IDService{}), nil
}

func createEventService(
	ctx context.Context,
	logger tvtrader.Logger,
	config *Config,
) (tvtrader.EventService, error) {
	if len(config.PubSub.ProjectID) > 0 {
		client, err := pubsub.NewClient(
			ctx,
			config.PubSub.ProjectID,
			config.PubSub.NotificationsTopic,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"could not create pubsub client: [%v]",
				err,
			)
		}

		return pubsub.NewEventService(client, logger), nil
	}

	if len(config.Smtp.Host) > 0 {
		return notification.NewMailService(
			&notification.MailConfig{
				Host:      config.Smtp.Host,
				Port:      config.Smtp.Port,
				Username:  config.Smtp.Username,
				Password:  config.Smtp.Password,
				Recipient: config.Smtp.Recipient,
			},
			logger,
		), nil
	}

	logger.Warningf("no event service configured; notifications disabled")

	return nil, nil
}
