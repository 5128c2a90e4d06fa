package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/config"
	"cryptomonitor/internal/display"
	"cryptomonitor/internal/fetcher"
	"cryptomonitor/internal/portfolio"
	"cryptomonitor/internal/scheduler"
	"cryptomonitor/internal/service"
	"cryptomonitor/internal/state"
	"cryptomonitor/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers() (fetcher.PriceFetcher, fetcher.ListingFetcher) {
	prices := fetcher.NewCryptoCompare(fetcher.CryptoCompareOptions{
		BaseURL:   a.Config.Feeds.PriceBaseURL,
		Timeout:   a.Config.Poller.RequestTimeout,
		UserAgent: a.Config.Feeds.UserAgent,
	}, a.Logger)

	listing := fetcher.NewCoinMarketCap(fetcher.CoinMarketCapOptions{
		BaseURL:   a.Config.Feeds.ListingBaseURL,
		Limit:     a.Config.Feeds.ListingLimit,
		Timeout:   a.Config.Poller.RequestTimeout,
		UserAgent: a.Config.Feeds.UserAgent,
	}, a.Logger)

	return prices, listing
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// loadInitialState pulls the startup portfolio and alert set from the
// store; an absent store or missing startup portfolio yields empty lists.
func (a *App) loadInitialState(ctx context.Context, store *storage.Store) *state.Market {
	currency := a.Config.App.Currency

	var holdings portfolio.Holdings
	var alerts []alerting.Alert

	if store != nil {
		name, loaded, err := store.LoadStartupPortfolio(ctx)
		switch {
		case err == nil:
			holdings = loaded
			a.Logger.Info().Str("portfolio", name).Int("lots", len(loaded)).Msg("startup portfolio loaded")
		case errors.Is(err, storage.ErrPortfolioNotFound):
			a.Logger.Info().Msg("no startup portfolio configured")
		default:
			a.Logger.Error().Err(err).Msg("failed to load startup portfolio")
		}

		loadedAlerts, err := store.ListAlerts(ctx)
		if err != nil {
			a.Logger.Error().Err(err).Msg("failed to load alerts")
		} else {
			alerts = loadedAlerts
		}
	}

	shared := state.New(currency, holdings, alerts)
	shared.ReplaceHoldings(holdings)
	return shared
}

// Run executes the long-running monitoring engine plus the console display.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	shared := a.loadInitialState(ctx, store)

	sched := scheduler.New(scheduler.Options{
		Interval:      a.Config.Poller.Interval,
		RetryInterval: a.Config.Poller.RetryDelay,
		StartupDelay:  a.Config.Poller.StartupDelay,
	}, a.Logger)

	prices, listing := a.newFetchers()
	notifier := a.newNotifier()

	var snapshotStore storage.SnapshotStore
	var alertStore storage.AlertStore
	if store != nil {
		snapshotStore = store
		alertStore = store
	}

	engine := service.New(service.Options{FetchTimeout: a.Config.Poller.RequestTimeout},
		sched, prices, listing, shared, notifier, snapshotStore, alertStore, a.Logger)

	console := display.NewConsole(a.Logger)
	go console.Run(ctx, shared, shared.Subscribe(1))

	a.Logger.Info().Str("currency", shared.Currency()).Msg("starting monitoring engine")
	err = engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("engine terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring engine stopped")
	return nil
}

// ExportOptions hold parameters for exporting snapshot history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// CoinsOptions configure the coins command.
type CoinsOptions struct {
	Limit    int
	Currency string
}
