package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/fetcher"
	"cryptomonitor/internal/market"
	"cryptomonitor/internal/portfolio"
	"cryptomonitor/internal/scheduler"
	"cryptomonitor/internal/state"
	"cryptomonitor/internal/storage"
)

// Options tune the engine.
type Options struct {
	FetchTimeout time.Duration
}

// Engine owns the periodic fetch cycle: fetch both feeds, map to the
// canonical coin lists, reconcile holdings, evaluate alerts, publish.
type Engine struct {
	opts       Options
	scheduler  *scheduler.Scheduler
	prices     fetcher.PriceFetcher
	listing    fetcher.ListingFetcher
	mapper     *market.Mapper
	reconciler *portfolio.Reconciler
	evaluator  *alerting.Evaluator
	shared     *state.Market
	snapshots  storage.SnapshotStore
	alertStore storage.AlertStore
	logger     zerolog.Logger

	inFlight atomic.Bool
}

// New constructs the engine. Both stores may be nil; the engine then
// runs without persistence.
func New(opts Options, sched *scheduler.Scheduler, prices fetcher.PriceFetcher, listing fetcher.ListingFetcher, shared *state.Market, notifier alerting.Notifier, snapshots storage.SnapshotStore, alertStore storage.AlertStore, logger zerolog.Logger) *Engine {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	return &Engine{
		opts:       opts,
		scheduler:  sched,
		prices:     prices,
		listing:    listing,
		mapper:     market.NewMapper(),
		reconciler: portfolio.NewReconciler(logger),
		evaluator:  alerting.NewEvaluator(notifier, logger),
		shared:     shared,
		snapshots:  snapshots,
		alertStore: alertStore,
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// Run begins the polling loop.
func (e *Engine) Run(ctx context.Context) error {
	if e.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return e.scheduler.Run(ctx, e.Cycle)
}

// Cycle executes one fetch/map/reconcile/evaluate/publish pass. A cycle
// still in flight when the next is due is skipped, never queued. Network
// failure in either fetch marks the state as disconnected, leaves the
// previous snapshot untouched, and reports the error so the scheduler
// retries on the short delay.
func (e *Engine) Cycle(ctx context.Context) error {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.logger.Warn().Msg("previous cycle still running, skipping")
		return nil
	}
	defer e.inFlight.Store(false)

	input := e.shared.BeginCycle()
	e.shared.SetStatus(state.StatusRefreshing)

	pricePayload, err := e.fetchPrices(ctx, input)
	if err != nil {
		e.shared.SetStatus(state.StatusNoConnection)
		return fmt.Errorf("fetch price feed: %w", err)
	}

	listingPayload, err := e.fetchListing(ctx, input.Currency)
	if err != nil {
		e.shared.SetStatus(state.StatusNoConnection)
		return fmt.Errorf("fetch listing feed: %w", err)
	}

	live := e.mapper.MapLivePrices(pricePayload, listingPayload, input.Currency, input.Symbols)
	listingView := e.mapper.MapListing(listingPayload, input.Currency)

	snapshot := e.reconciler.Reconcile(live, input.Holdings, input.Currency)
	_, fired := e.evaluator.Evaluate(ctx, live, input.Alerts, input.Currency)

	e.shared.CommitCycle(snapshot, input.Holdings, fired, listingView)
	e.shared.SetStatus(state.StatusSleeping)

	e.persist(ctx, snapshot, len(fired) > 0)

	e.logger.Debug().
		Int("coins", len(live)).
		Int("holdings", len(snapshot.Holdings)).
		Int("alerts_fired", len(fired)).
		Str("overall_value", snapshot.OverallValue.String()).
		Msg("cycle complete")
	return nil
}

func (e *Engine) fetchPrices(ctx context.Context, input state.CycleInput) (market.PriceMultiPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()
	return e.prices.FetchPrices(ctx, input.Currency, input.Symbols)
}

func (e *Engine) fetchListing(ctx context.Context, currency string) (market.ListingPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()
	return e.listing.FetchListing(ctx, currency)
}

// persist writes the cycle aggregate and, when alerts fired, the
// authoritative alert set as it stands after the batch removal.
// Persistence failure never fails the cycle.
func (e *Engine) persist(ctx context.Context, snapshot portfolio.Snapshot, alertsChanged bool) {
	if e.snapshots != nil {
		record := storage.SnapshotRecord{
			TakenAt:           snapshot.Taken,
			Currency:          snapshot.Currency,
			TotalPaid:         snapshot.TotalPaid,
			OverallValue:      snapshot.OverallValue,
			PositiveProfitSum: snapshot.PositiveProfitSum,
			NegativeProfitSum: snapshot.NegativeProfitSum,
			HoldingCount:      len(snapshot.Holdings),
		}
		if err := e.snapshots.InsertSnapshot(ctx, record); err != nil {
			e.logger.Error().Err(err).Msg("failed to persist snapshot")
		}
	}

	if e.alertStore != nil && alertsChanged {
		if err := e.alertStore.ReplaceAlerts(ctx, e.shared.Alerts()); err != nil {
			e.logger.Error().Err(err).Msg("failed to persist alert set")
		}
	}
}
