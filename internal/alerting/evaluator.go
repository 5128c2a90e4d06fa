package alerting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/market"
)

// Evaluator matches live prices against the active alert set.
type Evaluator struct {
	notifier Notifier
	logger   zerolog.Logger
}

// NewEvaluator constructs an Evaluator. A nil notifier is tolerated;
// fired alerts are then only logged and removed.
func NewEvaluator(notifier Notifier, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		notifier: notifier,
		logger:   logger.With().Str("component", "alert_evaluator").Logger(),
	}
}

// Evaluate runs one pass over the active alerts against the live-price
// coins. Alerts whose coin is absent from the list, or whose currency is
// not the active one, are kept untouched; absence is transient. Fired
// alerts are collected first, notified once each, then removed from the
// returned set in a single batch so the set is never mutated while it is
// being walked.
func (e *Evaluator) Evaluate(ctx context.Context, coins market.List, alerts []Alert, currency string) (remaining []Alert, fired []Fired) {
	if len(alerts) == 0 {
		return alerts, nil
	}

	now := time.Now().UTC()
	firedSet := make(map[int]struct{})

	for i, alert := range alerts {
		if alert.Currency != currency {
			continue
		}

		coin, ok := coins.Find(alert.Coin)
		if !ok {
			continue
		}

		if alert.Matches(coin.Price) {
			firedSet[i] = struct{}{}
			fired = append(fired, Fired{Alert: alert, Price: coin.Price, At: now})
		}
	}

	for _, f := range fired {
		e.logger.Info().
			Str("coin", f.Alert.Coin).
			Str("operator", string(f.Alert.Operator)).
			Str("threshold", f.Alert.ThresholdPrice.String()).
			Str("price", f.Price.String()).
			Msg("alert fired")

		if e.notifier == nil {
			continue
		}
		if err := e.notifier.Notify(ctx, f); err != nil {
			e.logger.Error().Err(err).Str("coin", f.Alert.Coin).Msg("failed to dispatch alert")
		}
	}

	if len(firedSet) == 0 {
		return alerts, nil
	}

	remaining = make([]Alert, 0, len(alerts)-len(firedSet))
	for i, alert := range alerts {
		if _, ok := firedSet[i]; ok {
			continue
		}
		remaining = append(remaining, alert)
	}
	return remaining, fired
}
