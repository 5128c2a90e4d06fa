package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/portfolio"
)

// AddAlertOptions configure alert add.
type AddAlertOptions struct {
	Coin      string
	Currency  string
	Operator  alerting.Operator
	Threshold decimal.Decimal
}

// ListAlerts prints the persisted alert set.
func (a *App) ListAlerts(ctx context.Context) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	alerts, err := store.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts configured")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tCoin\tCurrency\tOperator\tThreshold")
	for i, alert := range alerts {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", i, alert.Coin, alert.Currency, alert.Operator, alert.ThresholdPrice.String())
	}
	writer.Flush()
	return nil
}

// AddAlert appends one alert to the persisted set.
func (a *App) AddAlert(ctx context.Context, opts AddAlertOptions) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	currency := opts.Currency
	if currency == "" {
		currency = a.Config.App.Currency
	}

	alerts, err := store.ListAlerts(ctx)
	if err != nil {
		return err
	}

	alert := alerting.Alert{
		Coin:           portfolio.NormalizeSymbol(opts.Coin),
		Currency:       currency,
		Operator:       opts.Operator,
		ThresholdPrice: opts.Threshold,
	}
	alerts = append(alerts, alert)

	if err := store.ReplaceAlerts(ctx, alerts); err != nil {
		return err
	}

	a.Logger.Info().Str("coin", alert.Coin).Str("operator", string(alert.Operator)).Str("threshold", alert.ThresholdPrice.String()).Msg("alert added")
	return nil
}

// RemoveAlert deletes the alert at the given list position.
func (a *App) RemoveAlert(ctx context.Context, index int) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	alerts, err := store.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(alerts) {
		return fmt.Errorf("alert index %d out of range (have %d)", index, len(alerts))
	}

	alerts = append(alerts[:index], alerts[index+1:]...)
	return store.ReplaceAlerts(ctx, alerts)
}
