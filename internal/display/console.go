package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/portfolio"
	"cryptomonitor/internal/state"
)

// Console is a minimal display collaborator: it consumes published
// snapshots and prints a portfolio summary per refresh. It only ever
// reads from the shared state; all edits flow the other way.
type Console struct {
	out    io.Writer
	logger zerolog.Logger
}

// NewConsole constructs a console display writing to stdout.
func NewConsole(logger zerolog.Logger) *Console {
	return &Console{
		out:    os.Stdout,
		logger: logger.With().Str("component", "console_display").Logger(),
	}
}

// Run consumes snapshots until ctx is cancelled.
func (c *Console) Run(ctx context.Context, shared *state.Market, snapshots <-chan portfolio.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			c.render(snapshot, shared.Status())
		}
	}
}

func (c *Console) render(snapshot portfolio.Snapshot, status state.Status) {
	writer := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Status: %s\tCurrency: %s\tRefreshed: %s\n", status, snapshot.Currency, snapshot.Taken.Format("15:04:05"))
	fmt.Fprintln(writer, "Coin\tLot\tPrice\tBought\tPaid\tTotal\tProfit\tRatio\tChange$\tChange%\t1h%\t24h%\t7d%")

	for _, m := range snapshot.Holdings {
		lot := ""
		if m.Holding.LotIndex > 0 || multiLot(snapshot.Holdings, m.Holding.Coin) {
			lot = fmt.Sprintf("[%d]", m.Holding.LotIndex+1)
		}
		fmt.Fprintf(writer, "%s\t%s\t$%s\t%s\t$%s\t$%s\t$%s\t%s\t$%s\t%s%%\t%s%%\t%s%%\t%s%%\n",
			m.Coin.ShortName,
			lot,
			m.Coin.Price.String(),
			m.Holding.AmountBought.String(),
			m.Holding.AmountPaid.StringFixed(2),
			m.Total.StringFixed(2),
			m.Profit.StringFixed(2),
			m.ProfitRatio.StringFixed(2),
			m.ChangeDollar.StringFixed(6),
			m.ChangePercent.StringFixed(2),
			m.Coin.Change1h.StringFixed(2),
			m.Coin.Change24h.StringFixed(2),
			m.Coin.Change7d.StringFixed(2),
		)
	}

	fmt.Fprintf(writer, "Overall: $%s\tPaid: $%s\tProfit: $%s\t(+$%s / -$%s)\n",
		snapshot.OverallValue.StringFixed(2),
		snapshot.TotalPaid.StringFixed(2),
		snapshot.Profit().StringFixed(2),
		snapshot.PositiveProfitSum.StringFixed(2),
		snapshot.NegativeProfitSum.Abs().StringFixed(2),
	)

	if err := writer.Flush(); err != nil {
		c.logger.Error().Err(err).Msg("failed to render snapshot")
	}
}

func multiLot(metrics []portfolio.HoldingMetrics, coin string) bool {
	count := 0
	for _, m := range metrics {
		if m.Holding.Coin == coin {
			count++
			if count > 1 {
				return true
			}
		}
	}
	return false
}
