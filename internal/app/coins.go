package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"cryptomonitor/internal/market"
)

// Coins fetches the broad market listing once and prints it.
func (a *App) Coins(ctx context.Context, opts CoinsOptions) error {
	currency := opts.Currency
	if currency == "" {
		currency = a.Config.App.Currency
	}

	_, listing := a.newFetchers()

	payload, err := listing.FetchListing(ctx, currency)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	coins := market.NewMapper().MapListing(payload, currency)

	limit := opts.Limit
	if limit <= 0 || limit > len(coins) {
		limit = len(coins)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Coin\tRank\tPrice\t1h%\t24h%\t7d%")

	printed := 0
	for _, coin := range coins {
		if printed >= limit {
			break
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\t%s\n",
			coin.ShortName,
			coin.RankIndex,
			coin.Price.String(),
			coin.Change1h.StringFixed(2),
			coin.Change24h.StringFixed(2),
			coin.Change7d.StringFixed(2),
		)
		printed++
	}

	writer.Flush()
	return nil
}
