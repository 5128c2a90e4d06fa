package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/portfolio"
	"cryptomonitor/internal/storage"
)

// AddLotOptions configure portfolio add-coin.
type AddLotOptions struct {
	Portfolio string
	Coin      string
	Bought    decimal.Decimal
	Paid      decimal.Decimal
	Startup   bool
}

// RemoveLotOptions configure portfolio remove-coin.
type RemoveLotOptions struct {
	Portfolio string
	Coin      string
	LotIndex  int
}

// ListPortfolios prints the saved portfolios.
func (a *App) ListPortfolios(ctx context.Context) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	infos, err := store.ListPortfolios(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(os.Stdout, "no portfolios found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tStartup\tLots\tUpdated (UTC)")
	for _, info := range infos {
		startup := ""
		if info.Startup {
			startup = "*"
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\n", info.Name, startup, info.Lots, info.UpdatedAt.UTC().Format(time.RFC3339))
	}
	writer.Flush()
	return nil
}

// AddLot appends one purchase lot to a saved portfolio, creating the
// portfolio when it does not exist yet. The lot gets the next contiguous
// index for its coin.
func (a *App) AddLot(ctx context.Context, opts AddLotOptions) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return a.addLot(ctx, store, opts)
}

func (a *App) addLot(ctx context.Context, store storage.PortfolioStore, opts AddLotOptions) error {
	holdings, startup, err := store.LoadPortfolio(ctx, opts.Portfolio)
	if err != nil && !errors.Is(err, storage.ErrPortfolioNotFound) {
		return err
	}

	coin := portfolio.NormalizeSymbol(opts.Coin)
	lot := portfolio.Holding{
		Coin:         coin,
		LotIndex:     holdings.NextLotIndex(coin),
		AmountBought: opts.Bought,
		AmountPaid:   opts.Paid,
	}
	holdings = append(holdings, lot)

	// Editing lots never clears an existing startup flag.
	if err := store.SavePortfolio(ctx, opts.Portfolio, startup || opts.Startup, holdings); err != nil {
		return err
	}

	a.Logger.Info().Str("portfolio", opts.Portfolio).Str("coin", coin).Int("lot", lot.LotIndex).Msg("lot added")
	return nil
}

// RemoveLot deletes one lot from a saved portfolio and compacts the
// remaining lot indices of that coin.
func (a *App) RemoveLot(ctx context.Context, opts RemoveLotOptions) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return a.removeLot(ctx, store, opts)
}

func (a *App) removeLot(ctx context.Context, store storage.PortfolioStore, opts RemoveLotOptions) error {
	holdings, startup, err := store.LoadPortfolio(ctx, opts.Portfolio)
	if err != nil {
		return err
	}

	key := portfolio.Key{Coin: portfolio.NormalizeSymbol(opts.Coin), LotIndex: opts.LotIndex}
	if _, ok := holdings.Find(key); !ok {
		return fmt.Errorf("no lot %s[%d] in portfolio %q", key.Coin, key.LotIndex, opts.Portfolio)
	}

	holdings = holdings.Remove(key)
	if err := store.SavePortfolio(ctx, opts.Portfolio, startup, holdings); err != nil {
		return err
	}

	a.Logger.Info().Str("portfolio", opts.Portfolio).Str("coin", key.Coin).Int("lot", key.LotIndex).Msg("lot removed")
	return nil
}

// DeletePortfolio removes a saved portfolio entirely.
func (a *App) DeletePortfolio(ctx context.Context, name string) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return store.DeletePortfolio(ctx, name)
}

func (a *App) requireStore(ctx context.Context) (*storage.Store, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("database not configured")
	}
	if closeStore == nil {
		closeStore = func() {}
	}
	return store, closeStore, nil
}
