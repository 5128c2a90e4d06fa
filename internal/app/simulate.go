package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/fetcher"
	"cryptomonitor/internal/market"
	"cryptomonitor/internal/portfolio"
	"cryptomonitor/internal/service"
	"cryptomonitor/internal/state"
)

// SimulateAlert 用给定的币价模拟一次完整的告警流程。
func (a *App) SimulateAlert(ctx context.Context, coin string, price, threshold decimal.Decimal, operator alerting.Operator) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	coin = portfolio.NormalizeSymbol(coin)
	currency := a.Config.App.Currency

	shared := state.New(currency, nil, []alerting.Alert{{
		Coin:           coin,
		Currency:       currency,
		Operator:       operator,
		ThresholdPrice: threshold,
	}})

	prices := &staticPriceFetcher{coin: coin, price: price}
	listing := &staticListingFetcher{coin: coin, price: price}

	engine := service.New(service.Options{FetchTimeout: a.Config.Poller.RequestTimeout},
		nil, prices, listing, shared, notifier, nil, nil, a.Logger)

	return engine.Cycle(ctx)
}

type staticPriceFetcher struct {
	coin  string
	price decimal.Decimal
}

func (s *staticPriceFetcher) FetchPrices(ctx context.Context, currency string, symbols []string) (market.PriceMultiPayload, error) {
	return market.PriceMultiPayload{
		Raw: map[string]map[string]market.PriceMultiEntry{
			s.coin: {
				currency: {
					FromSymbol: s.coin,
					Price:      market.FlexDecimal(s.price),
				},
			},
		},
	}, nil
}

type staticListingFetcher struct {
	coin  string
	price decimal.Decimal
}

func (s *staticListingFetcher) FetchListing(ctx context.Context, currency string) (market.ListingPayload, error) {
	return market.ListingPayload{{
		Symbol: s.coin,
		Rank:   1,
		Prices: map[string]decimal.Decimal{currency: s.price},
	}}, nil
}

var _ fetcher.PriceFetcher = (*staticPriceFetcher)(nil)
var _ fetcher.ListingFetcher = (*staticListingFetcher)(nil)
