package market

import (
	"strings"
)

// Mapper normalizes the two vendor payload shapes into canonical coin
// lists. It owns symbol aliasing and deduplication so that everything
// downstream joins on a single naming scheme.
type Mapper struct{}

// NewMapper constructs a Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapListing converts the broad market listing into the market-listing
// view: every listed coin, alias-rewritten, deduplicated, sorted by
// short name.
func (m *Mapper) MapListing(listing ListingPayload, currency string) List {
	coins := make(List, 0, len(listing))
	for _, entry := range listing {
		symbol := strings.ToUpper(strings.TrimSpace(entry.Symbol))
		if symbol == "" {
			continue
		}
		coins = append(coins, Coin{
			ShortName: symbol,
			Price:     entry.Price(currency),
			Change1h:  entry.PercentChange1h,
			Change24h: entry.PercentChange24,
			Change7d:  entry.PercentChange7d,
			RankIndex: entry.Rank,
		})
	}

	coins = applyAliases(coins)
	coins = dedupe(coins)
	coins.SortByShortName()
	return coins
}

// MapLivePrices joins the restricted price feed with the broad listing
// into the live-price view consumed by reconciliation and alerting. The
// result follows the requested symbol order, one coin per requested
// symbol that the restricted feed answered; the listing contributes rank
// and the 7-day change, which the restricted feed does not carry.
func (m *Mapper) MapLivePrices(prices PriceMultiPayload, listing ListingPayload, currency string, symbols []string) List {
	byListing := make(map[string]Coin)
	for _, coin := range m.MapListing(listing, currency) {
		byListing[coin.ShortName] = coin
	}

	currency = strings.ToUpper(currency)
	coins := make(List, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		perCurrency, ok := prices.Raw[symbol]
		if !ok {
			continue
		}
		entry, ok := perCurrency[currency]
		if !ok {
			continue
		}

		coin := Coin{
			ShortName: symbol,
			Price:     entry.Price.Decimal(),
			Change1h:  entry.ChangePctHour.Decimal(),
			Change24h: entry.ChangePct24Hour.Decimal(),
		}

		if listed, ok := byListing[CanonicalSymbol(symbol)]; ok {
			coin.Change7d = listed.Change7d
			coin.RankIndex = listed.RankIndex
		}

		coins = append(coins, coin)
	}

	coins = applyAliases(coins)
	return dedupe(coins)
}
