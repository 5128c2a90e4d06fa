package fetcher

import (
	"context"

	"cryptomonitor/internal/market"
)

// PriceFetcher retrieves the restricted per-symbol price feed for the
// active display currency.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, currency string, symbols []string) (market.PriceMultiPayload, error)
}

// ListingFetcher retrieves the broad, unscoped market listing.
type ListingFetcher interface {
	FetchListing(ctx context.Context, currency string) (market.ListingPayload, error)
}
