package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/market"
)

const tickerPath = "/v1/ticker/"

// CoinMarketCapOptions parameterise the broad listing client.
type CoinMarketCapOptions struct {
	BaseURL   string
	Limit     int
	Timeout   time.Duration
	UserAgent string
}

// CoinMarketCap fetches the unscoped market listing used for rank,
// 7-day change, and symbol-existence checks.
type CoinMarketCap struct {
	opts    CoinMarketCapOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCoinMarketCap constructs a broad listing client.
func NewCoinMarketCap(opts CoinMarketCapOptions, logger zerolog.Logger) *CoinMarketCap {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coinmarketcap.com"
	}

	return &CoinMarketCap{
		opts:    opts,
		logger:  logger.With().Str("component", "coinmarketcap_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchListing retrieves the full ticker listing converted into the given
// currency.
func (c *CoinMarketCap) FetchListing(ctx context.Context, currency string) (market.ListingPayload, error) {
	limit := c.opts.Limit
	if limit <= 0 {
		limit = 9999
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("convert", strings.ToUpper(strings.TrimSpace(currency)))

	endpoint := c.baseURL + tickerPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing feed error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := market.ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing feed: %w", err)
	}

	c.logger.Debug().Int("coins", len(payload)).Str("currency", currency).Msg("listing feed fetched")
	return payload, nil
}

var _ ListingFetcher = (*CoinMarketCap)(nil)
