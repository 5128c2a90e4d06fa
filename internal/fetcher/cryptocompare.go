package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cryptomonitor/internal/market"
)

const priceMultiPath = "/data/pricemultifull"

// CryptoCompareOptions parameterise the restricted price feed client.
type CryptoCompareOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// CryptoCompare fetches per-symbol prices scoped to the active currency.
type CryptoCompare struct {
	opts    CryptoCompareOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCryptoCompare constructs a restricted price feed client.
func NewCryptoCompare(opts CryptoCompareOptions, logger zerolog.Logger) *CryptoCompare {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://min-api.cryptocompare.com"
	}

	return &CryptoCompare{
		opts:    opts,
		logger:  logger.With().Str("component", "cryptocompare_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchPrices retrieves the pricemultifull payload for the given symbols.
// An empty symbol list short-circuits to an empty payload without touching
// the network.
func (c *CryptoCompare) FetchPrices(ctx context.Context, currency string, symbols []string) (market.PriceMultiPayload, error) {
	if len(symbols) == 0 {
		return market.PriceMultiPayload{}, nil
	}

	query := url.Values{}
	query.Set("tsyms", strings.ToUpper(strings.TrimSpace(currency)))
	query.Set("fsyms", strings.ToUpper(strings.Join(symbols, ",")))

	endpoint := c.baseURL + priceMultiPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return market.PriceMultiPayload{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return market.PriceMultiPayload{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return market.PriceMultiPayload{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return market.PriceMultiPayload{}, fmt.Errorf("price feed error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := market.ParsePriceMulti(body)
	if err != nil {
		return market.PriceMultiPayload{}, fmt.Errorf("parse price feed: %w", err)
	}

	c.logger.Debug().Int("symbols", len(symbols)).Str("currency", currency).Msg("price feed fetched")
	return payload, nil
}

var _ PriceFetcher = (*CryptoCompare)(nil)
