package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestCryptoCompareEmptySymbols(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewCryptoCompare(CryptoCompareOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	payload, err := c.FetchPrices(context.Background(), "USD", nil)
	if err != nil {
		t.Fatalf("empty symbol list should not error: %v", err)
	}
	if len(payload.Raw) != 0 {
		t.Fatalf("expected empty payload, got %d entries", len(payload.Raw))
	}
	if called {
		t.Fatal("no HTTP request expected for empty symbol list")
	}
}

func TestCryptoCompareSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("tsyms") != "USD" {
			t.Fatalf("tsyms wrong: %s", query.Get("tsyms"))
		}
		if query.Get("fsyms") != "BTC,ETH" {
			t.Fatalf("fsyms wrong: %s", query.Get("fsyms"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"RAW":{"BTC":{"USD":{"FROMSYMBOL":"BTC","PRICE":6000,"CHANGEPCT24HOUR":5.5}}}}`))
	}))
	defer srv.Close()

	c := NewCryptoCompare(CryptoCompareOptions{BaseURL: srv.URL, Timeout: time.Second, UserAgent: "test"}, noopLogger())

	payload, err := c.FetchPrices(context.Background(), "usd", []string{"btc", "eth"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	entry := payload.Raw["BTC"]["USD"]
	if !entry.Price.Decimal().Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("price wrong: %s", entry.Price.Decimal())
	}
}

func TestCryptoCompareHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCryptoCompare(CryptoCompareOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := c.FetchPrices(context.Background(), "USD", []string{"BTC"}); err == nil {
		t.Fatal("HTTP 502 should error")
	}
}

func TestCryptoCompareUnreachable(t *testing.T) {
	c := NewCryptoCompare(CryptoCompareOptions{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, noopLogger())

	if _, err := c.FetchPrices(context.Background(), "USD", []string{"BTC"}); err == nil {
		t.Fatal("unreachable endpoint should error")
	}
}
