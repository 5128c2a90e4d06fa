package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCoinMarketCapSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("convert") != "EUR" {
			t.Fatalf("convert wrong: %s", query.Get("convert"))
		}
		if query.Get("limit") != "100" {
			t.Fatalf("limit wrong: %s", query.Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"BTC","rank":"1","price_usd":"6000","price_eur":"5100","percent_change_7d":"2.5"}]`))
	}))
	defer srv.Close()

	c := NewCoinMarketCap(CoinMarketCapOptions{BaseURL: srv.URL, Limit: 100, Timeout: time.Second}, noopLogger())

	payload, err := c.FetchListing(context.Background(), "eur")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(payload) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(payload))
	}
	if !payload[0].Price("EUR").Equal(decimal.NewFromInt(5100)) {
		t.Fatalf("eur price wrong: %s", payload[0].Price("EUR"))
	}
}

func TestCoinMarketCapHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCoinMarketCap(CoinMarketCapOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := c.FetchListing(context.Background(), "USD"); err == nil {
		t.Fatal("HTTP 503 should error")
	}
}

func TestCoinMarketCapMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewCoinMarketCap(CoinMarketCapOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := c.FetchListing(context.Background(), "USD"); err == nil {
		t.Fatal("non-array body should error")
	}
}
