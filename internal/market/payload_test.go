package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePriceMultiToleratesMissingFields(t *testing.T) {
	body := []byte(`{"RAW":{"BTC":{"USD":{"PRICE":6000.5,"CHANGEPCT24HOUR":null}}}}`)

	payload, err := ParsePriceMulti(body)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	entry := payload.Raw["BTC"]["USD"]
	if !entry.Price.Decimal().Equal(decimal.NewFromFloat(6000.5)) {
		t.Fatalf("price wrong: %s", entry.Price.Decimal())
	}
	if !entry.ChangePct24Hour.Decimal().IsZero() {
		t.Fatalf("null change should decode to zero, got %s", entry.ChangePct24Hour.Decimal())
	}
	if !entry.ChangePctHour.Decimal().IsZero() {
		t.Fatalf("absent change should decode to zero, got %s", entry.ChangePctHour.Decimal())
	}
}

func TestParseListingStringNumbersAndNulls(t *testing.T) {
	body := []byte(`[
		{"symbol":"BTC","rank":"1","price_usd":"6000.5","price_eur":"5100.0","percent_change_7d":"3.1"},
		{"symbol":"XRP","rank":null,"price_usd":null,"percent_change_24h":"bogus"}
	]`)

	payload, err := ParseListing(body)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(payload))
	}

	btc := payload[0]
	if btc.Rank != 1 {
		t.Fatalf("string rank should parse, got %d", btc.Rank)
	}
	if !btc.Price("usd").Equal(decimal.NewFromFloat(6000.5)) {
		t.Fatalf("usd price wrong: %s", btc.Price("usd"))
	}
	if !btc.Price("EUR").Equal(decimal.NewFromFloat(5100.0)) {
		t.Fatalf("eur price wrong: %s", btc.Price("EUR"))
	}
	if !btc.PercentChange7d.Equal(decimal.NewFromFloat(3.1)) {
		t.Fatalf("7d change wrong: %s", btc.PercentChange7d)
	}

	xrp := payload[1]
	if xrp.Rank != 0 {
		t.Fatalf("null rank should default to zero, got %d", xrp.Rank)
	}
	if !xrp.Price("USD").IsZero() {
		t.Fatalf("null price should default to zero, got %s", xrp.Price("USD"))
	}
	if !xrp.PercentChange24.IsZero() {
		t.Fatalf("bogus change should default to zero, got %s", xrp.PercentChange24)
	}
	if !xrp.Price("GBP").IsZero() {
		t.Fatal("unknown currency should read as zero")
	}
}
