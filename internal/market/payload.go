package market

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexDecimal decodes a JSON number, a numeric string, or null. Absent,
// null, or unparseable values decode to zero instead of failing the cycle.
type FlexDecimal decimal.Decimal

// UnmarshalJSON implements tolerant decoding.
func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexDecimal(decimal.Zero)
		return nil
	}

	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = FlexDecimal(decimal.Zero)
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		*f = FlexDecimal(decimal.Zero)
		return nil
	}

	*f = FlexDecimal(d)
	return nil
}

// Decimal converts back to the shopspring representation.
func (f FlexDecimal) Decimal() decimal.Decimal {
	return decimal.Decimal(f)
}

// FlexInt decodes a JSON number or numeric string; defaults to zero.
type FlexInt int

// UnmarshalJSON implements tolerant decoding.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}

	*f = FlexInt(int(n))
	return nil
}

// PriceMultiPayload is the raw shape of the restricted price feed: a map
// keyed by symbol, then by currency.
type PriceMultiPayload struct {
	Raw map[string]map[string]PriceMultiEntry `json:"RAW"`
}

// PriceMultiEntry carries the per-symbol fields the engine consumes.
type PriceMultiEntry struct {
	FromSymbol      string      `json:"FROMSYMBOL"`
	Price           FlexDecimal `json:"PRICE"`
	ChangePctHour   FlexDecimal `json:"CHANGEPCTHOUR"`
	ChangePct24Hour FlexDecimal `json:"CHANGEPCT24HOUR"`
}

// ParsePriceMulti decodes a restricted price feed response.
func ParsePriceMulti(body []byte) (PriceMultiPayload, error) {
	var payload PriceMultiPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return PriceMultiPayload{}, err
	}
	return payload, nil
}

// ListingEntry is one coin from the broad market listing. Price fields are
// vendor-named per currency (price_usd, price_eur, ...), so decoding keeps
// every price_* member keyed by upper-cased currency.
type ListingEntry struct {
	Symbol          string
	Rank            int
	PercentChange1h decimal.Decimal
	PercentChange24 decimal.Decimal
	PercentChange7d decimal.Decimal
	Prices          map[string]decimal.Decimal
}

// Price returns the listing price in the given currency, zero when the
// vendor did not convert into it.
func (e ListingEntry) Price(currency string) decimal.Decimal {
	if p, ok := e.Prices[strings.ToUpper(currency)]; ok {
		return p
	}
	return decimal.Zero
}

const listingPricePrefix = "price_"

// UnmarshalJSON decodes one listing object, defaulting every absent or
// malformed field to zero.
func (e *ListingEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["symbol"]; ok {
		_ = json.Unmarshal(raw, &e.Symbol)
	}

	var rank FlexInt
	if raw, ok := fields["rank"]; ok {
		_ = rank.UnmarshalJSON(raw)
	}
	e.Rank = int(rank)

	e.PercentChange1h = flexField(fields, "percent_change_1h")
	e.PercentChange24 = flexField(fields, "percent_change_24h")
	e.PercentChange7d = flexField(fields, "percent_change_7d")

	e.Prices = make(map[string]decimal.Decimal)
	for key, raw := range fields {
		if !strings.HasPrefix(key, listingPricePrefix) {
			continue
		}
		currency := strings.ToUpper(strings.TrimPrefix(key, listingPricePrefix))
		if currency == "" {
			continue
		}
		var value FlexDecimal
		_ = value.UnmarshalJSON(raw)
		e.Prices[currency] = value.Decimal()
	}

	return nil
}

func flexField(fields map[string]json.RawMessage, key string) decimal.Decimal {
	raw, ok := fields[key]
	if !ok {
		return decimal.Zero
	}
	var value FlexDecimal
	_ = value.UnmarshalJSON(raw)
	return value.Decimal()
}

// ListingPayload is the raw shape of the broad market listing.
type ListingPayload []ListingEntry

// ParseListing decodes a broad market listing response.
func ParseListing(body []byte) (ListingPayload, error) {
	var payload ListingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
