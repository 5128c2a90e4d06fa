package market

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Coin is a feed-agnostic price record for one symbol in the active
// display currency.
type Coin struct {
	ShortName string
	Price     decimal.Decimal
	Change1h  decimal.Decimal
	Change24h decimal.Decimal
	Change7d  decimal.Decimal
	RankIndex int
}

// symbolAliases maps vendor tickers to the names used everywhere else in
// the application. NANO is the only known mismatch; keep this a flat table
// rather than inventing a general aliasing scheme.
var symbolAliases = map[string]string{
	"NANO": "XRB",
}

// CanonicalSymbol applies the vendor alias table to a ticker.
func CanonicalSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if alias, ok := symbolAliases[symbol]; ok {
		return alias
	}
	return symbol
}

// List is an ordered collection of coins keyed by ShortName.
type List []Coin

// Find returns the first coin with the given short name.
func (l List) Find(shortName string) (Coin, bool) {
	for _, c := range l {
		if c.ShortName == shortName {
			return c, true
		}
	}
	return Coin{}, false
}

// Contains reports whether a coin with the given short name is present.
func (l List) Contains(shortName string) bool {
	_, ok := l.Find(shortName)
	return ok
}

// Symbols returns the short names in list order.
func (l List) Symbols() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.ShortName
	}
	return out
}

// SortByShortName orders the list alphabetically in place.
func (l List) SortByShortName() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].ShortName < l[j].ShortName
	})
}

// dedupe keeps the first occurrence of every short name, preserving order.
func dedupe(coins List) List {
	seen := make(map[string]struct{}, len(coins))
	out := coins[:0]
	for _, c := range coins {
		if _, ok := seen[c.ShortName]; ok {
			continue
		}
		seen[c.ShortName] = struct{}{}
		out = append(out, c)
	}
	return out
}

// applyAliases rewrites vendor tickers in place.
func applyAliases(coins List) List {
	for i := range coins {
		coins[i].ShortName = CanonicalSymbol(coins[i].ShortName)
	}
	return coins
}
