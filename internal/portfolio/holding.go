package portfolio

import (
	"strings"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/market"
)

// Holding is one configured purchase lot. A coin may have several lots,
// distinguished by LotIndex, which stays contiguous per coin from zero.
type Holding struct {
	Coin                  string
	LotIndex              int
	AmountBought          decimal.Decimal
	AmountPaid            decimal.Decimal
	StartupPrice          decimal.Decimal
	PendingStartupCapture bool
}

// Key identifies a lot within a holdings list.
type Key struct {
	Coin     string
	LotIndex int
}

// Key returns the lot identity.
func (h Holding) Key() Key {
	return Key{Coin: h.Coin, LotIndex: h.LotIndex}
}

// Holdings is an ordered list of lots.
type Holdings []Holding

// Clone returns a deep copy; lots hold only value fields.
func (hs Holdings) Clone() Holdings {
	out := make(Holdings, len(hs))
	copy(out, hs)
	return out
}

// Symbols returns the unique coin symbols in first-appearance order.
func (hs Holdings) Symbols() []string {
	seen := make(map[string]struct{}, len(hs))
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		if _, ok := seen[h.Coin]; ok {
			continue
		}
		seen[h.Coin] = struct{}{}
		out = append(out, h.Coin)
	}
	return out
}

// NextLotIndex returns the lot index a new lot of the given coin takes.
func (hs Holdings) NextLotIndex(coin string) int {
	coin = NormalizeSymbol(coin)
	count := 0
	for _, h := range hs {
		if h.Coin == coin {
			count++
		}
	}
	return count
}

// Find returns the lot with the given identity.
func (hs Holdings) Find(key Key) (Holding, bool) {
	for _, h := range hs {
		if h.Key() == key {
			return h, true
		}
	}
	return Holding{}, false
}

// Remove deletes the lot with the given identity and compacts the lot
// indices of the remaining lots of that coin.
func (hs Holdings) Remove(key Key) Holdings {
	out := make(Holdings, 0, len(hs))
	for _, h := range hs {
		if h.Key() == key {
			continue
		}
		out = append(out, h)
	}
	return out.CompactLotIndexes()
}

// CompactLotIndexes renumbers every coin's lots contiguously from zero,
// preserving list order.
func (hs Holdings) CompactLotIndexes() Holdings {
	next := make(map[string]int, len(hs))
	for i := range hs {
		hs[i].LotIndex = next[hs[i].Coin]
		next[hs[i].Coin]++
	}
	return hs
}

// NormalizeSymbol upper-cases, trims, and alias-rewrites a user-supplied
// coin symbol. Lots and alerts always carry canonical symbols so they
// join against the mapped coin lists.
func NormalizeSymbol(symbol string) string {
	return market.CanonicalSymbol(strings.TrimSpace(symbol))
}
