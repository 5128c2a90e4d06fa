package portfolio

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cryptomonitor/internal/market"
)

var oneHundred = decimal.NewFromInt(100)

// HoldingMetrics carries the derived figures for one lot in one cycle.
type HoldingMetrics struct {
	Holding       Holding
	Coin          market.Coin
	StandIn       bool
	BoughtPrice   decimal.Decimal
	Total         decimal.Decimal
	Profit        decimal.Decimal
	ProfitRatio   decimal.Decimal
	ChangeDollar  decimal.Decimal
	ChangePercent decimal.Decimal
}

// Snapshot aggregates one reconciliation pass over all holdings.
type Snapshot struct {
	Currency          string
	Taken             time.Time
	TotalPaid         decimal.Decimal
	OverallValue      decimal.Decimal
	PositiveProfitSum decimal.Decimal
	NegativeProfitSum decimal.Decimal
	Holdings          []HoldingMetrics
}

// Profit is the overall gain or loss across all lots.
func (s Snapshot) Profit() decimal.Decimal {
	return s.OverallValue.Sub(s.TotalPaid)
}

// Reconciler joins canonical coins against the configured lots.
type Reconciler struct {
	logger zerolog.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(logger zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger.With().Str("component", "reconciler").Logger()}
}

// Reconcile computes per-lot metrics and aggregate totals for the given
// live-price coins, one entry per holding in list order. Holdings whose
// symbol is absent from the coin list get a zero-priced stand-in so the
// lot count and ordering stay stable through feed gaps. Pending startup
// captures are written into the holdings slice in place, only when a real
// price was observed.
func (r *Reconciler) Reconcile(coins market.List, holdings Holdings, currency string) Snapshot {
	snapshot := Snapshot{
		Currency:          currency,
		Taken:             time.Now().UTC(),
		TotalPaid:         decimal.Zero,
		OverallValue:      decimal.Zero,
		PositiveProfitSum: decimal.Zero,
		NegativeProfitSum: decimal.Zero,
		Holdings:          make([]HoldingMetrics, 0, len(holdings)),
	}

	for i := range holdings {
		coin, found := coins.Find(holdings[i].Coin)
		if !found {
			coin = market.Coin{ShortName: holdings[i].Coin}
		}

		if holdings[i].PendingStartupCapture && found {
			holdings[i].StartupPrice = coin.Price
			holdings[i].PendingStartupCapture = false
		}

		metrics := computeMetrics(holdings[i], coin)
		metrics.StandIn = !found

		snapshot.TotalPaid = snapshot.TotalPaid.Add(holdings[i].AmountPaid)
		snapshot.OverallValue = snapshot.OverallValue.Add(holdings[i].AmountPaid).Add(metrics.Profit)
		if metrics.Profit.Sign() >= 0 {
			snapshot.PositiveProfitSum = snapshot.PositiveProfitSum.Add(metrics.Profit)
		} else {
			snapshot.NegativeProfitSum = snapshot.NegativeProfitSum.Add(metrics.Profit)
		}

		snapshot.Holdings = append(snapshot.Holdings, metrics)

		if !found {
			r.logger.Debug().Str("coin", holdings[i].Coin).Int("lot", holdings[i].LotIndex).Msg("symbol missing from feed, using zero-priced stand-in")
		}
	}

	return snapshot
}

func computeMetrics(h Holding, coin market.Coin) HoldingMetrics {
	m := HoldingMetrics{
		Holding:       h,
		Coin:          coin,
		BoughtPrice:   decimal.Zero,
		ProfitRatio:   decimal.Zero,
		ChangePercent: decimal.Zero,
	}

	if !h.AmountBought.IsZero() {
		m.BoughtPrice = h.AmountPaid.Div(h.AmountBought)
	}

	m.Total = h.AmountBought.Mul(coin.Price)
	m.Profit = m.Total.Sub(h.AmountPaid)
	m.ChangeDollar = coin.Price.Sub(h.StartupPrice)

	if !h.StartupPrice.IsZero() {
		m.ChangePercent = coin.Price.Sub(h.StartupPrice).Div(h.StartupPrice).Mul(oneHundred)
	}

	if !h.AmountPaid.IsZero() {
		m.ProfitRatio = m.Profit.Div(h.AmountPaid)
	}

	return m
}
