package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/portfolio"
)

// PortfolioInfo describes a saved named portfolio.
type PortfolioInfo struct {
	Name      string
	Startup   bool
	Lots      int
	UpdatedAt time.Time
}

// SnapshotRecord is one persisted cycle aggregate.
type SnapshotRecord struct {
	TakenAt           time.Time
	Currency          string
	TotalPaid         decimal.Decimal
	OverallValue      decimal.Decimal
	PositiveProfitSum decimal.Decimal
	NegativeProfitSum decimal.Decimal
	HoldingCount      int
	CreatedAt         time.Time
}

// Profit is the overall gain or loss of the recorded cycle.
func (r SnapshotRecord) Profit() decimal.Decimal {
	return r.OverallValue.Sub(r.TotalPaid)
}

// holdingDoc is the JSON shape lots are stored as.
type holdingDoc struct {
	Coin         string          `json:"coin"`
	LotIndex     int             `json:"lot_index"`
	AmountBought decimal.Decimal `json:"amount_bought"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
}

func encodeHoldings(holdings portfolio.Holdings) ([]byte, error) {
	docs := make([]holdingDoc, len(holdings))
	for i, h := range holdings {
		docs[i] = holdingDoc{
			Coin:         h.Coin,
			LotIndex:     h.LotIndex,
			AmountBought: h.AmountBought,
			AmountPaid:   h.AmountPaid,
		}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode holdings: %w", err)
	}
	return payload, nil
}

func decodeHoldings(payload []byte) (portfolio.Holdings, error) {
	var docs []holdingDoc
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}

	holdings := make(portfolio.Holdings, len(docs))
	for i, d := range docs {
		holdings[i] = portfolio.Holding{
			Coin:         portfolio.NormalizeSymbol(d.Coin),
			LotIndex:     d.LotIndex,
			AmountBought: d.AmountBought,
			AmountPaid:   d.AmountPaid,
		}
	}
	return holdings.CompactLotIndexes(), nil
}
