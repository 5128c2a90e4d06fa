package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cryptomonitor/internal/market"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReconcileDerivedMetrics(t *testing.T) {
	coins := market.List{{ShortName: "BTC", Price: dec("6000")}}
	holdings := Holdings{{
		Coin:         "BTC",
		LotIndex:     0,
		AmountBought: dec("2"),
		AmountPaid:   dec("10000"),
		StartupPrice: dec("4000"),
	}}

	snapshot := NewReconciler(zerolog.Nop()).Reconcile(coins, holdings, "USD")

	if len(snapshot.Holdings) != 1 {
		t.Fatalf("expected 1 metrics entry, got %d", len(snapshot.Holdings))
	}
	m := snapshot.Holdings[0]

	checks := []struct {
		name string
		got  decimal.Decimal
		want decimal.Decimal
	}{
		{"BoughtPrice", m.BoughtPrice, dec("5000")},
		{"Total", m.Total, dec("12000")},
		{"Profit", m.Profit, dec("2000")},
		{"ChangeDollar", m.ChangeDollar, dec("2000")},
		{"ChangePercent", m.ChangePercent, dec("50")},
		{"ProfitRatio", m.ProfitRatio, dec("0.2")},
		{"TotalPaid", snapshot.TotalPaid, dec("10000")},
		{"OverallValue", snapshot.OverallValue, dec("12000")},
		{"PositiveProfitSum", snapshot.PositiveProfitSum, dec("2000")},
		{"SnapshotProfit", snapshot.Profit(), dec("2000")},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestReconcileZeroGuards(t *testing.T) {
	coins := market.List{{ShortName: "ETH", Price: dec("400")}}
	holdings := Holdings{{
		Coin:         "ETH",
		AmountBought: decimal.Zero,
		AmountPaid:   decimal.Zero,
		StartupPrice: decimal.Zero,
	}}

	snapshot := NewReconciler(zerolog.Nop()).Reconcile(coins, holdings, "USD")
	m := snapshot.Holdings[0]

	if !m.BoughtPrice.IsZero() {
		t.Errorf("BoughtPrice must be 0 when AmountBought is 0, got %s", m.BoughtPrice)
	}
	if !m.ProfitRatio.IsZero() {
		t.Errorf("ProfitRatio must be 0 when AmountPaid is 0, got %s", m.ProfitRatio)
	}
	if !m.ChangePercent.IsZero() {
		t.Errorf("ChangePercent must be 0 when StartupPrice is 0, got %s", m.ChangePercent)
	}
}

func TestReconcileStandInForMissingSymbol(t *testing.T) {
	holdings := Holdings{
		{Coin: "BTC", AmountBought: dec("1"), AmountPaid: dec("100")},
		{Coin: "GONE", AmountBought: dec("5"), AmountPaid: dec("50")},
	}
	coins := market.List{{ShortName: "BTC", Price: dec("120")}}

	snapshot := NewReconciler(zerolog.Nop()).Reconcile(coins, holdings, "USD")

	if len(snapshot.Holdings) != 2 {
		t.Fatalf("stand-in must keep holding count stable, got %d", len(snapshot.Holdings))
	}

	gone := snapshot.Holdings[1]
	if !gone.StandIn {
		t.Fatal("expected stand-in marker for missing symbol")
	}
	if !gone.Coin.Price.IsZero() {
		t.Fatalf("stand-in price must be zero, got %s", gone.Coin.Price)
	}
	if !gone.Profit.Equal(dec("-50")) {
		t.Fatalf("stand-in profit wrong: %s", gone.Profit)
	}
	if !snapshot.NegativeProfitSum.Equal(dec("-50")) {
		t.Fatalf("negative profit sum wrong: %s", snapshot.NegativeProfitSum)
	}
	if !snapshot.PositiveProfitSum.Equal(dec("20")) {
		t.Fatalf("positive profit sum wrong: %s", snapshot.PositiveProfitSum)
	}
}

func TestReconcileAliasedLotMatchesCanonicalList(t *testing.T) {
	// Mapped coin lists only ever carry canonical symbols, so a lot
	// entered under a vendor alias must be stored canonically to price.
	holdings := Holdings{{
		Coin:         NormalizeSymbol("NANO"),
		AmountBought: dec("100"),
		AmountPaid:   dec("500"),
	}}
	coins := market.List{{ShortName: "XRB", Price: dec("9")}}

	snapshot := NewReconciler(zerolog.Nop()).Reconcile(coins, holdings, "USD")

	m := snapshot.Holdings[0]
	if m.StandIn {
		t.Fatal("aliased lot must price against the canonical symbol, not a stand-in")
	}
	if !m.Total.Equal(dec("900")) {
		t.Fatalf("total wrong: %s", m.Total)
	}
}

func TestReconcileStartupCapture(t *testing.T) {
	reconciler := NewReconciler(zerolog.Nop())
	holdings := Holdings{
		{Coin: "BTC", PendingStartupCapture: true},
		{Coin: "GONE", PendingStartupCapture: true},
	}
	coins := market.List{{ShortName: "BTC", Price: dec("6000")}}

	reconciler.Reconcile(coins, holdings, "USD")

	if holdings[0].PendingStartupCapture {
		t.Fatal("capture flag should clear after a real price")
	}
	if !holdings[0].StartupPrice.Equal(dec("6000")) {
		t.Fatalf("startup price not captured: %s", holdings[0].StartupPrice)
	}

	// A stand-in price must not satisfy the capture.
	if !holdings[1].PendingStartupCapture {
		t.Fatal("capture flag must survive a feed gap")
	}
	if !holdings[1].StartupPrice.IsZero() {
		t.Fatalf("startup price must stay zero through a feed gap, got %s", holdings[1].StartupPrice)
	}

	// Second pass must not overwrite the captured price.
	coins[0].Price = dec("7000")
	reconciler.Reconcile(coins, holdings, "USD")
	if !holdings[0].StartupPrice.Equal(dec("6000")) {
		t.Fatalf("startup price must be written exactly once, got %s", holdings[0].StartupPrice)
	}
}
