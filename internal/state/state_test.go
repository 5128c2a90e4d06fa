package state

import (
	"testing"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/market"
	"cryptomonitor/internal/portfolio"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBeginCycleSymbolsUnion(t *testing.T) {
	shared := New("USD",
		portfolio.Holdings{{Coin: "BTC"}, {Coin: "ETH"}, {Coin: "BTC", LotIndex: 1}},
		[]alerting.Alert{{Coin: "XRB", Currency: "USD"}, {Coin: "ETH", Currency: "USD"}},
	)

	input := shared.BeginCycle()

	want := []string{"BTC", "ETH", "XRB"}
	if len(input.Symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", input.Symbols, want)
	}
	for i := range want {
		if input.Symbols[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", input.Symbols, want)
		}
	}
}

func TestEditsVisibleToNextCycleOnly(t *testing.T) {
	shared := New("USD", nil, nil)

	input := shared.BeginCycle()
	if len(input.Holdings) != 0 {
		t.Fatalf("expected empty cycle input, got %d holdings", len(input.Holdings))
	}

	lot, err := shared.AddHolding("btc")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if lot.Coin != "BTC" || lot.LotIndex != 0 || !lot.PendingStartupCapture {
		t.Fatalf("unexpected new lot: %+v", lot)
	}

	// The edit did not leak into the snapshot already taken.
	if len(input.Holdings) != 0 {
		t.Fatal("cycle input mutated by concurrent edit")
	}

	next := shared.BeginCycle()
	if len(next.Holdings) != 1 {
		t.Fatalf("edit must be visible to the next cycle, got %d holdings", len(next.Holdings))
	}
}

func TestCommitCycleAppliesCaptures(t *testing.T) {
	shared := New("USD", portfolio.Holdings{{Coin: "BTC", PendingStartupCapture: true}}, nil)

	input := shared.BeginCycle()
	input.Holdings[0].StartupPrice = dec("6000")
	input.Holdings[0].PendingStartupCapture = false

	shared.CommitCycle(portfolio.Snapshot{}, input.Holdings, nil, nil)

	holdings := shared.Holdings()
	if holdings[0].PendingStartupCapture {
		t.Fatal("capture flag should have cleared")
	}
	if !holdings[0].StartupPrice.Equal(dec("6000")) {
		t.Fatalf("startup price not applied: %s", holdings[0].StartupPrice)
	}
}

func TestCommitCycleKeepsMidCycleEdits(t *testing.T) {
	shared := New("USD", portfolio.Holdings{{Coin: "BTC"}}, nil)

	input := shared.BeginCycle()

	// Lot added while the cycle is in flight must survive the commit.
	if _, err := shared.AddHolding("ETH"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	shared.CommitCycle(portfolio.Snapshot{}, input.Holdings, nil, nil)

	holdings := shared.Holdings()
	if len(holdings) != 2 {
		t.Fatalf("mid-cycle edit lost, have %d lots", len(holdings))
	}
}

func TestCommitCycleRemovesFiredAlertsOnly(t *testing.T) {
	a1 := alerting.Alert{Coin: "BTC", Currency: "USD", Operator: alerting.OperatorGreaterThan, ThresholdPrice: dec("1")}
	a2 := alerting.Alert{Coin: "ETH", Currency: "USD", Operator: alerting.OperatorLessThan, ThresholdPrice: dec("2")}
	shared := New("USD", nil, []alerting.Alert{a1, a2})

	shared.CommitCycle(portfolio.Snapshot{}, nil, []alerting.Fired{{Alert: a1}}, nil)

	alerts := shared.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert left, got %d", len(alerts))
	}
	if alerts[0].Coin != "ETH" {
		t.Fatalf("wrong alert removed: %+v", alerts)
	}
}

func TestSetCurrencyRearmsCaptures(t *testing.T) {
	shared := New("USD", portfolio.Holdings{{Coin: "BTC", StartupPrice: dec("5000")}}, nil)

	shared.SetCurrency("EUR")

	holdings := shared.Holdings()
	if !holdings[0].PendingStartupCapture {
		t.Fatal("currency change must re-arm the startup capture")
	}
	if shared.Currency() != "EUR" {
		t.Fatalf("currency not applied: %s", shared.Currency())
	}

	// Same currency again is a no-op.
	shared.CommitCycle(portfolio.Snapshot{}, portfolio.Holdings{{Coin: "BTC", StartupPrice: dec("4500")}}, nil, nil)
	shared.SetCurrency("EUR")
	if shared.Holdings()[0].PendingStartupCapture {
		t.Fatal("setting the same currency must not re-arm captures")
	}
}

func TestRemoveHoldingCompacts(t *testing.T) {
	shared := New("USD", portfolio.Holdings{
		{Coin: "BTC", LotIndex: 0},
		{Coin: "BTC", LotIndex: 1},
	}, nil)

	if !shared.RemoveHolding(portfolio.Key{Coin: "BTC", LotIndex: 0}) {
		t.Fatal("remove should succeed")
	}

	holdings := shared.Holdings()
	if len(holdings) != 1 || holdings[0].LotIndex != 0 {
		t.Fatalf("lot indices not compacted: %+v", holdings)
	}
}

func TestSubscribeNeverBlocksPublisher(t *testing.T) {
	shared := New("USD", nil, nil)
	ch := shared.Subscribe(1)

	// Publish more snapshots than the buffer holds with no consumer.
	for i := 0; i < 5; i++ {
		shared.CommitCycle(portfolio.Snapshot{TotalPaid: decimal.NewFromInt(int64(i))}, nil, nil, nil)
	}

	// The newest snapshot wins.
	snapshot := <-ch
	if !snapshot.TotalPaid.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected latest snapshot, got paid=%s", snapshot.TotalPaid)
	}
}

func TestCoinExists(t *testing.T) {
	shared := New("USD", nil, nil)
	shared.CommitCycle(portfolio.Snapshot{}, nil, nil, market.List{{ShortName: "XRB"}})

	if !shared.CoinExists("nano") {
		t.Fatal("alias should resolve against the listing")
	}
	if shared.CoinExists("DOGE") {
		t.Fatal("unknown coin should not exist")
	}
}

func TestAddHoldingCanonicalizesAgainstListing(t *testing.T) {
	shared := New("USD", nil, nil)
	shared.CommitCycle(portfolio.Snapshot{}, nil, nil, market.List{{ShortName: "XRB"}, {ShortName: "BTC"}})

	// 以别名添加的币必须落到规范符号上，否则永远对不上行情。
	lot, err := shared.AddHolding("NANO")
	if err != nil {
		t.Fatalf("aliased symbol should be accepted: %v", err)
	}
	if lot.Coin != "XRB" {
		t.Fatalf("lot must carry the canonical symbol, got %s", lot.Coin)
	}

	input := shared.BeginCycle()
	if len(input.Symbols) != 1 || input.Symbols[0] != "XRB" {
		t.Fatalf("cycle must request the canonical symbol, got %v", input.Symbols)
	}

	if _, err := shared.AddHolding("NOTACOIN"); err == nil {
		t.Fatal("unknown coin must be rejected once a listing is known")
	}
}

func TestAddHoldingBeforeFirstListing(t *testing.T) {
	shared := New("USD", nil, nil)

	// No listing fetched yet; the existence check cannot apply.
	if _, err := shared.AddHolding("BTC"); err != nil {
		t.Fatalf("add before first listing should succeed: %v", err)
	}
}

func TestStatusLifecycle(t *testing.T) {
	shared := New("USD", nil, nil)
	if shared.Status() != StatusLoading {
		t.Fatalf("initial status should be Loading, got %s", shared.Status())
	}

	shared.SetStatus(StatusNoConnection)
	if shared.Status() != StatusNoConnection {
		t.Fatalf("status not applied: %s", shared.Status())
	}
}
