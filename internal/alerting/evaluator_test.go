package alerting

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cryptomonitor/internal/market"
)

type recordingNotifier struct {
	fired []Fired
}

func (r *recordingNotifier) Notify(ctx context.Context, fired Fired) error {
	r.fired = append(r.fired, fired)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluateFiresOnceAndRemoves(t *testing.T) {
	notifier := &recordingNotifier{}
	evaluator := NewEvaluator(notifier, zerolog.Nop())

	coins := market.List{{ShortName: "ETH", Price: dec("3500")}}
	alerts := []Alert{{Coin: "ETH", Currency: "USD", Operator: OperatorGreaterThan, ThresholdPrice: dec("3000")}}

	remaining, fired := evaluator.Evaluate(context.Background(), coins, alerts, "USD")

	if len(fired) != 1 {
		t.Fatalf("expected 1 fired alert, got %d", len(fired))
	}
	if !fired[0].Price.Equal(dec("3500")) {
		t.Fatalf("fired price wrong: %s", fired[0].Price)
	}
	if len(remaining) != 0 {
		t.Fatalf("fired alert must be removed, %d remain", len(remaining))
	}
	if len(notifier.fired) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifier.fired))
	}

	// 第二轮同价格不应再次触发：告警已被移除。
	remaining, fired = evaluator.Evaluate(context.Background(), coins, remaining, "USD")
	if len(fired) != 0 || len(remaining) != 0 {
		t.Fatalf("second pass must not re-fire, fired=%d remaining=%d", len(fired), len(remaining))
	}
	if len(notifier.fired) != 1 {
		t.Fatalf("notification duplicated: %d", len(notifier.fired))
	}
}

func TestEvaluateOperators(t *testing.T) {
	evaluator := NewEvaluator(nil, zerolog.Nop())
	coins := market.List{{ShortName: "BTC", Price: dec("5000")}}

	alerts := []Alert{
		{Coin: "BTC", Currency: "USD", Operator: OperatorGreaterThan, ThresholdPrice: dec("6000")},
		{Coin: "BTC", Currency: "USD", Operator: OperatorLessThan, ThresholdPrice: dec("6000")},
		{Coin: "BTC", Currency: "USD", Operator: OperatorLessThan, ThresholdPrice: dec("5000")},
	}

	remaining, fired := evaluator.Evaluate(context.Background(), coins, alerts, "USD")

	if len(fired) != 1 {
		t.Fatalf("only the strict less-than alert should fire, got %d", len(fired))
	}
	if fired[0].Alert.ThresholdPrice.Cmp(dec("6000")) != 0 {
		t.Fatalf("wrong alert fired: %+v", fired[0].Alert)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 alerts to remain, got %d", len(remaining))
	}
}

func TestEvaluateSkipsMissingCoin(t *testing.T) {
	evaluator := NewEvaluator(nil, zerolog.Nop())
	alerts := []Alert{{Coin: "GONE", Currency: "USD", Operator: OperatorGreaterThan, ThresholdPrice: dec("1")}}

	remaining, fired := evaluator.Evaluate(context.Background(), nil, alerts, "USD")

	if len(fired) != 0 {
		t.Fatal("absent coin must not fire")
	}
	if len(remaining) != 1 {
		t.Fatal("absent coin must keep the alert for later cycles")
	}
}

func TestEvaluateSkipsOtherCurrency(t *testing.T) {
	evaluator := NewEvaluator(nil, zerolog.Nop())
	coins := market.List{{ShortName: "BTC", Price: dec("9000")}}
	alerts := []Alert{{Coin: "BTC", Currency: "EUR", Operator: OperatorGreaterThan, ThresholdPrice: dec("1")}}

	remaining, fired := evaluator.Evaluate(context.Background(), coins, alerts, "USD")

	if len(fired) != 0 || len(remaining) != 1 {
		t.Fatalf("alert in another currency must be skipped, fired=%d remaining=%d", len(fired), len(remaining))
	}
}

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		"gt":           OperatorGreaterThan,
		"Greater Than": OperatorGreaterThan,
		"<":            OperatorLessThan,
	}
	for raw, want := range cases {
		got, err := ParseOperator(raw)
		if err != nil {
			t.Fatalf("ParseOperator(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseOperator(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := ParseOperator("between"); err == nil {
		t.Fatal("unknown operator should error")
	}
}
