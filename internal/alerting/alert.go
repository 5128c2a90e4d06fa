package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Operator compares a live price against an alert threshold.
type Operator string

const (
	// OperatorGreaterThan fires when the live price exceeds the threshold.
	OperatorGreaterThan Operator = "Greater Than"
	// OperatorLessThan fires when the live price drops below the threshold.
	OperatorLessThan Operator = "Less Than"
)

// ParseOperator validates a user-supplied operator string.
func ParseOperator(raw string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "greater than", "greater", "gt", ">":
		return OperatorGreaterThan, nil
	case "less than", "less", "lt", "<":
		return OperatorLessThan, nil
	default:
		return "", fmt.Errorf("unknown operator %q", raw)
	}
}

// Alert is one configured price trigger. It fires at most once: a fired
// alert is removed from the active set and never re-evaluated.
type Alert struct {
	Coin           string
	Currency       string
	Operator       Operator
	ThresholdPrice decimal.Decimal
}

// Matches reports whether the alert applies to the given live price.
func (a Alert) Matches(price decimal.Decimal) bool {
	switch a.Operator {
	case OperatorGreaterThan:
		return price.GreaterThan(a.ThresholdPrice)
	case OperatorLessThan:
		return price.LessThan(a.ThresholdPrice)
	default:
		return false
	}
}

// Fired pairs a triggered alert with the price that tripped it.
type Fired struct {
	Alert Alert
	Price decimal.Decimal
	At    time.Time
}
