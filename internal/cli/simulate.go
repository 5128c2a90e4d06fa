package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cryptomonitor/internal/alerting"
)

var (
	simulatePrice     string
	simulateThreshold string
	simulateOperator  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <symbol>",
	Short: "Simulate one alert cycle with a fixed price",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(simulatePrice)
		if err != nil {
			return fmt.Errorf("invalid --price value: %w", err)
		}
		threshold, err := decimal.NewFromString(simulateThreshold)
		if err != nil {
			return fmt.Errorf("invalid --threshold value: %w", err)
		}
		operator, err := alerting.ParseOperator(simulateOperator)
		if err != nil {
			return err
		}

		return getApp().SimulateAlert(cmd.Context(), args[0], price, threshold, operator)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePrice, "price", "", "Simulated live price")
	simulateCmd.Flags().StringVar(&simulateThreshold, "threshold", "", "Alert threshold price")
	simulateCmd.Flags().StringVar(&simulateOperator, "operator", "gt", "Comparison operator: gt or lt")
}
