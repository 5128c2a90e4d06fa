package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/app"
)

var (
	alertCurrency string
	alertOperator string
	alertPrice    string
	alertIndex    int
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage price alerts",
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListAlerts(cmd.Context())
	},
}

var alertAddCmd = &cobra.Command{
	Use:   "add <symbol>",
	Short: "Add a price alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		operator, err := alerting.ParseOperator(alertOperator)
		if err != nil {
			return err
		}
		threshold, err := decimal.NewFromString(alertPrice)
		if err != nil {
			return fmt.Errorf("invalid --price value: %w", err)
		}

		opts := app.AddAlertOptions{
			Coin:      args[0],
			Currency:  alertCurrency,
			Operator:  operator,
			Threshold: threshold,
		}
		return getApp().AddAlert(cmd.Context(), opts)
	},
}

var alertRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an alert by its list position",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RemoveAlert(cmd.Context(), alertIndex)
	},
}

func init() {
	alertAddCmd.Flags().StringVar(&alertCurrency, "currency", "", "Alert currency (defaults to config)")
	alertAddCmd.Flags().StringVar(&alertOperator, "operator", "gt", "Comparison operator: gt or lt")
	alertAddCmd.Flags().StringVar(&alertPrice, "price", "", "Threshold price")

	alertRemoveCmd.Flags().IntVar(&alertIndex, "index", 0, "Alert position as printed by alert list")
	_ = alertRemoveCmd.MarkFlagRequired("index")

	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertAddCmd)
	alertCmd.AddCommand(alertRemoveCmd)
}
