package cli

import (
	"github.com/spf13/cobra"

	"cryptomonitor/internal/app"
)

var (
	coinsLimit    int
	coinsCurrency string
)

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Fetch and display the market listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CoinsOptions{
			Limit:    coinsLimit,
			Currency: coinsCurrency,
		}
		return getApp().Coins(cmd.Context(), opts)
	},
}

func init() {
	coinsCmd.Flags().IntVar(&coinsLimit, "limit", 25, "Number of coins to display")
	coinsCmd.Flags().StringVar(&coinsCurrency, "currency", "", "Display currency (defaults to config)")
}
