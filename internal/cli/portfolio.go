package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cryptomonitor/internal/app"
)

var (
	lotPortfolio string
	lotBought    string
	lotPaid      string
	lotStartup   bool
	lotIndex     int
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage saved portfolios",
}

var portfolioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved portfolios",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListPortfolios(cmd.Context())
	},
}

var portfolioAddCoinCmd = &cobra.Command{
	Use:   "add-coin <symbol>",
	Short: "Add a purchase lot to a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bought, err := decimal.NewFromString(lotBought)
		if err != nil {
			return fmt.Errorf("invalid --bought value: %w", err)
		}
		paid, err := decimal.NewFromString(lotPaid)
		if err != nil {
			return fmt.Errorf("invalid --paid value: %w", err)
		}

		opts := app.AddLotOptions{
			Portfolio: lotPortfolio,
			Coin:      args[0],
			Bought:    bought,
			Paid:      paid,
			Startup:   lotStartup,
		}
		return getApp().AddLot(cmd.Context(), opts)
	},
}

var portfolioRemoveCoinCmd = &cobra.Command{
	Use:   "remove-coin <symbol>",
	Short: "Remove a purchase lot from a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RemoveLotOptions{
			Portfolio: lotPortfolio,
			Coin:      args[0],
			LotIndex:  lotIndex,
		}
		return getApp().RemoveLot(cmd.Context(), opts)
	},
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().DeletePortfolio(cmd.Context(), args[0])
	},
}

func init() {
	portfolioAddCoinCmd.Flags().StringVar(&lotPortfolio, "portfolio", "default", "Portfolio name")
	portfolioAddCoinCmd.Flags().StringVar(&lotBought, "bought", "0", "Amount of the coin bought")
	portfolioAddCoinCmd.Flags().StringVar(&lotPaid, "paid", "0", "Amount paid in display currency")
	portfolioAddCoinCmd.Flags().BoolVar(&lotStartup, "startup", false, "Load this portfolio when the engine starts")

	portfolioRemoveCoinCmd.Flags().StringVar(&lotPortfolio, "portfolio", "default", "Portfolio name")
	portfolioRemoveCoinCmd.Flags().IntVar(&lotIndex, "lot", 0, "Lot index of the coin to remove")

	portfolioCmd.AddCommand(portfolioListCmd)
	portfolioCmd.AddCommand(portfolioAddCoinCmd)
	portfolioCmd.AddCommand(portfolioRemoveCoinCmd)
	portfolioCmd.AddCommand(portfolioDeleteCmd)
}
