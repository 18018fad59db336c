package forecast

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var (
	updateSector string
	updateWeek   string
	updateAsOf   string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run a daily forecast update against the locked baseline week",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		weekStart, err := cli.ParseDate(updateWeek)
		if err != nil {
			return err
		}
		asOf, err := asOfOrNow(updateAsOf)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(cmd.Context(), updateSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		run, dailies, err := app.Forecast.DailyUpdate(cmd.Context(), sector.ID(), weekStart, asOf)
		if err != nil {
			return fmt.Errorf("failed to run daily update: %w", err)
		}

		fmt.Printf("Daily update run %s created (%s)\n", run.ID(), run.Status())
		printDailies(dailies)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVarP(&updateSector, "sector", "s", "", "sector id or name (required)")
	updateCmd.Flags().StringVarP(&updateWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	updateCmd.Flags().StringVar(&updateAsOf, "as-of", "", "forecast as-of date YYYY-MM-DD (default: now)")
	updateCmd.MarkFlagRequired("sector")
	updateCmd.MarkFlagRequired("week")
}
