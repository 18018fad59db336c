package stats

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var upToStr string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fold new samples into the weekday bias and hourly shares",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		upTo := time.Now().UTC()
		if upToStr != "" {
			parsed, err := cli.ParseDate(upToStr)
			if err != nil {
				return err
			}
			upTo = parsed
		}

		result, err := app.Stats.UpdateWeekdayBias(cmd.Context(), upTo)
		if err != nil {
			return fmt.Errorf("failed to update weekday bias: %w", err)
		}
		fmt.Printf("Weekday bias updated from %d paired samples\n", result.SamplesUsed)
		fmt.Printf("  Updated: %v\n", result.WeekdaysUpdated)
		if len(result.WeekdaysSkipped) > 0 {
			fmt.Printf("  Skipped (no samples): %v\n", result.WeekdaysSkipped)
		}

		if err := app.Stats.UpdateHourlyDistribution(cmd.Context()); err != nil {
			return fmt.Errorf("failed to update hourly distribution: %w", err)
		}
		fmt.Println("Hourly distribution shares recomputed")
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&upToStr, "up-to", "", "cutoff date YYYY-MM-DD (default: today)")
}
