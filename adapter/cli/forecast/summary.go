package forecast

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var (
	summarySector    string
	summaryWeek      string
	summaryThreshold float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Flag days where the latest update drifted from the locked baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		weekStart, err := cli.ParseDate(summaryWeek)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(cmd.Context(), summarySector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		summary, err := app.Forecast.ExecutiveSummary(cmd.Context(), sector.ID(), weekStart, summaryThreshold)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		fmt.Printf("Baseline %s vs daily %s (threshold %.1f pp)\n",
			summary.BaselineRun, summary.DailyRun, summary.ThresholdPP)
		if len(summary.Flagged) == 0 {
			fmt.Println("No days drifted beyond the threshold")
			return nil
		}
		for _, day := range summary.Flagged {
			fmt.Printf("  %s  baseline %6.2f  daily %6.2f  delta %+6.2f  -> %s\n",
				day.TargetDate.Format(time.DateOnly),
				day.BaselineAdj, day.DailyAdj, day.DeltaPP, day.Recommendation)
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summarySector, "sector", "s", "", "sector id or name (required)")
	summaryCmd.Flags().StringVarP(&summaryWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	summaryCmd.Flags().Float64Var(&summaryThreshold, "threshold", 2, "drift threshold in percentage points")
	summaryCmd.MarkFlagRequired("sector")
	summaryCmd.MarkFlagRequired("week")
}
