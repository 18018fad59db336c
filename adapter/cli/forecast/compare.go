package forecast

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var compareCmd = &cobra.Command{
	Use:   "compare <run-a> <run-b>",
	Short: "Diff the adjusted occupancy of two runs day by day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		runA, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		runB, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[1], err)
		}

		comparison, err := app.Forecast.Compare(cmd.Context(), runA, runB)
		if err != nil {
			return fmt.Errorf("failed to compare runs: %w", err)
		}

		for _, row := range comparison.Rows {
			fmt.Printf("  %s  A %s  B %s  delta %s\n",
				row.TargetDate.Format(time.DateOnly),
				formatPct(row.OccAdjA), formatPct(row.OccAdjB), formatDelta(row.Delta))
		}
		fmt.Printf("Mean absolute delta: %.2f pp\n", comparison.MeanAbsDelta)
		return nil
	},
}

func formatPct(v *float64) string {
	if v == nil {
		return "   -  "
	}
	return fmt.Sprintf("%6.2f", *v)
}

func formatDelta(v *float64) string {
	if v == nil {
		return "   -  "
	}
	return fmt.Sprintf("%+6.2f", *v)
}
