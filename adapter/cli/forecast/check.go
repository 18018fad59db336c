package forecast

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var (
	checkSector string
	checkWeek   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify baseline prerequisites for a sector and week",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		weekStart, err := cli.ParseDate(checkWeek)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(cmd.Context(), checkSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		verdict, err := app.Forecast.CheckPrerequisites(cmd.Context(), sector.ID(), weekStart)
		if err != nil {
			return fmt.Errorf("failed to check prerequisites: %w", err)
		}

		for _, axis := range verdict.Axes {
			status := "ok"
			if !axis.OK {
				status = "MISSING"
				if !axis.Blocking {
					status = "warn"
				}
			}
			fmt.Printf("  %-24s %s", axis.Name, status)
			if axis.Message != "" {
				fmt.Printf("  (%s)", axis.Message)
			}
			fmt.Println()
		}
		if verdict.CanProceed {
			fmt.Println("Baseline can proceed")
		} else {
			fmt.Println("Baseline blocked: fix the missing prerequisites first")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkSector, "sector", "s", "", "sector id or name (required)")
	checkCmd.Flags().StringVarP(&checkWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	checkCmd.MarkFlagRequired("sector")
	checkCmd.MarkFlagRequired("week")
}
