// Package suggest detects baseline drift and manages the resulting
// replanning and daily suggestions.
package suggest

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var (
	detectSector string
	detectWeek   string
)

// Cmd is the suggest command group. Called without a subcommand it runs
// drift detection.
var Cmd = &cobra.Command{
	Use:   "suggest",
	Short: "Detect drift between the locked baseline and the latest update",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		weekStart, err := cli.ParseDate(detectWeek)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(ctx, detectSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		pctx, err := app.BuildPipeline(ctx, "suggestion", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		detection, err := app.Suggestion.Detect(ctx, pctx, sector.ID(), weekStart)
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to detect drift: %w", err)
		}

		if len(detection.Replans) == 0 && len(detection.Dailies) == 0 {
			fmt.Println("No drift beyond thresholds")
			return nil
		}
		if len(detection.Replans) > 0 {
			fmt.Printf("Replan suggestions (%d):\n", len(detection.Replans))
			for _, s := range detection.Replans {
				fmt.Printf("  %s  %s  %s  %.2f -> %.2f (%+.2f)  [%s]\n",
					s.ID(), s.TargetDate().Format(time.DateOnly), s.Type(),
					s.OriginalValue(), s.SuggestedValue(), s.Delta(), s.Priority())
				fmt.Printf("      %s\n", s.Reason())
			}
		}
		if len(detection.Dailies) > 0 {
			fmt.Printf("Daily suggestions (%d):\n", len(detection.Dailies))
			for _, d := range detection.Dailies {
				fmt.Printf("  %s  %s  %s/%s  %s\n",
					d.ID(), d.TargetDate().Format(time.DateOnly), d.Kind(), d.Category(), d.Message())
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&detectSector, "sector", "s", "", "sector id or name (required)")
	Cmd.Flags().StringVarP(&detectWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	Cmd.MarkFlagRequired("sector")
	Cmd.MarkFlagRequired("week")

	Cmd.AddCommand(decideCmd)
	Cmd.AddCommand(resolveCmd)
}
