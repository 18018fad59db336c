package forecast

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/internal/forecast/domain"
)

var (
	baselineSector string
	baselineWeek   string
	baselineAsOf   string
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Create a baseline forecast run for a week",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		weekStart, err := cli.ParseDate(baselineWeek)
		if err != nil {
			return err
		}
		asOf, err := asOfOrNow(baselineAsOf)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(cmd.Context(), baselineSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		run, dailies, err := app.Forecast.CreateBaseline(cmd.Context(), sector.ID(), weekStart, asOf)
		if err != nil {
			return fmt.Errorf("failed to create baseline: %w", err)
		}

		fmt.Printf("Baseline run %s created (%s)\n", run.ID(), run.Status())
		printDailies(dailies)
		return nil
	},
}

func asOfOrNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return cli.ParseDate(s)
}

func printDailies(dailies []*domain.ForecastDaily) {
	for _, d := range dailies {
		fmt.Printf("  %s  raw %6.2f  bias %+5.2f  safety %+5.2f  adj %6.2f  [%s]\n",
			d.TargetDate.Format(time.DateOnly), d.OccRaw, d.BiasPP, d.SafetyPP, d.OccAdj, d.Source)
	}
}

func init() {
	baselineCmd.Flags().StringVarP(&baselineSector, "sector", "s", "", "sector id or name (required)")
	baselineCmd.Flags().StringVarP(&baselineWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	baselineCmd.Flags().StringVar(&baselineAsOf, "as-of", "", "forecast as-of date YYYY-MM-DD (default: now)")
	baselineCmd.MarkFlagRequired("sector")
	baselineCmd.MarkFlagRequired("week")
}
