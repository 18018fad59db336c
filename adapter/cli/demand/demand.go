// Package demand computes staffing requirements from a forecast run.
package demand

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	demandSector string
	demandWeek   string
	demandRun    string
)

// Cmd is the demand command.
var Cmd = &cobra.Command{
	Use:   "demand",
	Short: "Compute daily staffing demand for a forecast run",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		weekStart, err := cli.ParseDate(demandWeek)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(ctx, demandSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}
		run, err := app.ResolveRun(ctx, sector.ID(), weekStart, demandRun)
		if err != nil {
			return fmt.Errorf("failed to resolve forecast run: %w", err)
		}
		forecastDailies, err := app.ForecastRuns.DailiesForRun(ctx, run.ID())
		if err != nil {
			return fmt.Errorf("failed to load forecast dailies: %w", err)
		}

		pctx, err := app.BuildPipeline(ctx, "demand", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		dailies, err := app.Demand.ComputeForRun(ctx, pctx, run, forecastDailies)
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to compute demand: %w", err)
		}

		fmt.Printf("Demand for run %s (%d days)\n", run.ID(), len(dailies))
		for _, d := range dailies {
			fmt.Printf("  %s %-13s  rooms %3d  dep %3d/%s  arr %3d/%s  hours %6.2f  heads %.2f -> %d\n",
				d.TargetDate.Format(time.DateOnly),
				workforce.WeekdayOf(d.TargetDate).DisplayNamePT(),
				d.OccupiedRooms,
				d.DeparturesCount, d.DeparturesSource,
				d.ArrivalsCount, d.ArrivalsSource,
				d.HoursTotal, d.HeadcountRequired, d.HeadcountRounded)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&demandSector, "sector", "s", "", "sector id or name (required)")
	Cmd.Flags().StringVarP(&demandWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	Cmd.Flags().StringVarP(&demandRun, "run", "r", "", "forecast run id (default: locked baseline)")
	Cmd.MarkFlagRequired("sector")
	Cmd.MarkFlagRequired("week")
}
