package schedule

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/internal/schedule/domain"
)

var (
	generateSector string
	generateWeek   string
	generateRun    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a baseline shift plan from a forecast run's demand",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := runGenerate(cmd, generateSector, generateWeek, generateRun, domain.PlanBaseline, "")
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func runGenerate(cmd *cobra.Command, sectorRef, weekStr, runRef string, kind domain.PlanKind, baselineRef string) (*domain.SchedulePlan, error) {
	app := cli.GetApp()
	if app == nil {
		return nil, fmt.Errorf("application not initialized - database connection required")
	}
	ctx := cmd.Context()

	weekStart, err := cli.ParseDate(weekStr)
	if err != nil {
		return nil, err
	}
	sector, err := app.ResolveSector(ctx, sectorRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sector: %w", err)
	}
	run, err := app.ResolveRun(ctx, sector.ID(), weekStart, runRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forecast run: %w", err)
	}
	demand, err := app.DemandRows.DailiesForRun(ctx, run.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load demand: %w", err)
	}
	if len(demand) == 0 {
		return nil, fmt.Errorf("no demand computed for run %s, run 'roster demand' first", run.ID())
	}

	baselinePlanID, err := parseBaselineRef(baselineRef)
	if err != nil {
		return nil, err
	}

	pctx, err := app.BuildPipeline(ctx, "schedule", sector, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to build planning context: %w", err)
	}
	plan, err := app.Schedule.Generate(ctx, pctx, run, demand, kind, baselinePlanID)
	pctx.Finish(ctx, err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	return plan, nil
}

func printPlan(plan *domain.SchedulePlan) {
	totals := plan.Totals()
	fmt.Printf("Plan %s (%s, %s) for week %s\n",
		plan.ID(), plan.Kind(), plan.Status(), plan.WeekStart().Format(time.DateOnly))
	fmt.Printf("  Slots: %d  Headcount: %d  Hours: %.2f\n",
		len(plan.Slots()), totals.Headcount, totals.Hours)
	if delta := plan.Delta(); delta != nil {
		fmt.Printf("  Delta vs baseline: %+d heads, %+.2f hours\n",
			delta.HeadcountDelta, delta.HoursDelta)
	}
	if findings := plan.Validations(); len(findings) > 0 {
		fmt.Println("  Findings:")
		cli.PrintFindings(findings)
	}
}

func init() {
	generateCmd.Flags().StringVarP(&generateSector, "sector", "s", "", "sector id or name (required)")
	generateCmd.Flags().StringVarP(&generateWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	generateCmd.Flags().StringVarP(&generateRun, "run", "r", "", "forecast run id (default: locked baseline)")
	generateCmd.MarkFlagRequired("sector")
	generateCmd.MarkFlagRequired("week")
}
