package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var (
	overrideDate   string
	overrideCount  int
	overrideReason string
)

var overrideCmd = &cobra.Command{
	Use:   "override <plan-id>",
	Short: "Manually override the headcount of one plan day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		planID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}
		date, err := cli.ParseDate(overrideDate)
		if err != nil {
			return err
		}

		plan, err := app.Plans.FindPlan(ctx, planID)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		if plan == nil {
			return &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
		}
		sector, err := app.Sectors.FindByID(ctx, plan.SectorID())
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}
		constraints, err := app.Rules.Constraints(ctx, sector.ID(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to resolve constraints: %w", err)
		}

		log, err := app.Schedule.OverrideHeadcount(ctx, planID, date, overrideCount,
			overrideReason, sector.Parameters(), constraints.LunchMinutes)
		if err != nil {
			return fmt.Errorf("failed to override headcount: %w", err)
		}

		fmt.Printf("Headcount for %s overridden %d -> %d (log %s)\n",
			date.Format(time.DateOnly), log.PriorCount, log.NewCount, log.ID)
		return nil
	},
}

func init() {
	overrideCmd.Flags().StringVarP(&overrideDate, "date", "d", "", "target date YYYY-MM-DD (required)")
	overrideCmd.Flags().IntVarP(&overrideCount, "count", "n", 0, "new headcount (required)")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "override reason (required)")
	overrideCmd.MarkFlagRequired("date")
	overrideCmd.MarkFlagRequired("count")
	overrideCmd.MarkFlagRequired("reason")
}
