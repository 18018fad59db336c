// Package assign fills a plan's open slots with eligible employees.
package assign

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// Cmd is the assign command.
var Cmd = &cobra.Command{
	Use:   "assign <plan-id>",
	Short: "Assign employees to a plan's open shift slots",
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

		pctx, err := app.BuildPipeline(ctx, "assignment", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		result, err := app.Assignment.Assign(ctx, pctx, planID)
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to assign plan: %w", err)
		}

		fmt.Printf("Filled %d slots\n", result.FilledSlots)
		for _, m := range result.Metrics {
			fmt.Printf("  %-24s %d slots  %.2f hours\n", m.Name, m.SlotsAssigned, m.WeeklyHours)
		}
		if len(result.Violations) > 0 {
			fmt.Println("Violations:")
			cli.PrintFindings(result.Violations)
		}
		return nil
	},
}
