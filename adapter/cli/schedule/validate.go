package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	scheduleApplication "github.com/hotelops/roster/internal/schedule/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan-id>",
	Short: "Run legal validation on a plan and preview per-employee convocations",
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
		constraints, err := app.Rules.Constraints(ctx, sector.ID(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to resolve constraints: %w", err)
		}

		findings := scheduleApplication.ValidateLegal(plan, constraints, time.Now().UTC())
		if len(findings) == 0 {
			fmt.Println("Plan passes all legal checks")
		} else {
			fmt.Printf("Plan has %d findings:\n", len(findings))
			cli.PrintFindings(findings)
		}

		preview := scheduleApplication.ConvocationPreview(plan, findings)
		if len(preview) > 0 {
			fmt.Println("Convocation preview:")
			for _, employee := range preview {
				fmt.Printf("  %s  %d slots  %.2f hours  [%s]\n",
					employee.EmployeeID, len(employee.SlotIDs), employee.TotalHours, employee.Label)
				cli.PrintFindings(employee.Findings)
			}
		}
		return nil
	},
}
