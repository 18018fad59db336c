// Package agenda distributes governance activities over assigned shifts.
package agenda

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	agendaApplication "github.com/hotelops/roster/internal/agenda/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// Cmd is the agenda command.
var Cmd = &cobra.Command{
	Use:   "agenda <plan-id>",
	Short: "Generate daily activity agendas for a plan's assigned shifts",
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

		pctx, err := app.BuildPipeline(ctx, "agenda", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		agendas, err := app.Agenda.Generate(ctx, pctx, planID)
		pctx.Finish(ctx, err)
		if errors.Is(err, agendaApplication.ErrPlanLocked) {
			return fmt.Errorf("another agenda generation is running for this plan, try again shortly")
		}
		if err != nil {
			return fmt.Errorf("failed to generate agendas: %w", err)
		}

		conflicts := 0
		for _, a := range agendas {
			if a.HasConflict() {
				conflicts++
			}
		}
		fmt.Printf("Generated %d agendas (%d with conflicts)\n", len(agendas), conflicts)
		for _, a := range agendas {
			marker := " "
			if a.HasConflict() {
				marker = "!"
			}
			fmt.Printf("  %s %s  employee %s  %d/%d min  %d items\n",
				marker, a.TargetDate().Format(time.DateOnly), a.EmployeeID(),
				a.MinutesAllocated(), a.MinutesAvailable(), len(a.Items()))
		}
		return nil
	},
}
