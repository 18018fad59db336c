package convocation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var declineNoReschedule bool

var declineCmd = &cobra.Command{
	Use:   "decline <convocation-id>",
	Short: "Record a decline and auto-offer the slot to the next candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid convocation id: %w", err)
		}
		existing, err := app.Convocation.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load convocation: %w", err)
		}
		sector, err := app.Sectors.FindByID(ctx, existing.SectorID())
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		pctx, err := app.BuildPipeline(ctx, "convocation", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		declined, successor, err := app.Convocation.Decline(ctx, pctx, id, time.Now().UTC(), !declineNoReschedule)
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to decline convocation: %w", err)
		}

		fmt.Printf("Convocation %s declined\n", declined.ID())
		if successor != nil {
			fmt.Printf("Rescheduled: convocation %s offered to employee %s\n",
				successor.ID(), successor.EmployeeID())
		} else if !declineNoReschedule {
			fmt.Println("No eligible replacement found, slot stays open")
		}
		return nil
	},
}

func init() {
	declineCmd.Flags().BoolVar(&declineNoReschedule, "no-reschedule", false, "skip the automatic replacement offer")
}
