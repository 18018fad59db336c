package forecast

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var lockCmd = &cobra.Command{
	Use:   "lock <run-id>",
	Short: "Lock a baseline run, superseding any previous lock for the week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}

		run, err := app.Forecast.Lock(cmd.Context(), runID)
		if err != nil {
			return fmt.Errorf("failed to lock run: %w", err)
		}

		fmt.Printf("Run %s locked at %s\n", run.ID(), run.LockedAt().Format("2006-01-02 15:04:05"))
		return nil
	},
}
