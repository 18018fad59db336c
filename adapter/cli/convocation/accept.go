package convocation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <convocation-id>",
	Short: "Record an employee's acceptance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid convocation id: %w", err)
		}

		convocation, err := app.Convocation.Accept(cmd.Context(), id, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to accept convocation: %w", err)
		}

		fmt.Printf("Convocation %s accepted (%.2f hours on %s)\n",
			convocation.ID(), convocation.TotalHours(),
			convocation.TargetDate().Format(time.DateOnly))
		return nil
	},
}
