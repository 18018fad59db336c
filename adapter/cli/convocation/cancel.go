package convocation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel <convocation-id>",
	Short: "Cancel a pending convocation",
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

		convocation, err := app.Convocation.Cancel(cmd.Context(), id, cancelReason)
		if err != nil {
			return fmt.Errorf("failed to cancel convocation: %w", err)
		}

		fmt.Printf("Convocation %s cancelled\n", convocation.ID())
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "cancellation reason (required)")
	cancelCmd.MarkFlagRequired("reason")
}
