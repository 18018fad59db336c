package suggest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var decideReject bool

var decideCmd = &cobra.Command{
	Use:   "decide <replan-suggestion-id>",
	Short: "Accept or reject a replan suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid suggestion id: %w", err)
		}

		suggestion, err := app.Suggestion.DecideReplan(cmd.Context(), id, !decideReject, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to decide suggestion: %w", err)
		}

		verdict := "accepted"
		if decideReject {
			verdict = "rejected"
		}
		fmt.Printf("Replan suggestion %s %s\n", suggestion.ID(), verdict)
		return nil
	},
}

func init() {
	decideCmd.Flags().BoolVar(&decideReject, "reject", false, "reject instead of accept")
}
