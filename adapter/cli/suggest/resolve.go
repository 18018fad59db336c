package suggest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var resolveIgnore bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <daily-suggestion-id>",
	Short: "Apply or ignore a daily operational suggestion",
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

		suggestion, err := app.Suggestion.ResolveDaily(cmd.Context(), id, !resolveIgnore, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to resolve suggestion: %w", err)
		}

		fmt.Printf("Daily suggestion %s marked %s\n", suggestion.ID(), suggestion.Status())
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveIgnore, "ignore", false, "ignore instead of apply")
}
