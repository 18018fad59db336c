package rules

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var seedSector string

var seedCmd = &cobra.Command{
	Use:   "seed <template.json>",
	Short: "Seed rules from a JSON template (idempotent on rule code)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		scope, err := resolveScope(cmd, app, seedSector)
		if err != nil {
			return err
		}

		result, err := app.Rules.SeedFromJSON(cmd.Context(), data, scope)
		if err != nil {
			return fmt.Errorf("failed to seed rules: %w", err)
		}

		fmt.Printf("Seeded %d rules (%d already present)\n", result.Created, result.Skipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedSector, "sector", "s", "", "also instantiate sector-scope rules for this sector")
}
