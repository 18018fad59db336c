package rules

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var listSector string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules in force, grouped by kind and rigidity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := resolveScope(cmd, app, listSector)
		if err != nil {
			return err
		}

		groups, err := app.Rules.FetchRules(cmd.Context(), scope, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to fetch rules: %w", err)
		}

		for _, group := range groups {
			if len(group.Rules) == 0 {
				continue
			}
			fmt.Printf("%s / %s:\n", group.Kind, group.Rigidity)
			for _, rule := range group.Rules {
				scopeLabel := "global"
				if rule.SectorID() != nil {
					scopeLabel = "sector"
				}
				fmt.Printf("  %3d  %-40s  [%s, %s]  %s\n",
					rule.Priority(), rule.Title(), rule.Code(), scopeLabel, rule.ID())
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSector, "sector", "s", "", "include this sector's rules")
}
