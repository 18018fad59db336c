// Package stats refreshes the derived statistics projections.
package stats

import (
	"github.com/spf13/cobra"
)

// Cmd is the stats command group.
var Cmd = &cobra.Command{
	Use:   "stats",
	Short: "Refresh weekday bias and hourly distribution statistics",
}

func init() {
	Cmd.AddCommand(updateCmd)
}
