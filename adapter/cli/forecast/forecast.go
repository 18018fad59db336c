// Package forecast drives the occupancy forecast lifecycle.
package forecast

import (
	"github.com/spf13/cobra"
)

// Cmd is the forecast command group.
var Cmd = &cobra.Command{
	Use:   "forecast",
	Short: "Create, lock, and inspect occupancy forecast runs",
}

func init() {
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(baselineCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(lockCmd)
	Cmd.AddCommand(compareCmd)
	Cmd.AddCommand(summaryCmd)
}
