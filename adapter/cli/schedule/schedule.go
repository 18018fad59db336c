// Package schedule generates and adjusts weekly shift plans.
package schedule

import (
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group.
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate, adjust, and validate weekly shift plans",
}

func init() {
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(adjustCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(overrideCmd)
}
