// Package calendar manages holidays and special-event windows.
package calendar

import (
	"github.com/spf13/cobra"
)

// Cmd is the calendar command group.
var Cmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage holiday and event windows that scale demand",
}

func init() {
	Cmd.AddCommand(addCmd)
}
