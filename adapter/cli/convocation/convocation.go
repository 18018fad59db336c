// Package convocation manages on-call shift offers and their lifecycle.
package convocation

import (
	"github.com/spf13/cobra"
)

// Cmd is the convocation command group.
var Cmd = &cobra.Command{
	Use:   "convocation",
	Short: "Create and respond to on-call shift convocations",
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(acceptCmd)
	Cmd.AddCommand(declineCmd)
	Cmd.AddCommand(expireCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(listCmd)
}
