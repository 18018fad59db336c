// Package ingest loads raw occupancy and frontdesk files into the data lake.
package ingest

import (
	"github.com/spf13/cobra"
)

// Cmd is the ingest command group.
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load raw occupancy and frontdesk files into the data lake",
}

func init() {
	Cmd.AddCommand(occupancyCmd)
	Cmd.AddCommand(frontdeskCmd)
}
