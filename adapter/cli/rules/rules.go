// Package rules manages the governance rule lattice.
package rules

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

// Cmd is the rules command group.
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Seed, list, and reorder governance rules",
}

// resolveScope turns an optional sector flag into the nil-or-id scope the
// rule service expects.
func resolveScope(cmd *cobra.Command, app *cli.App, sectorRef string) (*uuid.UUID, error) {
	if sectorRef == "" {
		return nil, nil
	}
	sector, err := app.ResolveSector(cmd.Context(), sectorRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sector: %w", err)
	}
	id := sector.ID()
	return &id, nil
}

func init() {
	Cmd.AddCommand(seedCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(reorderCmd)
}
