package convocation

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
)

var expireSector string

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire overdue pending convocations and reschedule their slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		sector, err := app.ResolveSector(ctx, expireSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		pctx, err := app.BuildPipeline(ctx, "convocation", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		expired, err := app.Convocation.ExpireDue(ctx, pctx, time.Now().UTC())
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to expire convocations: %w", err)
		}

		fmt.Printf("Expired %d overdue convocations\n", expired)
		return nil
	},
}

func init() {
	expireCmd.Flags().StringVarP(&expireSector, "sector", "s", "", "sector id or name (required)")
	expireCmd.MarkFlagRequired("sector")
}
