package schedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/internal/schedule/domain"
)

var (
	adjustSector   string
	adjustWeek     string
	adjustRun      string
	adjustBaseline string
)

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Generate an adjustment plan against a baseline plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := runGenerate(cmd, adjustSector, adjustWeek, adjustRun, domain.PlanAdjustment, adjustBaseline)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func parseBaselineRef(ref string) (*uuid.UUID, error) {
	if ref == "" {
		return nil, nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid baseline plan id %q: %w", ref, err)
	}
	return &id, nil
}

func init() {
	adjustCmd.Flags().StringVarP(&adjustSector, "sector", "s", "", "sector id or name (required)")
	adjustCmd.Flags().StringVarP(&adjustWeek, "week", "w", "", "week start YYYY-MM-DD (required)")
	adjustCmd.Flags().StringVarP(&adjustRun, "run", "r", "", "forecast run id (default: locked baseline)")
	adjustCmd.Flags().StringVarP(&adjustBaseline, "baseline", "b", "", "baseline plan id (required)")
	adjustCmd.MarkFlagRequired("sector")
	adjustCmd.MarkFlagRequired("week")
	adjustCmd.MarkFlagRequired("baseline")
}
