package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/internal/calendar/domain"
)

var (
	addSector       string
	addName         string
	addStart        string
	addEnd          string
	addProductivity float64
	addDemand       float64
	addBlock        bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a holiday or event window",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		start, err := cli.ParseDate(addStart)
		if err != nil {
			return err
		}
		end, err := cli.ParseDate(addEnd)
		if err != nil {
			return err
		}

		scope := domain.ScopeGlobal
		var sectorID *uuid.UUID
		if addSector != "" {
			sector, err := app.ResolveSector(ctx, addSector)
			if err != nil {
				return fmt.Errorf("failed to resolve sector: %w", err)
			}
			id := sector.ID()
			sectorID = &id
			scope = domain.ScopeSector
		}

		event, err := app.Calendar.CreateEvent(ctx, scope, sectorID, addName,
			start, end, addProductivity, addDemand, addBlock)
		if err != nil {
			return fmt.Errorf("failed to create calendar event: %w", err)
		}

		fmt.Printf("Calendar event %s created: %s (%s to %s)\n",
			event.ID(), addName, start.Format(time.DateOnly), end.Format(time.DateOnly))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addSector, "sector", "s", "", "sector id or name (default: global event)")
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "event name (required)")
	addCmd.Flags().StringVar(&addStart, "start", "", "first day YYYY-MM-DD (required)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "last day YYYY-MM-DD (required)")
	addCmd.Flags().Float64Var(&addProductivity, "productivity-factor", 1, "productivity multiplier for the window")
	addCmd.Flags().Float64Var(&addDemand, "demand-factor", 1, "demand multiplier for the window")
	addCmd.Flags().BoolVar(&addBlock, "block-convocations", false, "block new convocations inside the window")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("start")
	addCmd.MarkFlagRequired("end")
}
