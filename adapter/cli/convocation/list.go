package convocation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/internal/convocation/domain"
)

var (
	listSector   string
	listEmployee string
	listPlan     string
	listStatus   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List convocations by sector, employee, plan, or status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		var filter domain.Filter
		if listSector != "" {
			sector, err := app.ResolveSector(ctx, listSector)
			if err != nil {
				return fmt.Errorf("failed to resolve sector: %w", err)
			}
			sectorID := sector.ID()
			filter.SectorID = &sectorID
		}
		if listEmployee != "" {
			id, err := uuid.Parse(listEmployee)
			if err != nil {
				return fmt.Errorf("invalid employee id: %w", err)
			}
			filter.EmployeeID = &id
		}
		if listPlan != "" {
			id, err := uuid.Parse(listPlan)
			if err != nil {
				return fmt.Errorf("invalid plan id: %w", err)
			}
			filter.PlanID = &id
		}
		if listStatus != "" {
			filter.Status = domain.ConvocationStatus(strings.ToUpper(listStatus))
		}

		convocations, err := app.Convocation.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list convocations: %w", err)
		}

		if len(convocations) == 0 {
			fmt.Println("No convocations found")
			return nil
		}
		for _, c := range convocations {
			fmt.Printf("  %s  %s  %s %s-%s  %.2fh  %-9s  employee %s\n",
				c.ID(), c.TargetDate().Format(time.DateOnly),
				c.Origin(), c.Start(), c.End(), c.TotalHours(), c.Status(), c.EmployeeID())
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSector, "sector", "s", "", "filter by sector id or name")
	listCmd.Flags().StringVarP(&listEmployee, "employee", "e", "", "filter by employee id")
	listCmd.Flags().StringVarP(&listPlan, "plan", "p", "", "filter by plan id")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
}
