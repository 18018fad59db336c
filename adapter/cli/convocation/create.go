package convocation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	convocationApplication "github.com/hotelops/roster/internal/convocation/application"
	"github.com/hotelops/roster/internal/convocation/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	createEmployee string
	createSector   string
	createPlan     string
	createSlot     string
	createDate     string
	createStart    string
	createEnd      string
	createBreak    int
	createOrigin   string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a convocation after legal validation",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		ctx := cmd.Context()

		employeeID, err := uuid.Parse(createEmployee)
		if err != nil {
			return fmt.Errorf("invalid employee id: %w", err)
		}
		planID, err := uuid.Parse(createPlan)
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}
		slotID, err := uuid.Parse(createSlot)
		if err != nil {
			return fmt.Errorf("invalid slot id: %w", err)
		}
		targetDate, err := cli.ParseDate(createDate)
		if err != nil {
			return err
		}
		start, err := workforce.ParseTimeOfDay(createStart)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		end, err := workforce.ParseTimeOfDay(createEnd)
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
		origin, err := parseOrigin(createOrigin)
		if err != nil {
			return err
		}
		sector, err := app.ResolveSector(ctx, createSector)
		if err != nil {
			return fmt.Errorf("failed to resolve sector: %w", err)
		}

		pctx, err := app.BuildPipeline(ctx, "convocation", sector, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build planning context: %w", err)
		}
		convocation, validation, err := app.Convocation.Create(ctx, pctx, convocationApplication.CreateInput{
			EmployeeID:   employeeID,
			SectorID:     sector.ID(),
			PlanID:       planID,
			SlotID:       slotID,
			TargetDate:   targetDate,
			Start:        start,
			End:          end,
			BreakMinutes: createBreak,
			Origin:       origin,
		})
		pctx.Finish(ctx, err)
		if err != nil {
			return fmt.Errorf("failed to create convocation: %w", err)
		}

		if convocation == nil {
			fmt.Println("Convocation blocked by legal validation:")
			cli.PrintFindings(validation.Errors)
			return nil
		}
		fmt.Printf("Convocation %s created, response due by %s\n",
			convocation.ID(), convocation.ResponseDeadline().Format("2006-01-02 15:04"))
		if len(validation.Warnings) > 0 {
			fmt.Println("Warnings:")
			cli.PrintFindings(validation.Warnings)
		}
		return nil
	},
}

func parseOrigin(s string) (domain.ConvocationOrigin, error) {
	switch strings.ToUpper(s) {
	case "BASELINE":
		return domain.OriginBaseline, nil
	case "ADJUSTMENT":
		return domain.OriginAdjustment, nil
	case "RESCHEDULE":
		return domain.OriginReschedule, nil
	case "MANUAL", "":
		return domain.OriginManual, nil
	default:
		return "", fmt.Errorf("unknown origin %q (baseline, adjustment, reschedule, manual)", s)
	}
}

func init() {
	createCmd.Flags().StringVarP(&createEmployee, "employee", "e", "", "employee id (required)")
	createCmd.Flags().StringVarP(&createSector, "sector", "s", "", "sector id or name (required)")
	createCmd.Flags().StringVarP(&createPlan, "plan", "p", "", "plan id (required)")
	createCmd.Flags().StringVar(&createSlot, "slot", "", "shift slot id (required)")
	createCmd.Flags().StringVarP(&createDate, "date", "d", "", "shift date YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&createStart, "start", "", "shift start HH:MM (required)")
	createCmd.Flags().StringVar(&createEnd, "end", "", "shift end HH:MM (required)")
	createCmd.Flags().IntVar(&createBreak, "break", 0, "break minutes")
	createCmd.Flags().StringVar(&createOrigin, "origin", "manual", "origin: baseline, adjustment, reschedule, manual")
	createCmd.MarkFlagRequired("employee")
	createCmd.MarkFlagRequired("sector")
	createCmd.MarkFlagRequired("plan")
	createCmd.MarkFlagRequired("slot")
	createCmd.MarkFlagRequired("date")
	createCmd.MarkFlagRequired("start")
	createCmd.MarkFlagRequired("end")
}
