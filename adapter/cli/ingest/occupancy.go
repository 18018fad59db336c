package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	datalakeApplication "github.com/hotelops/roster/internal/datalake/application"
)

// occupancyFileRow is one row of an occupancy upload file.
type occupancyFileRow struct {
	TargetDate   string  `json:"target_date"`
	GeneratedAt  string  `json:"generated_at"`
	OccupancyPct float64 `json:"occupancy_pct"`
	IsReal       bool    `json:"is_real"`
}

var occupancyCmd = &cobra.Command{
	Use:   "occupancy <file>",
	Short: "Ingest an occupancy snapshot file (JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}

		var rows []occupancyFileRow
		if err := json.Unmarshal(content, &rows); err != nil {
			return fmt.Errorf("parse file: %w", err)
		}

		records := make([]datalakeApplication.OccupancyRecord, 0, len(rows))
		for i, row := range rows {
			targetDate, err := time.Parse(time.DateOnly, row.TargetDate)
			if err != nil {
				return fmt.Errorf("row %d: invalid target_date: %w", i, err)
			}
			generatedAt, err := time.Parse(time.RFC3339, row.GeneratedAt)
			if err != nil {
				return fmt.Errorf("row %d: invalid generated_at: %w", i, err)
			}
			records = append(records, datalakeApplication.OccupancyRecord{
				TargetDate:   targetDate,
				GeneratedAt:  generatedAt,
				OccupancyPct: row.OccupancyPct,
				IsReal:       row.IsReal,
			})
		}

		result, err := app.Ingest.IngestOccupancy(cmd.Context(), records, content)
		if err != nil {
			return fmt.Errorf("failed to ingest occupancy: %w", err)
		}

		if result.AlreadyIngested {
			fmt.Printf("Already ingested (upload %s), nothing to do\n", result.UploadID)
			return nil
		}
		fmt.Printf("Ingested %d occupancy records (upload %s)\n", result.RecordsIngested, result.UploadID)
		fmt.Printf("  Latest-resolution rows touched: %d\n", result.ProjectionsTouch)
		return nil
	},
}
