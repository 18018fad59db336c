package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	datalakeApplication "github.com/hotelops/roster/internal/datalake/application"
	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
)

// frontdeskFileRow is one row of a frontdesk movement file. EventTime is
// optional; rows without it land on the noon fallback hour.
type frontdeskFileRow struct {
	EventType  string `json:"event_type"`
	AnchorDate string `json:"anchor_date"`
	EventTime  string `json:"event_time,omitempty"`
}

var frontdeskCmd = &cobra.Command{
	Use:   "frontdesk <file>",
	Short: "Ingest a frontdesk check-in/check-out file (JSON)",
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

		var rows []frontdeskFileRow
		if err := json.Unmarshal(content, &rows); err != nil {
			return fmt.Errorf("parse file: %w", err)
		}

		records := make([]datalakeApplication.FrontdeskRecord, 0, len(rows))
		for i, row := range rows {
			var eventType datalakeDomain.EventType
			switch strings.ToUpper(row.EventType) {
			case "CHECKIN":
				eventType = datalakeDomain.EventCheckIn
			case "CHECKOUT":
				eventType = datalakeDomain.EventCheckOut
			default:
				return fmt.Errorf("row %d: unknown event_type %q", i, row.EventType)
			}
			anchorDate, err := time.Parse(time.DateOnly, row.AnchorDate)
			if err != nil {
				return fmt.Errorf("row %d: invalid anchor_date: %w", i, err)
			}
			record := datalakeApplication.FrontdeskRecord{
				EventType:  eventType,
				AnchorDate: anchorDate,
			}
			if row.EventTime != "" {
				eventTime, err := time.Parse(time.RFC3339, row.EventTime)
				if err != nil {
					return fmt.Errorf("row %d: invalid event_time: %w", i, err)
				}
				record.EventTime = &eventTime
			}
			records = append(records, record)
		}

		result, err := app.Ingest.IngestFrontdesk(cmd.Context(), records, content)
		if err != nil {
			return fmt.Errorf("failed to ingest frontdesk events: %w", err)
		}

		if result.AlreadyIngested {
			fmt.Printf("Already ingested (upload %s), nothing to do\n", result.UploadID)
			return nil
		}
		fmt.Printf("Ingested %d frontdesk events (upload %s)\n", result.RecordsIngested, result.UploadID)
		fmt.Printf("  Hourly aggregate rows touched: %d\n", result.ProjectionsTouch)
		return nil
	},
}
