package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/demand/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

// Repository implements domain.Repository. The breakdown document is stored
// as JSON next to the derived numbers.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a demand repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// SaveDaily inserts a demand row.
func (r *Repository) SaveDaily(ctx context.Context, daily *domain.DemandDaily) error {
	breakdown, err := json.Marshal(daily.Breakdown)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO demand_dailies (
			id, run_id, target_date, occupied_rooms,
			departures_count, departures_source, arrivals_count, arrivals_source,
			stayovers_estimated, minutes_variable, minutes_constant, minutes_raw,
			minutes_buffered, minutes_final, hours_productive, hours_total,
			headcount_required, headcount_rounded, breakdown, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (run_id, target_date) DO UPDATE SET
			occupied_rooms = EXCLUDED.occupied_rooms,
			departures_count = EXCLUDED.departures_count,
			departures_source = EXCLUDED.departures_source,
			arrivals_count = EXCLUDED.arrivals_count,
			arrivals_source = EXCLUDED.arrivals_source,
			stayovers_estimated = EXCLUDED.stayovers_estimated,
			minutes_variable = EXCLUDED.minutes_variable,
			minutes_constant = EXCLUDED.minutes_constant,
			minutes_raw = EXCLUDED.minutes_raw,
			minutes_buffered = EXCLUDED.minutes_buffered,
			minutes_final = EXCLUDED.minutes_final,
			hours_productive = EXCLUDED.hours_productive,
			hours_total = EXCLUDED.hours_total,
			headcount_required = EXCLUDED.headcount_required,
			headcount_rounded = EXCLUDED.headcount_rounded,
			breakdown = EXCLUDED.breakdown
	`,
		daily.ID.String(),
		daily.RunID.String(),
		daily.TargetDate,
		daily.OccupiedRooms,
		daily.DeparturesCount,
		string(daily.DeparturesSource),
		daily.ArrivalsCount,
		string(daily.ArrivalsSource),
		daily.StayoversEstimated,
		daily.MinutesVariable,
		daily.MinutesConstant,
		daily.MinutesRaw,
		daily.MinutesBuffered,
		daily.MinutesFinal,
		daily.HoursProductive,
		daily.HoursTotal,
		daily.HeadcountRequired,
		daily.HeadcountRounded,
		string(breakdown),
		daily.CreatedAt,
	)
	return err
}

// DailiesForRun lists a run's demand rows ordered by target date.
func (r *Repository) DailiesForRun(ctx context.Context, runID uuid.UUID) ([]*domain.DemandDaily, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, run_id, target_date, occupied_rooms,
		       departures_count, departures_source, arrivals_count, arrivals_source,
		       stayovers_estimated, minutes_variable, minutes_constant, minutes_raw,
		       minutes_buffered, minutes_final, hours_productive, hours_total,
		       headcount_required, headcount_rounded, breakdown, created_at
		FROM demand_dailies
		WHERE run_id = $1
		ORDER BY target_date
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dailies []*domain.DemandDaily
	for rows.Next() {
		var (
			daily                                           domain.DemandDaily
			idStr, runStr, departuresSource, arrivalsSource string
			breakdownJSON                                   string
			createdAt                                       time.Time
		)
		if err := rows.Scan(&idStr, &runStr, &daily.TargetDate, &daily.OccupiedRooms,
			&daily.DeparturesCount, &departuresSource, &daily.ArrivalsCount, &arrivalsSource,
			&daily.StayoversEstimated, &daily.MinutesVariable, &daily.MinutesConstant, &daily.MinutesRaw,
			&daily.MinutesBuffered, &daily.MinutesFinal, &daily.HoursProductive, &daily.HoursTotal,
			&daily.HeadcountRequired, &daily.HeadcountRounded, &breakdownJSON, &createdAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		parsedRun, err := uuid.Parse(runStr)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &daily.Breakdown); err != nil {
			return nil, err
		}
		daily.ID = id
		daily.RunID = parsedRun
		daily.DeparturesSource = domain.CountSource(departuresSource)
		daily.ArrivalsSource = domain.CountSource(arrivalsSource)
		daily.CreatedAt = createdAt
		dailies = append(dailies, &daily)
	}
	return dailies, rows.Err()
}

// DeleteForRun removes a run's demand rows.
func (r *Repository) DeleteForRun(ctx context.Context, runID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `DELETE FROM demand_dailies WHERE run_id = $1`, runID.String())
	return err
}
