package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

// Repository implements domain.Repository. The frozen sector snapshot lives
// in a JSON column; lock state is first-class for the supersede queries.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a forecast repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// SaveRun upserts a forecast run.
func (r *Repository) SaveRun(ctx context.Context, run *domain.ForecastRun) error {
	snapshot, err := json.Marshal(run.Snapshot())
	if err != nil {
		return err
	}
	var supersededBy *string
	if run.SupersededBy() != nil {
		s := run.SupersededBy().String()
		supersededBy = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO forecast_runs (
			id, sector_id, run_type, status, horizon_start, horizon_end, as_of,
			is_locked, locked_at, superseded_by, bias_method, bias_alpha,
			sector_snapshot, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			is_locked = EXCLUDED.is_locked,
			locked_at = EXCLUDED.locked_at,
			superseded_by = EXCLUDED.superseded_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		run.ID().String(),
		run.SectorID().String(),
		string(run.RunType()),
		string(run.Status()),
		run.HorizonStart(),
		run.HorizonEnd(),
		run.AsOf(),
		run.IsLocked(),
		run.LockedAt(),
		supersededBy,
		run.BiasMethod(),
		run.BiasAlpha(),
		string(snapshot),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	return err
}

const runSelect = `
	SELECT id, sector_id, run_type, status, horizon_start, horizon_end, as_of,
	       is_locked, locked_at, superseded_by, bias_method, bias_alpha,
	       sector_snapshot, created_at, updated_at
	FROM forecast_runs
`

// FindRun retrieves a run by id. Nil when absent.
func (r *Repository) FindRun(ctx context.Context, id uuid.UUID) (*domain.ForecastRun, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, runSelect+` WHERE id = $1`, id.String())
	return r.oneRun(row)
}

// LockedBaseline returns the locked non-superseded BASELINE for a week.
func (r *Repository) LockedBaseline(ctx context.Context, sectorID uuid.UUID, horizonStart time.Time) (*domain.ForecastRun, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, runSelect+`
		WHERE sector_id = $1 AND horizon_start = $2 AND run_type = $3
		  AND is_locked = $4 AND superseded_by IS NULL
		ORDER BY locked_at DESC
		LIMIT 1
	`, sectorID.String(), horizonStart, string(domain.RunBaseline), true)
	return r.oneRun(row)
}

// LatestRun returns the newest completed run of a type for a week.
func (r *Repository) LatestRun(ctx context.Context, sectorID uuid.UUID, horizonStart time.Time, runType domain.RunType) (*domain.ForecastRun, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, runSelect+`
		WHERE sector_id = $1 AND horizon_start = $2 AND run_type = $3 AND status = $4
		ORDER BY as_of DESC, created_at DESC
		LIMIT 1
	`, sectorID.String(), horizonStart, string(runType), string(domain.RunCompleted))
	return r.oneRun(row)
}

func (r *Repository) oneRun(row database.Row) (*domain.ForecastRun, error) {
	run, err := scanRun(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*domain.ForecastRun, error) {
	var (
		idStr, sectorStr, runType, status, biasMethod string
		horizonStart, horizonEnd, asOf                time.Time
		isLocked                                      bool
		lockedAt                                      *time.Time
		supersededStr                                 *string
		biasAlpha                                     float64
		snapshotJSON                                  string
		createdAt, updatedAt                          time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &runType, &status, &horizonStart, &horizonEnd, &asOf,
		&isLocked, &lockedAt, &supersededStr, &biasMethod, &biasAlpha,
		&snapshotJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	sectorID, err := uuid.Parse(sectorStr)
	if err != nil {
		return nil, err
	}
	var supersededBy *uuid.UUID
	if supersededStr != nil {
		parsed, err := uuid.Parse(*supersededStr)
		if err != nil {
			return nil, err
		}
		supersededBy = &parsed
	}
	var snapshot domain.SectorSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, err
	}

	return domain.RehydrateForecastRun(
		id, sectorID,
		domain.RunType(runType), domain.RunStatus(status),
		horizonStart, horizonEnd, asOf,
		isLocked, lockedAt, supersededBy,
		biasMethod, biasAlpha, snapshot,
		createdAt, updatedAt,
	), nil
}

// SaveDailies inserts a run's daily rows.
func (r *Repository) SaveDailies(ctx context.Context, dailies []*domain.ForecastDaily) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, daily := range dailies {
		_, err := exec.Exec(ctx, `
			INSERT INTO forecast_dailies (
				id, run_id, target_date, occ_raw, bias_pp, safety_pp, occ_adj,
				has_bias_data, source, source_ref, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (run_id, target_date) DO UPDATE SET
				occ_raw = EXCLUDED.occ_raw,
				bias_pp = EXCLUDED.bias_pp,
				safety_pp = EXCLUDED.safety_pp,
				occ_adj = EXCLUDED.occ_adj,
				has_bias_data = EXCLUDED.has_bias_data,
				source = EXCLUDED.source,
				source_ref = EXCLUDED.source_ref
		`,
			daily.ID.String(),
			daily.RunID.String(),
			daily.TargetDate,
			daily.OccRaw,
			daily.BiasPP,
			daily.SafetyPP,
			daily.OccAdj,
			daily.HasBiasData,
			string(daily.Source),
			daily.SourceRef,
			daily.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// DailiesForRun lists a run's daily rows ordered by target date.
func (r *Repository) DailiesForRun(ctx context.Context, runID uuid.UUID) ([]*domain.ForecastDaily, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, run_id, target_date, occ_raw, bias_pp, safety_pp, occ_adj,
		       has_bias_data, source, source_ref, created_at
		FROM forecast_dailies
		WHERE run_id = $1
		ORDER BY target_date
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dailies []*domain.ForecastDaily
	for rows.Next() {
		var (
			daily                    domain.ForecastDaily
			idStr, runStr, sourceStr string
		)
		if err := rows.Scan(&idStr, &runStr, &daily.TargetDate, &daily.OccRaw, &daily.BiasPP, &daily.SafetyPP,
			&daily.OccAdj, &daily.HasBiasData, &sourceStr, &daily.SourceRef, &daily.CreatedAt); err != nil {
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
		daily.ID = id
		daily.RunID = parsedRun
		daily.Source = domain.SourceTag(sourceStr)
		dailies = append(dailies, &daily)
	}
	return dailies, rows.Err()
}
