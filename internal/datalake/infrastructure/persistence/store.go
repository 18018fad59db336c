package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Store implements domain.Store on the shared Executor.
type Store struct {
	conn database.Connection
}

// NewStore creates a data-lake store.
func NewStore(conn database.Connection) *Store {
	return &Store{conn: conn}
}

// FindUploadByHash looks up a prior upload by content hash.
func (s *Store) FindUploadByHash(ctx context.Context, contentHash string) (uuid.UUID, bool, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	var idStr string
	err := exec.QueryRow(ctx,
		`SELECT upload_id FROM source_uploads WHERE content_hash = $1`, contentHash,
	).Scan(&idStr)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// RecordUpload writes an upload ledger row.
func (s *Store) RecordUpload(ctx context.Context, uploadID uuid.UUID, contentHash, kind string, ingestedAt time.Time) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO source_uploads (upload_id, content_hash, kind, ingested_at)
		VALUES ($1, $2, $3, $4)
	`, uploadID.String(), contentHash, kind, ingestedAt)
	return err
}

// SaveSnapshot appends an immutable occupancy snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *domain.OccupancySnapshot) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO occupancy_snapshots (
			id, target_date, generated_at, period_start, period_end,
			occupancy_pct, is_real, is_forecast, source_upload_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source_upload_id, target_date, generated_at) DO NOTHING
	`,
		snapshot.ID.String(),
		snapshot.TargetDate,
		snapshot.GeneratedAt,
		snapshot.PeriodStart,
		snapshot.PeriodEnd,
		snapshot.OccupancyPct,
		snapshot.IsReal,
		snapshot.IsForecast,
		snapshot.SourceUploadID.String(),
		snapshot.CreatedAt,
	)
	return err
}

const snapshotSelect = `
	SELECT id, target_date, generated_at, occupancy_pct, is_real, is_forecast, source_upload_id, created_at
	FROM occupancy_snapshots
`

// SnapshotsForDate lists all snapshots for a target date, newest first.
func (s *Store) SnapshotsForDate(ctx context.Context, targetDate time.Time) ([]*domain.OccupancySnapshot, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, snapshotSelect+` WHERE target_date = $1 ORDER BY generated_at DESC`,
		workforce.NormalizeDate(targetDate))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.OccupancySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// LatestSnapshotAsOf returns the newest snapshot for a date not generated
// after asOf, filtered by realness. Nil when none exists.
func (s *Store) LatestSnapshotAsOf(ctx context.Context, targetDate, asOf time.Time, isReal bool) (*domain.OccupancySnapshot, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	row := exec.QueryRow(ctx,
		snapshotSelect+` WHERE target_date = $1 AND generated_at <= $2 AND is_real = $3
		ORDER BY generated_at DESC LIMIT 1`,
		workforce.NormalizeDate(targetDate), asOf.UTC(), isReal)
	snap, err := scanSnapshot(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*domain.OccupancySnapshot, error) {
	var (
		idStr, uploadStr      string
		targetDate, generated time.Time
		occupancyPct          float64
		isReal, isForecast    bool
		createdAt             time.Time
	)
	if err := row.Scan(&idStr, &targetDate, &generated, &occupancyPct, &isReal, &isForecast, &uploadStr, &createdAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	uploadID, err := uuid.Parse(uploadStr)
	if err != nil {
		return nil, err
	}
	return &domain.OccupancySnapshot{
		ID:             id,
		TargetDate:     workforce.NormalizeDate(targetDate),
		GeneratedAt:    generated.UTC(),
		OccupancyPct:   occupancyPct,
		IsReal:         isReal,
		IsForecast:     isForecast,
		SourceUploadID: uploadID,
		CreatedAt:      createdAt,
	}, nil
}

// SaveLatest upserts the per-date projection.
func (s *Store) SaveLatest(ctx context.Context, latest *domain.OccupancyLatest) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO occupancy_latest (
			target_date, latest_real_pct, latest_real_generated_at,
			latest_forecast_pct, latest_forecast_generated_at,
			occupancy_pct, is_real, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (target_date) DO UPDATE SET
			latest_real_pct = EXCLUDED.latest_real_pct,
			latest_real_generated_at = EXCLUDED.latest_real_generated_at,
			latest_forecast_pct = EXCLUDED.latest_forecast_pct,
			latest_forecast_generated_at = EXCLUDED.latest_forecast_generated_at,
			occupancy_pct = EXCLUDED.occupancy_pct,
			is_real = EXCLUDED.is_real,
			updated_at = EXCLUDED.updated_at
	`,
		latest.TargetDate,
		latest.LatestRealPct,
		latest.LatestRealGeneratedAt,
		latest.LatestForecastPct,
		latest.LatestForecastGeneratedAt,
		latest.OccupancyPct,
		latest.IsReal,
		latest.UpdatedAt,
	)
	return err
}

// FindLatest retrieves the projection for a date. Nil when absent.
func (s *Store) FindLatest(ctx context.Context, targetDate time.Time) (*domain.OccupancyLatest, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	row := exec.QueryRow(ctx, `
		SELECT target_date, latest_real_pct, latest_real_generated_at,
		       latest_forecast_pct, latest_forecast_generated_at,
		       occupancy_pct, is_real, updated_at
		FROM occupancy_latest WHERE target_date = $1
	`, workforce.NormalizeDate(targetDate))

	latest := &domain.OccupancyLatest{}
	err := row.Scan(
		&latest.TargetDate,
		&latest.LatestRealPct,
		&latest.LatestRealGeneratedAt,
		&latest.LatestForecastPct,
		&latest.LatestForecastGeneratedAt,
		&latest.OccupancyPct,
		&latest.IsReal,
		&latest.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	latest.TargetDate = workforce.NormalizeDate(latest.TargetDate)
	return latest, nil
}

// PairedSamples lists dates up to a cutoff having both a real and a forecast
// observation, for bias-stat updates.
func (s *Store) PairedSamples(ctx context.Context, upTo time.Time) ([]*domain.PairedSample, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, `
		SELECT target_date, latest_real_pct, latest_forecast_pct
		FROM occupancy_latest
		WHERE target_date <= $1
		  AND latest_real_pct IS NOT NULL
		  AND latest_forecast_pct IS NOT NULL
		ORDER BY target_date
	`, workforce.NormalizeDate(upTo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*domain.PairedSample
	for rows.Next() {
		var sample domain.PairedSample
		if err := rows.Scan(&sample.TargetDate, &sample.RealPct, &sample.ForecastPct); err != nil {
			return nil, err
		}
		sample.TargetDate = workforce.NormalizeDate(sample.TargetDate)
		samples = append(samples, &sample)
	}
	return samples, rows.Err()
}

// UpsertHourlyAggs accumulates hourly event counts.
func (s *Store) UpsertHourlyAggs(ctx context.Context, aggs []*domain.HourlyAgg) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	for _, agg := range aggs {
		_, err := exec.Exec(ctx, `
			INSERT INTO frontdesk_hourly_aggs (operational_date, weekday, hour_timeline, event_type, count_events)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (operational_date, hour_timeline, event_type) DO UPDATE SET
				count_events = frontdesk_hourly_aggs.count_events + EXCLUDED.count_events
		`,
			agg.OperationalDate,
			int(agg.Weekday),
			int(agg.HourTimeline),
			string(agg.EventType),
			agg.CountEvents,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const aggSelect = `
	SELECT operational_date, weekday, hour_timeline, event_type, count_events
	FROM frontdesk_hourly_aggs
`

// HourlyAggsForDate lists aggregates for one operational date and event type.
func (s *Store) HourlyAggsForDate(ctx context.Context, operationalDate time.Time, eventType domain.EventType) ([]*domain.HourlyAgg, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx,
		aggSelect+` WHERE operational_date = $1 AND event_type = $2 ORDER BY hour_timeline`,
		workforce.NormalizeDate(operationalDate), string(eventType))
	if err != nil {
		return nil, err
	}
	return collectAggs(rows)
}

// HourlyAggsAll lists all aggregates of one event type across history.
func (s *Store) HourlyAggsAll(ctx context.Context, eventType domain.EventType) ([]*domain.HourlyAgg, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx,
		aggSelect+` WHERE event_type = $1 ORDER BY operational_date, hour_timeline`,
		string(eventType))
	if err != nil {
		return nil, err
	}
	return collectAggs(rows)
}

func collectAggs(rows database.Rows) ([]*domain.HourlyAgg, error) {
	defer rows.Close()
	var aggs []*domain.HourlyAgg
	for rows.Next() {
		var (
			agg       domain.HourlyAgg
			weekday   int
			timeline  int
			eventType string
		)
		if err := rows.Scan(&agg.OperationalDate, &weekday, &timeline, &eventType, &agg.CountEvents); err != nil {
			return nil, err
		}
		agg.OperationalDate = workforce.NormalizeDate(agg.OperationalDate)
		agg.Weekday = workforce.Weekday(weekday)
		agg.HourTimeline = domain.HourTimeline(timeline)
		agg.EventType = domain.EventType(eventType)
		aggs = append(aggs, &agg)
	}
	return aggs, rows.Err()
}
