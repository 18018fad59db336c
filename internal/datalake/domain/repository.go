package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the data-lake persistence surface.
type Store interface {
	// Upload ledger (content-hash idempotency).
	FindUploadByHash(ctx context.Context, contentHash string) (uuid.UUID, bool, error)
	RecordUpload(ctx context.Context, uploadID uuid.UUID, contentHash, kind string, ingestedAt time.Time) error

	// Occupancy.
	SaveSnapshot(ctx context.Context, snapshot *OccupancySnapshot) error
	SnapshotsForDate(ctx context.Context, targetDate time.Time) ([]*OccupancySnapshot, error)
	// LatestSnapshotAsOf returns the most recent snapshot for a date with
	// generated_at <= asOf, filtered by realness.
	LatestSnapshotAsOf(ctx context.Context, targetDate time.Time, asOf time.Time, isReal bool) (*OccupancySnapshot, error)
	SaveLatest(ctx context.Context, latest *OccupancyLatest) error
	FindLatest(ctx context.Context, targetDate time.Time) (*OccupancyLatest, error)
	PairedSamples(ctx context.Context, upTo time.Time) ([]*PairedSample, error)

	// Frontdesk aggregates.
	UpsertHourlyAggs(ctx context.Context, aggs []*HourlyAgg) error
	HourlyAggsForDate(ctx context.Context, operationalDate time.Time, eventType EventType) ([]*HourlyAgg, error)
	HourlyAggsAll(ctx context.Context, eventType EventType) ([]*HourlyAgg, error)
}

// PairedSample is a (real, forecast) pair for one date, feeding bias stats.
type PairedSample struct {
	TargetDate  time.Time
	RealPct     float64
	ForecastPct float64
}

// Error reports per-sample forecast error in percentage points.
func (s PairedSample) Error() float64 {
	return s.RealPct - s.ForecastPct
}
