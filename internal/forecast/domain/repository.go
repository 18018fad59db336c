package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists forecast runs and their daily rows.
type Repository interface {
	SaveRun(ctx context.Context, run *ForecastRun) error
	FindRun(ctx context.Context, id uuid.UUID) (*ForecastRun, error)
	// LockedBaseline returns the locked non-superseded BASELINE for a week,
	// nil when none exists.
	LockedBaseline(ctx context.Context, sectorID uuid.UUID, horizonStart time.Time) (*ForecastRun, error)
	// LatestRun returns the newest completed run of a type for a week, nil
	// when none exists.
	LatestRun(ctx context.Context, sectorID uuid.UUID, horizonStart time.Time, runType RunType) (*ForecastRun, error)

	SaveDailies(ctx context.Context, dailies []*ForecastDaily) error
	DailiesForRun(ctx context.Context, runID uuid.UUID) ([]*ForecastDaily, error)
}
