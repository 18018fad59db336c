package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists per-day demand rows.
type Repository interface {
	SaveDaily(ctx context.Context, daily *DemandDaily) error
	// DailiesForRun lists a run's demand rows ordered by target date.
	DailiesForRun(ctx context.Context, runID uuid.UUID) ([]*DemandDaily, error)
	// DeleteForRun removes a run's demand rows before recomputation.
	DeleteForRun(ctx context.Context, runID uuid.UUID) error
}
