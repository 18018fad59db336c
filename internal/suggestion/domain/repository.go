package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists replan and daily suggestions.
type Repository interface {
	SaveReplan(ctx context.Context, suggestion *ReplanSuggestion) error
	FindReplan(ctx context.Context, id uuid.UUID) (*ReplanSuggestion, error)
	// ReplansForWeek lists a sector's replan suggestions for one week,
	// ordered by (target_date, created_at).
	ReplansForWeek(ctx context.Context, sectorID uuid.UUID, weekStart time.Time) ([]*ReplanSuggestion, error)

	SaveDaily(ctx context.Context, suggestion *DailySuggestion) error
	FindDaily(ctx context.Context, id uuid.UUID) (*DailySuggestion, error)
	// OpenDailies lists OPEN daily suggestions for a sector.
	OpenDailies(ctx context.Context, sectorID uuid.UUID) ([]*DailySuggestion, error)
}
