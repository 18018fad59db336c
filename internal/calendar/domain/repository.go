package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists calendar events.
type Repository interface {
	Save(ctx context.Context, event *CalendarEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*CalendarEvent, error)
	// FindInRange lists active events overlapping [start, end] that apply to
	// the sector: its own plus the global ones.
	FindInRange(ctx context.Context, sectorID uuid.UUID, start, end time.Time) ([]*CalendarEvent, error)
}

// Provider resolves day factors. The production provider wraps the repository
// in a circuit breaker and degrades to neutral factors.
type Provider interface {
	Factors(ctx context.Context, date time.Time, sectorID uuid.UUID) (DayFactors, error)
}
