package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// RunLockedEvent is published when a baseline becomes the authoritative
// forecast for its week.
type RunLockedEvent struct {
	sharedDomain.BaseEvent
	SectorID     uuid.UUID
	HorizonStart time.Time
}

// NewRunLockedEvent creates a run-locked event.
func NewRunLockedEvent(runID, sectorID uuid.UUID, horizonStart time.Time) *RunLockedEvent {
	return &RunLockedEvent{
		BaseEvent:    sharedDomain.NewBaseEvent(runID, "forecast_run", "forecast.run.locked"),
		SectorID:     sectorID,
		HorizonStart: horizonStart,
	}
}
