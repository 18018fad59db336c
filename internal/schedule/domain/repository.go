package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists plans, their slots, and the override log.
type Repository interface {
	SavePlan(ctx context.Context, plan *SchedulePlan) error
	// FindPlan retrieves a plan with its slots attached, ordered by
	// (target_date, start_time). Nil when absent.
	FindPlan(ctx context.Context, id uuid.UUID) (*SchedulePlan, error)
	// LatestPlan returns the newest non-cancelled plan of a kind for a week.
	LatestPlan(ctx context.Context, sectorID uuid.UUID, weekStart time.Time, kind PlanKind) (*SchedulePlan, error)

	SaveSlot(ctx context.Context, slot *ShiftSlot) error
	DeleteSlot(ctx context.Context, slotID uuid.UUID) error
	// SlotCountOn counts a plan's slots for one date.
	SlotCountOn(ctx context.Context, planID uuid.UUID, date time.Time) (int, error)

	SaveOverrideLog(ctx context.Context, log *OverrideLog) error
}
