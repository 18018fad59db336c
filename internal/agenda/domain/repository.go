package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists agendas and their items.
type Repository interface {
	SaveAgenda(ctx context.Context, agenda *EmployeeDailyAgenda) error
	// AgendasForPlan lists a plan's agendas with items, ordered by
	// (target_date, employee_id).
	AgendasForPlan(ctx context.Context, planID uuid.UUID) ([]*EmployeeDailyAgenda, error)
	// DeleteForPlan removes a plan's agendas before regeneration.
	DeleteForPlan(ctx context.Context, planID uuid.UUID) error
}
