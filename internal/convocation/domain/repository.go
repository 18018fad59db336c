package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows convocation listings.
type Filter struct {
	SectorID   *uuid.UUID
	EmployeeID *uuid.UUID
	PlanID     *uuid.UUID
	Status     ConvocationStatus
}

// Repository persists convocations.
type Repository interface {
	Save(ctx context.Context, convocation *Convocation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Convocation, error)
	Find(ctx context.Context, filter Filter) ([]*Convocation, error)
	// AcceptedForEmployee lists ACCEPTED convocations for an employee within
	// a date range, ordered by (target_date, start).
	AcceptedForEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]*Convocation, error)
	// PendingExpired lists PENDING convocations whose deadline passed.
	PendingExpired(ctx context.Context, now time.Time) ([]*Convocation, error)
}
