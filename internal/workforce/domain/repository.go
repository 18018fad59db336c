package domain

import (
	"context"

	"github.com/google/uuid"
)

// SectorRepository persists sectors.
type SectorRepository interface {
	Save(ctx context.Context, sector *Sector) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sector, error)
	FindByName(ctx context.Context, name string) (*Sector, error)
}

// EmployeeRepository persists employees.
type EmployeeRepository interface {
	Save(ctx context.Context, employee *Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindActiveBySector(ctx context.Context, sectorID uuid.UUID) ([]*Employee, error)
}

// ActivityRepository persists governance activities and periodicities.
type ActivityRepository interface {
	Save(ctx context.Context, activity *GovernanceActivity) error
	FindByID(ctx context.Context, id uuid.UUID) (*GovernanceActivity, error)
	FindActiveBySector(ctx context.Context, sectorID uuid.UUID) ([]*GovernanceActivity, error)
	SavePeriodicity(ctx context.Context, periodicity *ActivityPeriodicity) error
	FindPeriodicityByID(ctx context.Context, id uuid.UUID) (*ActivityPeriodicity, error)
}
