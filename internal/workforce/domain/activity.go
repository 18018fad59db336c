package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var (
	ErrActivityNameRequired = errors.New("activity name is required")
	ErrInvalidDifficulty    = errors.New("difficulty must be at least 1")
)

// WorkloadDriver tells whether an activity's minutes scale with occupancy.
type WorkloadDriver string

const (
	DriverVariable WorkloadDriver = "VARIABLE"
	DriverConstant WorkloadDriver = "CONSTANT"
)

// ActivityClassification tells how an activity enters the agenda.
type ActivityClassification string

const (
	ClassificationCalculated ActivityClassification = "CALCULATED_BY_AGENT"
	ClassificationRecurring  ActivityClassification = "RECURRING"
	ClassificationEventual   ActivityClassification = "EVENTUAL"
)

// GovernanceActivity is a unit of housekeeping work owned by a sector.
type GovernanceActivity struct {
	sharedDomain.BaseAggregateRoot
	sectorID       uuid.UUID
	name           string
	code           string
	averageMinutes float64
	driver         WorkloadDriver
	classification ActivityClassification
	periodicityID  *uuid.UUID
	toleranceDays  int
	firstExecution *time.Time
	difficulty     int
	active         bool
}

// NewGovernanceActivity creates an active activity.
func NewGovernanceActivity(
	sectorID uuid.UUID,
	name, code string,
	averageMinutes float64,
	driver WorkloadDriver,
	classification ActivityClassification,
	difficulty int,
) (*GovernanceActivity, error) {
	if name == "" {
		return nil, ErrActivityNameRequired
	}
	if difficulty < 1 {
		return nil, ErrInvalidDifficulty
	}
	return &GovernanceActivity{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		name:              name,
		code:              code,
		averageMinutes:    averageMinutes,
		driver:            driver,
		classification:    classification,
		difficulty:        difficulty,
		active:            true,
	}, nil
}

// RehydrateGovernanceActivity recreates an activity from persisted state.
func RehydrateGovernanceActivity(
	id, sectorID uuid.UUID,
	name, code string,
	averageMinutes float64,
	driver WorkloadDriver,
	classification ActivityClassification,
	periodicityID *uuid.UUID,
	toleranceDays int,
	firstExecution *time.Time,
	difficulty int,
	active bool,
	createdAt, updatedAt time.Time,
) *GovernanceActivity {
	return &GovernanceActivity{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:       sectorID,
		name:           name,
		code:           code,
		averageMinutes: averageMinutes,
		driver:         driver,
		classification: classification,
		periodicityID:  periodicityID,
		toleranceDays:  toleranceDays,
		firstExecution: firstExecution,
		difficulty:     difficulty,
		active:         active,
	}
}

func (a *GovernanceActivity) SectorID() uuid.UUID                    { return a.sectorID }
func (a *GovernanceActivity) Name() string                           { return a.name }
func (a *GovernanceActivity) Code() string                           { return a.code }
func (a *GovernanceActivity) AverageMinutes() float64                { return a.averageMinutes }
func (a *GovernanceActivity) Driver() WorkloadDriver                 { return a.driver }
func (a *GovernanceActivity) Classification() ActivityClassification { return a.classification }
func (a *GovernanceActivity) PeriodicityID() *uuid.UUID              { return a.periodicityID }
func (a *GovernanceActivity) ToleranceDays() int                     { return a.toleranceDays }
func (a *GovernanceActivity) FirstExecution() *time.Time             { return a.firstExecution }
func (a *GovernanceActivity) Difficulty() int                        { return a.difficulty }
func (a *GovernanceActivity) IsActive() bool                         { return a.active }

// SetRecurrence binds a periodicity with its tolerance and anchor date.
func (a *GovernanceActivity) SetRecurrence(periodicityID uuid.UUID, toleranceDays int, firstExecution time.Time) {
	a.periodicityID = &periodicityID
	a.toleranceDays = toleranceDays
	first := NormalizeDate(firstExecution)
	a.firstExecution = &first
	a.Touch()
}

// Deactivate removes the activity from all pools.
func (a *GovernanceActivity) Deactivate() {
	a.active = false
	a.Touch()
}
