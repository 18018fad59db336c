package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var ErrEmployeeNameRequired = errors.New("employee name is required")

// ContractVariant distinguishes on-call workers from fixed-schedule staff.
type ContractVariant string

const (
	ContractIntermittent ContractVariant = "INTERMITTENT"
	ContractPermanent    ContractVariant = "PERMANENT"
)

// CleaningSpeed carries per-worker overrides of the sector cleaning times.
// Nil fields fall back to the sector parameters.
type CleaningSpeed struct {
	VacantDirtyMin *float64 `json:"vacant_dirty_min,omitempty"`
	StayoverMin    *float64 `json:"stayover_min,omitempty"`
}

// WorkHistory is the snapshot of prior assignments used by scoring.
type WorkHistory struct {
	WeeklyHours      float64    `json:"weekly_hours"`
	LastAssignedAt   *time.Time `json:"last_assigned_at,omitempty"`
	LastTemplateName string     `json:"last_template_name,omitempty"`
	LastWeekday      *Weekday   `json:"last_weekday,omitempty"`
	ConsecutiveDays  int        `json:"consecutive_days"`
}

// Employee is a worker attached to a sector.
type Employee struct {
	sharedDomain.BaseAggregateRoot
	sectorID        uuid.UUID
	name            string
	role            string
	contract        ContractVariant
	weeklyHourCap   float64
	speed           CleaningSpeed
	specializations []string
	unavailable     map[string]struct{} // yyyy-mm-dd
	history         WorkHistory
	active          bool
}

// NewEmployee creates an active employee.
func NewEmployee(sectorID uuid.UUID, name, role string, contract ContractVariant, weeklyHourCap float64) (*Employee, error) {
	if name == "" {
		return nil, ErrEmployeeNameRequired
	}
	return &Employee{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		name:              name,
		role:              role,
		contract:          contract,
		weeklyHourCap:     weeklyHourCap,
		unavailable:       make(map[string]struct{}),
		active:            true,
	}, nil
}

// RehydrateEmployee recreates an employee from persisted state.
func RehydrateEmployee(
	id, sectorID uuid.UUID,
	name, role string,
	contract ContractVariant,
	weeklyHourCap float64,
	speed CleaningSpeed,
	specializations []string,
	unavailableDates []time.Time,
	history WorkHistory,
	active bool,
	createdAt, updatedAt time.Time,
) *Employee {
	unavailable := make(map[string]struct{}, len(unavailableDates))
	for _, d := range unavailableDates {
		unavailable[NormalizeDate(d).Format(time.DateOnly)] = struct{}{}
	}
	return &Employee{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:        sectorID,
		name:            name,
		role:            role,
		contract:        contract,
		weeklyHourCap:   weeklyHourCap,
		speed:           speed,
		specializations: specializations,
		unavailable:     unavailable,
		history:         history,
		active:          active,
	}
}

func (e *Employee) SectorID() uuid.UUID       { return e.sectorID }
func (e *Employee) Name() string              { return e.name }
func (e *Employee) Role() string              { return e.role }
func (e *Employee) Contract() ContractVariant { return e.contract }
func (e *Employee) WeeklyHourCap() float64    { return e.weeklyHourCap }
func (e *Employee) Speed() CleaningSpeed      { return e.speed }
func (e *Employee) Specializations() []string { return e.specializations }
func (e *Employee) History() WorkHistory      { return e.history }
func (e *Employee) IsActive() bool            { return e.active }

// UnavailableDates returns the declared unavailability as normalized dates.
func (e *Employee) UnavailableDates() []time.Time {
	dates := make([]time.Time, 0, len(e.unavailable))
	for key := range e.unavailable {
		if d, err := time.ParseInLocation(time.DateOnly, key, time.UTC); err == nil {
			dates = append(dates, d)
		}
	}
	return dates
}

// IsUnavailableOn reports declared unavailability for a date.
func (e *Employee) IsUnavailableOn(date time.Time) bool {
	_, ok := e.unavailable[NormalizeDate(date).Format(time.DateOnly)]
	return ok
}

// DeclareUnavailable records an unavailability date.
func (e *Employee) DeclareUnavailable(date time.Time) {
	e.unavailable[NormalizeDate(date).Format(time.DateOnly)] = struct{}{}
	e.Touch()
}

// ClearUnavailable removes an unavailability date.
func (e *Employee) ClearUnavailable(date time.Time) {
	delete(e.unavailable, NormalizeDate(date).Format(time.DateOnly))
	e.Touch()
}

// HasSpecialization reports whether the employee carries a tag.
func (e *Employee) HasSpecialization(tag string) bool {
	for _, s := range e.specializations {
		if s == tag {
			return true
		}
	}
	return false
}

// RecordAssignment updates the history snapshot after a slot is bound.
func (e *Employee) RecordAssignment(at time.Time, templateName string, weekday Weekday, hours float64) {
	e.history.WeeklyHours += hours
	at = at.UTC()
	e.history.LastAssignedAt = &at
	e.history.LastTemplateName = templateName
	e.history.LastWeekday = &weekday
	e.Touch()
}

// ResetWeeklyHours zeroes the accumulated weekly hours (week rollover).
func (e *Employee) ResetWeeklyHours() {
	e.history.WeeklyHours = 0
	e.Touch()
}

// VacantDirtyMinutes returns the per-worker override or the sector default.
func (e *Employee) VacantDirtyMinutes(sectorDefault float64) float64 {
	if e.speed.VacantDirtyMin != nil {
		return *e.speed.VacantDirtyMin
	}
	return sectorDefault
}

// StayoverMinutes returns the per-worker override or the sector default.
func (e *Employee) StayoverMinutes(sectorDefault float64) float64 {
	if e.speed.StayoverMin != nil {
		return *e.speed.StayoverMin
	}
	return sectorDefault
}

// Deactivate removes the employee from candidate pools.
func (e *Employee) Deactivate() {
	e.active = false
	e.Touch()
}
