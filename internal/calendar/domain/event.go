package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	ErrNameRequired   = errors.New("calendar event name is required")
	ErrBadDateRange   = errors.New("calendar event end precedes start")
	ErrBadFactor      = errors.New("calendar factors must be positive")
	ErrSectorRequired = errors.New("SECTOR events must be owned by a sector")
)

// EventScope tells whether an event applies hotel-wide or to one sector.
type EventScope string

const (
	ScopeGlobal EventScope = "GLOBAL"
	ScopeSector EventScope = "SECTOR"
)

// CalendarEvent is a date-ranged factor override: holidays, maintenance
// windows, local events. Factors multiply into the demand and productivity
// computations for every covered day.
type CalendarEvent struct {
	sharedDomain.BaseAggregateRoot
	scope              EventScope
	sectorID           *uuid.UUID
	name               string
	startDate          time.Time
	endDate            time.Time
	productivityFactor float64
	demandFactor       float64
	blockConvocations  bool
	active             bool
}

// NewCalendarEvent creates an event covering [start, end] inclusive.
func NewCalendarEvent(scope EventScope, sectorID *uuid.UUID, name string, start, end time.Time, productivityFactor, demandFactor float64, blockConvocations bool) (*CalendarEvent, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	start = workforce.NormalizeDate(start)
	end = workforce.NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrBadDateRange
	}
	if productivityFactor <= 0 || demandFactor <= 0 {
		return nil, ErrBadFactor
	}
	if scope == ScopeSector && sectorID == nil {
		return nil, ErrSectorRequired
	}
	if scope == ScopeGlobal {
		sectorID = nil
	}
	return &CalendarEvent{
		BaseAggregateRoot:  sharedDomain.NewBaseAggregateRoot(),
		scope:              scope,
		sectorID:           sectorID,
		name:               name,
		startDate:          start,
		endDate:            end,
		productivityFactor: productivityFactor,
		demandFactor:       demandFactor,
		blockConvocations:  blockConvocations,
		active:             true,
	}, nil
}

// RehydrateCalendarEvent recreates an event from persisted state.
func RehydrateCalendarEvent(id uuid.UUID, scope EventScope, sectorID *uuid.UUID, name string, start, end time.Time, productivityFactor, demandFactor float64, blockConvocations, active bool, createdAt, updatedAt time.Time) *CalendarEvent {
	return &CalendarEvent{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		scope:              scope,
		sectorID:           sectorID,
		name:               name,
		startDate:          start,
		endDate:            end,
		productivityFactor: productivityFactor,
		demandFactor:       demandFactor,
		blockConvocations:  blockConvocations,
		active:             active,
	}
}

func (e *CalendarEvent) Scope() EventScope           { return e.scope }
func (e *CalendarEvent) SectorID() *uuid.UUID        { return e.sectorID }
func (e *CalendarEvent) Name() string                { return e.name }
func (e *CalendarEvent) StartDate() time.Time        { return e.startDate }
func (e *CalendarEvent) EndDate() time.Time          { return e.endDate }
func (e *CalendarEvent) ProductivityFactor() float64 { return e.productivityFactor }
func (e *CalendarEvent) DemandFactor() float64       { return e.demandFactor }
func (e *CalendarEvent) BlocksConvocations() bool    { return e.blockConvocations }
func (e *CalendarEvent) IsActive() bool              { return e.active }

// Deactivate disables the event.
func (e *CalendarEvent) Deactivate() {
	e.active = false
	e.Touch()
}

// Covers reports whether the event is in force on a date.
func (e *CalendarEvent) Covers(date time.Time) bool {
	if !e.active {
		return false
	}
	date = workforce.NormalizeDate(date)
	return !date.Before(e.startDate) && !date.After(e.endDate)
}

// DayFactors is the composed factor set for one (date, sector).
type DayFactors struct {
	ProductivityFactor float64  `json:"productivity_factor"`
	DemandFactor       float64  `json:"demand_factor"`
	BlockConvocations  bool     `json:"block_convocations"`
	AppliedEvents      []string `json:"applied_events,omitempty"`
}

// NeutralFactors is the identity composition: no events in force.
func NeutralFactors() DayFactors {
	return DayFactors{ProductivityFactor: 1, DemandFactor: 1}
}

// Compose folds events into day factors multiplicatively, GLOBAL events
// first, then SECTOR events. Only events covering the date contribute.
func Compose(date time.Time, events []*CalendarEvent) DayFactors {
	factors := NeutralFactors()
	for _, scope := range []EventScope{ScopeGlobal, ScopeSector} {
		for _, event := range events {
			if event.Scope() != scope || !event.Covers(date) {
				continue
			}
			factors.ProductivityFactor *= event.ProductivityFactor()
			factors.DemandFactor *= event.DemandFactor()
			factors.BlockConvocations = factors.BlockConvocations || event.BlocksConvocations()
			factors.AppliedEvents = append(factors.AppliedEvents, event.Name())
		}
	}
	return factors
}
