package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	ErrBaselineRequired = errors.New("ADJUSTMENT plans must reference a baseline plan")
	ErrPlanTerminal     = errors.New("plan is in a terminal status")
)

// PlanKind distinguishes the authoritative weekly plan from adjustments
// derived against it.
type PlanKind string

const (
	PlanBaseline   PlanKind = "BASELINE"
	PlanAdjustment PlanKind = "ADJUSTMENT"
)

// PlanStatus is the plan lifecycle.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "DRAFT"
	PlanFinal     PlanStatus = "FINAL"
	PlanAdjusted  PlanStatus = "ADJUSTED"
	PlanCancelled PlanStatus = "CANCELLED"
)

// PlanTotals summarizes a plan's staffing volume.
type PlanTotals struct {
	Headcount int     `json:"headcount"`
	Hours     float64 `json:"hours"`
}

// DeltaVsBaseline carries the differences an adjustment plan introduces.
type DeltaVsBaseline struct {
	HeadcountDelta int     `json:"headcount_delta"`
	HoursDelta     float64 `json:"hours_delta"`
}

// SchedulePlan is one week's shift layout for a sector, derived from a
// forecast run. An ADJUSTMENT plan always references its baseline.
type SchedulePlan struct {
	sharedDomain.BaseAggregateRoot
	sectorID       uuid.UUID
	forecastRunID  uuid.UUID
	weekStart      time.Time
	weekEnd        time.Time
	kind           PlanKind
	baselinePlanID *uuid.UUID
	status         PlanStatus
	totals         PlanTotals
	coverageByHour map[int]int
	validations    []sharedDomain.Finding
	delta          *DeltaVsBaseline
	slots          []*ShiftSlot
}

// NewSchedulePlan creates a DRAFT plan for [weekStart, weekStart+6].
func NewSchedulePlan(sectorID, forecastRunID uuid.UUID, weekStart time.Time, kind PlanKind, baselinePlanID *uuid.UUID) (*SchedulePlan, error) {
	if kind == PlanAdjustment && baselinePlanID == nil {
		return nil, ErrBaselineRequired
	}
	weekStart = workforce.NormalizeDate(weekStart)
	return &SchedulePlan{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		forecastRunID:     forecastRunID,
		weekStart:         weekStart,
		weekEnd:           weekStart.AddDate(0, 0, 6),
		kind:              kind,
		baselinePlanID:    baselinePlanID,
		status:            PlanDraft,
		coverageByHour:    map[int]int{},
	}, nil
}

// RehydrateSchedulePlan recreates a plan from persisted state (without slots;
// the repository attaches them).
func RehydrateSchedulePlan(id, sectorID, forecastRunID uuid.UUID, weekStart, weekEnd time.Time, kind PlanKind, baselinePlanID *uuid.UUID, status PlanStatus, totals PlanTotals, coverageByHour map[int]int, validations []sharedDomain.Finding, delta *DeltaVsBaseline, createdAt, updatedAt time.Time) *SchedulePlan {
	if coverageByHour == nil {
		coverageByHour = map[int]int{}
	}
	return &SchedulePlan{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:       sectorID,
		forecastRunID:  forecastRunID,
		weekStart:      weekStart,
		weekEnd:        weekEnd,
		kind:           kind,
		baselinePlanID: baselinePlanID,
		status:         status,
		totals:         totals,
		coverageByHour: coverageByHour,
		validations:    validations,
		delta:          delta,
	}
}

func (p *SchedulePlan) SectorID() uuid.UUID                 { return p.sectorID }
func (p *SchedulePlan) ForecastRunID() uuid.UUID            { return p.forecastRunID }
func (p *SchedulePlan) WeekStart() time.Time                { return p.weekStart }
func (p *SchedulePlan) WeekEnd() time.Time                  { return p.weekEnd }
func (p *SchedulePlan) Kind() PlanKind                      { return p.kind }
func (p *SchedulePlan) BaselinePlanID() *uuid.UUID          { return p.baselinePlanID }
func (p *SchedulePlan) Status() PlanStatus                  { return p.status }
func (p *SchedulePlan) Totals() PlanTotals                  { return p.totals }
func (p *SchedulePlan) CoverageByHour() map[int]int         { return p.coverageByHour }
func (p *SchedulePlan) Validations() []sharedDomain.Finding { return p.validations }
func (p *SchedulePlan) Delta() *DeltaVsBaseline             { return p.delta }
func (p *SchedulePlan) Slots() []*ShiftSlot                 { return p.slots }

// AttachSlots replaces the in-memory slot set (used on rehydration).
func (p *SchedulePlan) AttachSlots(slots []*ShiftSlot) {
	p.slots = slots
}

// AddSlot appends a slot and updates the totals.
func (p *SchedulePlan) AddSlot(slot *ShiftSlot) {
	p.slots = append(p.slots, slot)
	p.recalcTotals()
	p.Touch()
}

// RemoveSlot drops a slot by id; unknown ids are ignored.
func (p *SchedulePlan) RemoveSlot(slotID uuid.UUID) bool {
	for i, slot := range p.slots {
		if slot.ID() == slotID {
			p.slots = append(p.slots[:i], p.slots[i+1:]...)
			p.recalcTotals()
			p.Touch()
			return true
		}
	}
	return false
}

// SlotsOn lists the plan's slots for one date ordered as stored.
func (p *SchedulePlan) SlotsOn(date time.Time) []*ShiftSlot {
	date = workforce.NormalizeDate(date)
	var slots []*ShiftSlot
	for _, slot := range p.slots {
		if slot.TargetDate().Equal(date) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (p *SchedulePlan) recalcTotals() {
	totals := PlanTotals{}
	for _, slot := range p.slots {
		totals.Headcount++
		totals.Hours += slot.HoursWorked()
	}
	p.totals = totals
}

// SetCoverage replaces the per-hour coverage map.
func (p *SchedulePlan) SetCoverage(coverage map[int]int) {
	p.coverageByHour = coverage
	p.Touch()
}

// SetValidations replaces the stored legal findings.
func (p *SchedulePlan) SetValidations(findings []sharedDomain.Finding) {
	p.validations = findings
	p.Touch()
}

// SetDelta records the adjustment plan's difference from its baseline.
func (p *SchedulePlan) SetDelta(delta DeltaVsBaseline) {
	p.delta = &delta
	p.Touch()
}

// Finalize moves DRAFT to FINAL.
func (p *SchedulePlan) Finalize() error {
	if p.status != PlanDraft {
		return ErrPlanTerminal
	}
	p.status = PlanFinal
	p.Touch()
	return nil
}

// MarkAdjusted flags a baseline that has a live adjustment plan.
func (p *SchedulePlan) MarkAdjusted() {
	p.status = PlanAdjusted
	p.Touch()
}

// Cancel retires the plan.
func (p *SchedulePlan) Cancel() error {
	if p.status == PlanCancelled {
		return ErrPlanTerminal
	}
	p.status = PlanCancelled
	p.Touch()
	return nil
}

// IsValid reports whether the stored validations contain no errors.
func (p *SchedulePlan) IsValid() bool {
	for _, finding := range p.validations {
		if finding.Severity == sharedDomain.SeverityError {
			return false
		}
	}
	return true
}
