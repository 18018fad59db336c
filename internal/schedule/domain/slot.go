package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// ShiftSlot is one worker-sized presence window inside a plan. Slots are
// created unassigned; the assignment engine binds employees in place.
type ShiftSlot struct {
	sharedDomain.BaseEntity
	planID       uuid.UUID
	targetDate   time.Time
	templateName string
	templateTag  string
	start        workforce.TimeOfDay
	end          workforce.TimeOfDay
	lunchStart   *workforce.TimeOfDay
	lunchEnd     *workforce.TimeOfDay
	employeeID   *uuid.UUID
	isAssigned   bool
}

// NewShiftSlot creates an unassigned slot.
func NewShiftSlot(planID uuid.UUID, targetDate time.Time, template workforce.ShiftTemplate, lunchStart, lunchEnd *workforce.TimeOfDay) *ShiftSlot {
	return &ShiftSlot{
		BaseEntity:   sharedDomain.NewBaseEntity(),
		planID:       planID,
		targetDate:   workforce.NormalizeDate(targetDate),
		templateName: template.Name,
		templateTag:  template.Tag,
		start:        template.Start,
		end:          template.End,
		lunchStart:   lunchStart,
		lunchEnd:     lunchEnd,
	}
}

// RehydrateShiftSlot recreates a slot from persisted state.
func RehydrateShiftSlot(id, planID uuid.UUID, targetDate time.Time, templateName, templateTag string, start, end workforce.TimeOfDay, lunchStart, lunchEnd *workforce.TimeOfDay, employeeID *uuid.UUID, isAssigned bool, createdAt, updatedAt time.Time) *ShiftSlot {
	return &ShiftSlot{
		BaseEntity:   sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		planID:       planID,
		targetDate:   targetDate,
		templateName: templateName,
		templateTag:  templateTag,
		start:        start,
		end:          end,
		lunchStart:   lunchStart,
		lunchEnd:     lunchEnd,
		employeeID:   employeeID,
		isAssigned:   isAssigned,
	}
}

func (s *ShiftSlot) PlanID() uuid.UUID                { return s.planID }
func (s *ShiftSlot) TargetDate() time.Time            { return s.targetDate }
func (s *ShiftSlot) TemplateName() string             { return s.templateName }
func (s *ShiftSlot) TemplateTag() string              { return s.templateTag }
func (s *ShiftSlot) Start() workforce.TimeOfDay       { return s.start }
func (s *ShiftSlot) End() workforce.TimeOfDay         { return s.end }
func (s *ShiftSlot) LunchStart() *workforce.TimeOfDay { return s.lunchStart }
func (s *ShiftSlot) LunchEnd() *workforce.TimeOfDay   { return s.lunchEnd }
func (s *ShiftSlot) EmployeeID() *uuid.UUID           { return s.employeeID }
func (s *ShiftSlot) IsAssigned() bool                 { return s.isAssigned }

// HoursWorked is the slot length minus lunch, in hours.
func (s *ShiftSlot) HoursWorked() float64 {
	minutes := s.end.Minutes() - s.start.Minutes()
	if s.lunchStart != nil && s.lunchEnd != nil {
		minutes -= s.lunchEnd.Minutes() - s.lunchStart.Minutes()
	}
	return float64(minutes) / 60
}

// LunchMinutes is the lunch break length, 0 when none was placed.
func (s *ShiftSlot) LunchMinutes() int {
	if s.lunchStart == nil || s.lunchEnd == nil {
		return 0
	}
	return s.lunchEnd.Minutes() - s.lunchStart.Minutes()
}

// AvailableMinutes is the working time an agenda can fill.
func (s *ShiftSlot) AvailableMinutes() int {
	return s.end.Minutes() - s.start.Minutes() - s.LunchMinutes()
}

// Assign binds an employee; reassigning mutates the slot in place.
func (s *ShiftSlot) Assign(employeeID uuid.UUID) {
	s.employeeID = &employeeID
	s.isAssigned = true
	s.Touch()
}

// Unassign releases the slot.
func (s *ShiftSlot) Unassign() {
	s.employeeID = nil
	s.isAssigned = false
	s.Touch()
}

// OverrideTimes replaces the slot window in place (work-shift day rules).
func (s *ShiftSlot) OverrideTimes(start, end workforce.TimeOfDay) {
	s.start = start
	s.end = end
	s.Touch()
}

// CoversHour reports whether the slot works clock hour h: h is inside
// [start, end) and outside the lunch window.
func (s *ShiftSlot) CoversHour(h int) bool {
	minutes := h * 60
	if minutes < s.start.Minutes() || minutes >= s.end.Minutes() {
		return false
	}
	if s.lunchStart != nil && s.lunchEnd != nil &&
		minutes >= s.lunchStart.Minutes() && minutes < s.lunchEnd.Minutes() {
		return false
	}
	return true
}

// StartsAt returns the slot's absolute start instant in UTC.
func (s *ShiftSlot) StartsAt() time.Time {
	return s.targetDate.Add(time.Duration(s.start.Minutes()) * time.Minute)
}

// OverrideLog records one manual headcount override applied to a plan day.
type OverrideLog struct {
	ID           uuid.UUID   `json:"id"`
	PlanID       uuid.UUID   `json:"plan_id"`
	TargetDate   time.Time   `json:"target_date"`
	PriorCount   int         `json:"prior_count"`
	NewCount     int         `json:"new_count"`
	Reason       string      `json:"reason,omitempty"`
	RemovedSlots []uuid.UUID `json:"removed_slots,omitempty"`
	AddedSlots   []uuid.UUID `json:"added_slots,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
