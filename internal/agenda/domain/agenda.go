package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// PendingReasonManual marks EVENTUAL items that need a human to schedule.
const PendingReasonManual = "manual scheduling required"

// AgendaStatus is the agenda lifecycle.
type AgendaStatus string

const (
	AgendaDraft     AgendaStatus = "DRAFT"
	AgendaGenerated AgendaStatus = "GENERATED"
	AgendaApproved  AgendaStatus = "APPROVED"
	AgendaConflict  AgendaStatus = "CONFLICT"
)

// EmployeeDailyAgenda is one employee's ordered activity list for one
// assigned slot. Agendas are regenerated from scratch, never edited.
type EmployeeDailyAgenda struct {
	sharedDomain.BaseAggregateRoot
	planID           uuid.UUID
	slotID           uuid.UUID
	employeeID       uuid.UUID
	targetDate       time.Time
	minutesAvailable int
	minutesAllocated int
	status           AgendaStatus
	hasConflict      bool
	items            []*AgendaItem
}

// AgendaItem is one ordered allocation inside an agenda.
type AgendaItem struct {
	ID             uuid.UUID                        `json:"id"`
	AgendaID       uuid.UUID                        `json:"agenda_id"`
	ActivityID     uuid.UUID                        `json:"activity_id"`
	ActivityName   string                           `json:"activity_name"`
	Order          int                              `json:"order"`
	Minutes        int                              `json:"minutes"`
	Quantity       int                              `json:"quantity"`
	Difficulty     int                              `json:"difficulty"`
	Classification workforce.ActivityClassification `json:"classification"`
	IsPending      bool                             `json:"is_pending"`
	PendingReason  string                           `json:"pending_reason,omitempty"`
}

// NewEmployeeDailyAgenda opens a DRAFT agenda for an assigned slot.
func NewEmployeeDailyAgenda(planID, slotID, employeeID uuid.UUID, targetDate time.Time, minutesAvailable int) *EmployeeDailyAgenda {
	return &EmployeeDailyAgenda{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		planID:            planID,
		slotID:            slotID,
		employeeID:        employeeID,
		targetDate:        workforce.NormalizeDate(targetDate),
		minutesAvailable:  minutesAvailable,
		status:            AgendaDraft,
	}
}

// RehydrateEmployeeDailyAgenda recreates an agenda from persisted state.
func RehydrateEmployeeDailyAgenda(id, planID, slotID, employeeID uuid.UUID, targetDate time.Time, minutesAvailable, minutesAllocated int, status AgendaStatus, hasConflict bool, items []*AgendaItem, createdAt, updatedAt time.Time) *EmployeeDailyAgenda {
	return &EmployeeDailyAgenda{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		planID:           planID,
		slotID:           slotID,
		employeeID:       employeeID,
		targetDate:       targetDate,
		minutesAvailable: minutesAvailable,
		minutesAllocated: minutesAllocated,
		status:           status,
		hasConflict:      hasConflict,
		items:            items,
	}
}

func (a *EmployeeDailyAgenda) PlanID() uuid.UUID     { return a.planID }
func (a *EmployeeDailyAgenda) SlotID() uuid.UUID     { return a.slotID }
func (a *EmployeeDailyAgenda) EmployeeID() uuid.UUID { return a.employeeID }
func (a *EmployeeDailyAgenda) TargetDate() time.Time { return a.targetDate }
func (a *EmployeeDailyAgenda) MinutesAvailable() int { return a.minutesAvailable }
func (a *EmployeeDailyAgenda) MinutesAllocated() int { return a.minutesAllocated }
func (a *EmployeeDailyAgenda) Status() AgendaStatus  { return a.status }
func (a *EmployeeDailyAgenda) HasConflict() bool     { return a.hasConflict }
func (a *EmployeeDailyAgenda) Items() []*AgendaItem  { return a.items }

// MinutesFree is the remaining allocatable time.
func (a *EmployeeDailyAgenda) MinutesFree() int {
	return a.minutesAvailable - a.minutesAllocated
}

// AddItem appends an allocation in order. Pending items consume no capacity.
func (a *EmployeeDailyAgenda) AddItem(activity *workforce.GovernanceActivity, minutes, quantity int, isPending bool, pendingReason string) *AgendaItem {
	item := &AgendaItem{
		ID:             uuid.New(),
		AgendaID:       a.ID(),
		ActivityID:     activity.ID(),
		ActivityName:   activity.Name(),
		Order:          len(a.items) + 1,
		Minutes:        minutes,
		Quantity:       quantity,
		Difficulty:     activity.Difficulty(),
		Classification: activity.Classification(),
		IsPending:      isPending,
		PendingReason:  pendingReason,
	}
	a.items = append(a.items, item)
	if !isPending {
		a.minutesAllocated += minutes
	}
	a.Touch()
	return item
}

// MarkGenerated closes a clean generation pass.
func (a *EmployeeDailyAgenda) MarkGenerated() {
	a.status = AgendaGenerated
	a.Touch()
}

// MarkConflict flags the agenda as part of an over-capacity day.
func (a *EmployeeDailyAgenda) MarkConflict() {
	a.hasConflict = true
	a.status = AgendaConflict
	a.Touch()
}

// Approve finalizes the agenda.
func (a *EmployeeDailyAgenda) Approve() {
	a.status = AgendaApproved
	a.Touch()
}
