package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// ConvocationStatus is the convocation lifecycle. Terminal statuses are
// immutable.
type ConvocationStatus string

const (
	StatusPending   ConvocationStatus = "PENDING"
	StatusAccepted  ConvocationStatus = "ACCEPTED"
	StatusDeclined  ConvocationStatus = "DECLINED"
	StatusExpired   ConvocationStatus = "EXPIRED"
	StatusCancelled ConvocationStatus = "CANCELLED"
)

// ConvocationOrigin tells which pass produced the convocation.
type ConvocationOrigin string

const (
	OriginBaseline   ConvocationOrigin = "BASELINE"
	OriginAdjustment ConvocationOrigin = "ADJUSTMENT"
	OriginReschedule ConvocationOrigin = "RESCHEDULE"
	OriginManual     ConvocationOrigin = "MANUAL"
)

// LegalValidation is the outcome stored on the convocation at creation time.
type LegalValidation struct {
	Passed   bool                   `json:"passed"`
	Errors   []sharedDomain.Finding `json:"errors,omitempty"`
	Warnings []sharedDomain.Finding `json:"warnings,omitempty"`
}

// Convocation is a formal, time-stamped invitation to work one slot. A
// DECLINED or EXPIRED convocation can be replaced; the replacement id links
// the chain forward and replacedID links it back.
type Convocation struct {
	sharedDomain.BaseAggregateRoot
	employeeID       uuid.UUID
	sectorID         uuid.UUID
	planID           uuid.UUID
	slotID           uuid.UUID
	targetDate       time.Time
	start            workforce.TimeOfDay
	end              workforce.TimeOfDay
	breakMinutes     int
	totalHours       float64
	status           ConvocationStatus
	origin           ConvocationOrigin
	sentAt           time.Time
	responseDeadline time.Time
	respondedAt      *time.Time
	cancelReason     string
	replacedID       *uuid.UUID
	replacementID    *uuid.UUID
	validation       LegalValidation
}

// NewConvocation opens a PENDING convocation.
func NewConvocation(
	employeeID, sectorID, planID, slotID uuid.UUID,
	targetDate time.Time,
	start, end workforce.TimeOfDay,
	breakMinutes int,
	origin ConvocationOrigin,
	sentAt time.Time,
	responseHours float64,
	validation LegalValidation,
) *Convocation {
	totalHours := float64(end.Minutes()-start.Minutes()-breakMinutes) / 60
	if totalHours < 0 {
		totalHours = 0
	}
	return &Convocation{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		employeeID:        employeeID,
		sectorID:          sectorID,
		planID:            planID,
		slotID:            slotID,
		targetDate:        workforce.NormalizeDate(targetDate),
		start:             start,
		end:               end,
		breakMinutes:      breakMinutes,
		totalHours:        totalHours,
		status:            StatusPending,
		origin:            origin,
		sentAt:            sentAt,
		responseDeadline:  sentAt.Add(time.Duration(responseHours * float64(time.Hour))),
		validation:        validation,
	}
}

// RehydrateConvocation recreates a convocation from persisted state.
func RehydrateConvocation(
	id, employeeID, sectorID, planID, slotID uuid.UUID,
	targetDate time.Time,
	start, end workforce.TimeOfDay,
	breakMinutes int,
	totalHours float64,
	status ConvocationStatus,
	origin ConvocationOrigin,
	sentAt, responseDeadline time.Time,
	respondedAt *time.Time,
	cancelReason string,
	replacedID, replacementID *uuid.UUID,
	validation LegalValidation,
	createdAt, updatedAt time.Time,
) *Convocation {
	return &Convocation{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		employeeID:       employeeID,
		sectorID:         sectorID,
		planID:           planID,
		slotID:           slotID,
		targetDate:       targetDate,
		start:            start,
		end:              end,
		breakMinutes:     breakMinutes,
		totalHours:       totalHours,
		status:           status,
		origin:           origin,
		sentAt:           sentAt,
		responseDeadline: responseDeadline,
		respondedAt:      respondedAt,
		cancelReason:     cancelReason,
		replacedID:       replacedID,
		replacementID:    replacementID,
		validation:       validation,
	}
}

func (c *Convocation) EmployeeID() uuid.UUID       { return c.employeeID }
func (c *Convocation) SectorID() uuid.UUID         { return c.sectorID }
func (c *Convocation) PlanID() uuid.UUID           { return c.planID }
func (c *Convocation) SlotID() uuid.UUID           { return c.slotID }
func (c *Convocation) TargetDate() time.Time       { return c.targetDate }
func (c *Convocation) Start() workforce.TimeOfDay  { return c.start }
func (c *Convocation) End() workforce.TimeOfDay    { return c.end }
func (c *Convocation) BreakMinutes() int           { return c.breakMinutes }
func (c *Convocation) TotalHours() float64         { return c.totalHours }
func (c *Convocation) Status() ConvocationStatus   { return c.status }
func (c *Convocation) Origin() ConvocationOrigin   { return c.origin }
func (c *Convocation) SentAt() time.Time           { return c.sentAt }
func (c *Convocation) ResponseDeadline() time.Time { return c.responseDeadline }
func (c *Convocation) RespondedAt() *time.Time     { return c.respondedAt }
func (c *Convocation) CancelReason() string        { return c.cancelReason }
func (c *Convocation) ReplacedID() *uuid.UUID      { return c.replacedID }
func (c *Convocation) ReplacementID() *uuid.UUID   { return c.replacementID }
func (c *Convocation) Validation() LegalValidation { return c.validation }

// IsTerminal reports whether the status is immutable.
func (c *Convocation) IsTerminal() bool {
	return c.status != StatusPending
}

// Accept transitions PENDING to ACCEPTED.
func (c *Convocation) Accept(now time.Time) error {
	if err := c.requirePending("accept"); err != nil {
		return err
	}
	c.status = StatusAccepted
	c.respondedAt = &now
	c.Touch()
	c.AddDomainEvent(NewStatusChangedEvent(c.ID(), c.employeeID, StatusPending, StatusAccepted))
	return nil
}

// Decline transitions PENDING to DECLINED.
func (c *Convocation) Decline(now time.Time) error {
	if err := c.requirePending("decline"); err != nil {
		return err
	}
	c.status = StatusDeclined
	c.respondedAt = &now
	c.Touch()
	c.AddDomainEvent(NewStatusChangedEvent(c.ID(), c.employeeID, StatusPending, StatusDeclined))
	return nil
}

// Expire transitions PENDING to EXPIRED once the deadline has passed.
func (c *Convocation) Expire(now time.Time) error {
	if err := c.requirePending("expire"); err != nil {
		return err
	}
	if now.Before(c.responseDeadline) {
		return &sharedDomain.ConflictError{Entity: "convocation", Reason: "response deadline has not passed"}
	}
	c.status = StatusExpired
	c.Touch()
	c.AddDomainEvent(NewStatusChangedEvent(c.ID(), c.employeeID, StatusPending, StatusExpired))
	return nil
}

// Cancel transitions PENDING to CANCELLED with the reason stored.
func (c *Convocation) Cancel(reason string) error {
	if err := c.requirePending("cancel"); err != nil {
		return err
	}
	c.status = StatusCancelled
	c.cancelReason = reason
	c.Touch()
	c.AddDomainEvent(NewStatusChangedEvent(c.ID(), c.employeeID, StatusPending, StatusCancelled))
	return nil
}

// MarkReplaces records the predecessor on a RESCHEDULE convocation.
func (c *Convocation) MarkReplaces(predecessorID uuid.UUID) {
	c.replacedID = &predecessorID
	c.Touch()
}

// LinkReplacement stores the successor id on a DECLINED or EXPIRED
// convocation.
func (c *Convocation) LinkReplacement(successorID uuid.UUID) error {
	if c.status != StatusDeclined && c.status != StatusExpired {
		return &sharedDomain.ConflictError{Entity: "convocation", Reason: "only declined or expired convocations can be replaced"}
	}
	if c.replacementID != nil {
		return &sharedDomain.ConflictError{Entity: "convocation", Reason: "convocation already replaced"}
	}
	c.replacementID = &successorID
	c.Touch()
	return nil
}

func (c *Convocation) requirePending(action string) error {
	if c.status != StatusPending {
		return &sharedDomain.ConflictError{
			Entity: "convocation",
			Reason: "cannot " + action + " a " + string(c.status) + " convocation",
		}
	}
	return nil
}
