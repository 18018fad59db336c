package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// StatusChangedEvent is published on every convocation status transition.
type StatusChangedEvent struct {
	sharedDomain.BaseEvent
	EmployeeID uuid.UUID
	From       ConvocationStatus
	To         ConvocationStatus
}

// NewStatusChangedEvent creates a status transition event. The routing key
// carries the new status, e.g. "convocation.accepted".
func NewStatusChangedEvent(convocationID, employeeID uuid.UUID, from, to ConvocationStatus) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent:  sharedDomain.NewBaseEvent(convocationID, "convocation", routingKeyFor(to)),
		EmployeeID: employeeID,
		From:       from,
		To:         to,
	}
}

func routingKeyFor(status ConvocationStatus) string {
	switch status {
	case StatusAccepted:
		return "convocation.accepted"
	case StatusDeclined:
		return "convocation.declined"
	case StatusExpired:
		return "convocation.expired"
	case StatusCancelled:
		return "convocation.cancelled"
	default:
		return "convocation.created"
	}
}
