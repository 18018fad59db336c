package application

import (
	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// NewEventMetadata creates event metadata with a fresh correlation id.
func NewEventMetadata() sharedDomain.EventMetadata {
	return sharedDomain.EventMetadata{
		CorrelationID: uuid.New(),
	}
}

// ApplyEventMetadata stamps metadata on a batch of events. The first event
// keeps the given correlation id; subsequent events are caused by it.
func ApplyEventMetadata(events []sharedDomain.DomainEvent, metadata sharedDomain.EventMetadata) {
	for _, event := range events {
		if settable, ok := event.(interface {
			SetMetadata(sharedDomain.EventMetadata)
		}); ok {
			settable.SetMetadata(metadata)
		}
	}
}
