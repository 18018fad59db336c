package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// Envelope is the wire format for domain events.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID uuid.UUID       `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// PublishEvents serializes domain events and publishes them one by one.
// Publish failures are returned on the first error; events already published
// are not retracted (consumers must be idempotent).
func PublishEvents(ctx context.Context, pub Publisher, events []sharedDomain.DomainEvent) error {
	if pub == nil {
		return nil
	}
	for _, event := range events {
		env := Envelope{
			EventID:       event.EventID(),
			AggregateID:   event.AggregateID(),
			AggregateType: event.AggregateType(),
			RoutingKey:    event.RoutingKey(),
			OccurredAt:    event.OccurredAt(),
			CorrelationID: event.Metadata().CorrelationID,
		}
		if payload, err := json.Marshal(event); err == nil {
			env.Payload = payload
		}
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := pub.Publish(ctx, event.RoutingKey(), body); err != nil {
			return err
		}
	}
	return nil
}
