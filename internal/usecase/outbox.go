package usecase

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	eventVersion  = 1
	eventProducer = "storefront-api"
)

// newOutboxEvent упаковывает полезную нагрузку в конверт и готовит запись outbox.
func newOutboxEvent(eventType OutboxEventType, aggregateID string, payload any, now time.Time) (*OutboxEvent, error) {
	eventID := uuid.NewString()

	data, err := json.Marshal(Envelope{
		EventID:       eventID,
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    now.UTC(),
		Producer:      eventProducer,
		CorrelationID: aggregateID,
		Payload:       payload,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     data,
		Status:      Pending,
		CreatedAt:   now,
	}, nil
}
