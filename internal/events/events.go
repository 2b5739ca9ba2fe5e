// Package events fans order and table events out to every configured sink
// (websocket rooms, the message broker). Delivery is best effort.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is one domain event scoped to an establishment.
type Event struct {
	Type            string      `json:"type"`
	EstablishmentID uuid.UUID   `json:"establishment_id"`
	OccurredAt      time.Time   `json:"occurred_at"`
	Payload         interface{} `json:"payload"`
}

// Sink receives published events.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Bus publishes to every sink. A failing sink is logged and skipped.
type Bus struct {
	sinks []Sink
	log   *logrus.Entry
	now   func() time.Time
}

func NewBus(log *logrus.Entry, sinks ...Sink) *Bus {
	return &Bus{sinks: sinks, log: log, now: time.Now}
}

// Publish never fails; events are side effects of committed changes.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = b.now()
	}
	for _, s := range b.sinks {
		if err := s.Publish(ctx, e); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"event":            e.Type,
				"establishment_id": e.EstablishmentID,
			}).Warn("publish event")
		}
	}
	return nil
}
