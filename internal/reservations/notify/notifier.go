// Package notify publishes reservation lifecycle events. Delivery is
// fire-and-forget: a broker outage must never fail or delay the booking
// path, so failures are logged and dropped.
package notify

import (
	"context"
	"time"

	"fleetbook/pkg/kafka"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

type Event string

const (
	EventCreated   Event = "reservation.created"
	EventApproved  Event = "reservation.approved"
	EventCancelled Event = "reservation.cancelled"
	EventRejected  Event = "reservation.rejected"
	EventCompleted Event = "reservation.completed"
)

// EventForStatus maps a terminal-or-approved status to its lifecycle event.
func EventForStatus(status model.Status) Event {
	switch status {
	case model.StatusApproved:
		return EventApproved
	case model.StatusCancelled:
		return EventCancelled
	case model.StatusRejected:
		return EventRejected
	case model.StatusCompleted:
		return EventCompleted
	default:
		return EventCreated
	}
}

type Notifier interface {
	Notify(ctx context.Context, event Event, reservation *model.Reservation)
}

const publishTimeout = 5 * time.Second

type kafkaNotifier struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		source:   source,
		log:      log,
	}
}

// Notify publishes asynchronously. The event is keyed by reservation id so
// a reservation's events land on one partition in order. The caller's
// context is deliberately not propagated; a cancelled request must not
// cancel an event for work that already committed.
func (n *kafkaNotifier) Notify(ctx context.Context, event Event, reservation *model.Reservation) {
	msg := kafka.NewMessage().
		WithKey(reservation.ID).
		WithValue(reservation).
		WithEventType(string(event)).
		WithSource(n.source).
		Build()

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.producer.Publish(pubCtx, msg); err != nil {
			n.log.Warn("dropping reservation event",
				"event", string(event),
				"reservation_id", reservation.ID,
				"error", err,
			)
		}
	}()
}

// NopNotifier discards all events. Used in tests and when no broker is
// configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event, *model.Reservation) {}
