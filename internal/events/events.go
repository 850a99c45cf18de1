// Package events announces booking changes to other services. Publication
// happens after the write has committed and never fails the request.
package events

import (
	"canchas/pkg/kafka"
	"canchas/pkg/logger"
	"canchas/pkg/middleware"
	"context"
	"time"
)

const (
	ReservationBooked    = "reservation.booked"
	ReservationCancelled = "reservation.cancelled"
	ReservationRebooked  = "reservation.rebooked"
	ReservationDeleted   = "reservation.deleted"

	PartyBooked    = "party.booked"
	PartyCancelled = "party.cancelled"
	PartyRebooked  = "party.rebooked"
	PartyDeleted   = "party.deleted"

	VenueDeleted = "venue.deleted"
	CourtCreated = "court.created"
	CourtDeleted = "court.deleted"
)

const (
	schemaVersion  = "1"
	publishTimeout = 5 * time.Second
)

// Event is keyed by the court or venue it concerns.
type Event struct {
	Type    string
	Key     string
	Payload any
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessagePublisher
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) {
	msg, err := kafka.NewMessage().
		WithKey(event.Key).
		WithValue(event.Payload).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "type", event.Type, "key", event.Key, "error", err)
		return
	}

	// The request may already be finishing; the event outlives its deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"type", event.Type,
			"key", event.Key,
			"error", err,
		)
	}
}

type nopPublisher struct{}

// Nop discards every event. Used when EVENTS_ENABLED is off.
func Nop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) {}
