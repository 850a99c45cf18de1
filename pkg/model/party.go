package model

import (
	"canchas/pkg/conflict"
	"time"
)

// PartyReservation books a whole venue for an event such as a birthday party.
type PartyReservation struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VenueID     string    `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	Holder      string    `json:"holder" bson:"holder" validate:"required,min=1,max=100"`
	Start       time.Time `json:"start_time" bson:"start_time" validate:"required"`
	End         time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Price       float64   `json:"price" bson:"price" validate:"gte=0"`
	GuestCount  int       `json:"guest_count" bson:"guest_count" validate:"required,min=1,max=1000"`
	Services    []string  `json:"services,omitempty" bson:"services,omitempty" validate:"omitempty,max=20,dive,min=1,max=60"`
	Decorations []string  `json:"decorations,omitempty" bson:"decorations,omitempty" validate:"omitempty,max=20,dive,min=1,max=60"`
	Active      bool      `json:"active" bson:"active"`
	BookedBy    string    `json:"booked_by,omitempty" bson:"booked_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// PartyRequest is the body of a party booking. Unlike a court reservation the
// end is required.
type PartyRequest struct {
	VenueID     string    `json:"venue_id"`
	Holder      string    `json:"holder"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Price       *float64  `json:"price,omitempty"`
	GuestCount  int       `json:"guest_count"`
	Services    []string  `json:"services,omitempty"`
	Decorations []string  `json:"decorations,omitempty"`
}

func (p *PartyReservation) Interval() conflict.Interval {
	return conflict.Interval{Start: p.Start, End: p.End}
}

func (p *PartyReservation) Slot() conflict.Slot {
	return conflict.Slot{ID: p.ID, Interval: p.Interval(), Active: p.Active}
}

func PartySlots(parties []*PartyReservation) []conflict.Slot {
	slots := make([]conflict.Slot, 0, len(parties))
	for _, p := range parties {
		slots = append(slots, p.Slot())
	}
	return slots
}
