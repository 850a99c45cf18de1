package model

import (
	"canchas/pkg/conflict"
	"time"
)

// Reservation is the exclusive use of one court for [Start, End).
// Cancelling flips Active instead of deleting the document.
type Reservation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CourtID   string    `json:"court_id" bson:"court_id" validate:"required,mongodb"`
	VenueID   string    `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	Start     time.Time `json:"start_time" bson:"start_time" validate:"required"`
	End       time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Price     float64   `json:"price" bson:"price" validate:"gte=0"`
	Holder    string    `json:"holder" bson:"holder" validate:"required,min=1,max=100"`
	Active    bool      `json:"active" bson:"active"`
	BookedBy  string    `json:"booked_by,omitempty" bson:"booked_by,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ReservationRequest is the body of a booking request. End and Price are optional.
type ReservationRequest struct {
	CourtID string     `json:"court_id"`
	Start   time.Time  `json:"start_time"`
	End     *time.Time `json:"end_time,omitempty"`
	Price   *float64   `json:"price,omitempty"`
	Holder  string     `json:"holder"`
}

type ReservationFilter struct {
	CourtID string
	// From and To bound start_time as [From, To). Both zero means no bound.
	From   time.Time
	To     time.Time
	Limit  int
	Offset int64
}

func (r *Reservation) Interval() conflict.Interval {
	return conflict.Interval{Start: r.Start, End: r.End}
}

func (r *Reservation) Slot() conflict.Slot {
	return conflict.Slot{ID: r.ID, Interval: r.Interval(), Active: r.Active}
}

func ReservationSlots(reservations []*Reservation) []conflict.Slot {
	slots := make([]conflict.Slot, 0, len(reservations))
	for _, r := range reservations {
		slots = append(slots, r.Slot())
	}
	return slots
}
