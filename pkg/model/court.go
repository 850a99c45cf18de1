package model

import "time"

// Court is a single bookable field inside a venue.
type Court struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VenueID        string    `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	Name           string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	PlayersPerSide int       `json:"players_per_side" bson:"players_per_side" validate:"required,min=1,max=11"`
	Outdoor        bool      `json:"outdoor" bson:"outdoor"`
	Surface        string    `json:"surface,omitempty" bson:"surface,omitempty" validate:"omitempty,max=50"`
	Price          float64   `json:"price" bson:"price" validate:"gte=0"`
	PriceStepHour  *int      `json:"price_step_hour,omitempty" bson:"price_step_hour,omitempty" validate:"omitempty,min=0,max=23"`
	PriceStepPrice *float64  `json:"price_step_price,omitempty" bson:"price_step_price,omitempty" validate:"omitempty,gte=0"`
	ImageURL       string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	ReservationIDs []string  `json:"reservation_ids" bson:"reservation_ids"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

type CourtUpdate struct {
	Name           string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PlayersPerSide *int     `json:"players_per_side,omitempty" validate:"omitempty,min=1,max=11"`
	Outdoor        *bool    `json:"outdoor,omitempty"`
	Surface        *string  `json:"surface,omitempty" validate:"omitempty,max=50"`
	Price          *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	PriceStepHour  *int     `json:"price_step_hour,omitempty" validate:"omitempty,min=0,max=23"`
	PriceStepPrice *float64 `json:"price_step_price,omitempty" validate:"omitempty,gte=0"`
	ImageURL       *string  `json:"image_url,omitempty"`
}

// PriceAt returns the price for a booking starting at start. From the step
// hour onwards (in loc) the step price applies.
func (c *Court) PriceAt(start time.Time, loc *time.Location) float64 {
	if c.PriceStepHour == nil || c.PriceStepPrice == nil {
		return c.Price
	}
	if loc == nil {
		loc = time.UTC
	}
	if start.In(loc).Hour() >= *c.PriceStepHour {
		return *c.PriceStepPrice
	}
	return c.Price
}
