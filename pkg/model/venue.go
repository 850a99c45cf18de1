package model

import "time"

// Venue is a sports complex that owns one or more courts.
type Venue struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address     string    `json:"address" bson:"address" validate:"required,min=3,max=200"`
	Phone       string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	WhatsApp    string    `json:"whatsapp,omitempty" bson:"whatsapp,omitempty" validate:"omitempty,e164"`
	Instagram   string    `json:"instagram,omitempty" bson:"instagram,omitempty" validate:"omitempty,max=100"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	Amenities   []string  `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,max=30,dive,min=1,max=50"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	OwnerID     string    `json:"owner_id" bson:"owner_id" validate:"required,max=64"`
	CourtIDs    []string  `json:"court_ids" bson:"court_ids"`
	PartyIDs    []string  `json:"party_ids" bson:"party_ids"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`

	// Courts is populated on reads and never persisted.
	Courts []*Court `json:"courts,omitempty" bson:"-"`
}

type VenueUpdate struct {
	Name        string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address     string    `json:"address,omitempty" validate:"omitempty,min=3,max=200"`
	Phone       *string   `json:"phone,omitempty"`
	WhatsApp    *string   `json:"whatsapp,omitempty"`
	Instagram   *string   `json:"instagram,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Amenities   *[]string `json:"amenities,omitempty"`
	Description *string   `json:"description,omitempty"`
}

// HasCourt reports whether courtID is listed on the venue.
func (v *Venue) HasCourt(courtID string) bool {
	for _, id := range v.CourtIDs {
		if id == courtID {
			return true
		}
	}
	return false
}
