package validator

import (
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"errors"
	"testing"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func validCourt() *model.Court {
	return &model.Court{
		VenueID:        "65a1b2c3d4e5f60718293a4b",
		Name:           "Cancha 1",
		PlayersPerSide: 5,
		Price:          20000,
	}
}

func TestValidateCourt(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(c *model.Court)
		wantErr   bool
		wantField string
	}{
		{name: "valid court", mutate: func(c *model.Court) {}},
		{
			name: "full price step",
			mutate: func(c *model.Court) {
				c.PriceStepHour = intPtr(18)
				c.PriceStepPrice = floatPtr(26000)
			},
		},
		{
			name:      "step hour without step price",
			mutate:    func(c *model.Court) { c.PriceStepHour = intPtr(18) },
			wantErr:   true,
			wantField: "PriceStepHour",
		},
		{
			name:      "step hour out of range",
			mutate:    func(c *model.Court) { c.PriceStepHour = intPtr(24); c.PriceStepPrice = floatPtr(1) },
			wantErr:   true,
			wantField: "PriceStepHour",
		},
		{
			name:      "missing venue",
			mutate:    func(c *model.Court) { c.VenueID = "" },
			wantErr:   true,
			wantField: "VenueID",
		},
		{
			name:      "negative price",
			mutate:    func(c *model.Court) { c.Price = -1 },
			wantErr:   true,
			wantField: "Price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			court := validCourt()
			tt.mutate(court)

			err := v.ValidateCourt(court)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, verrs[0].Field)
			}
		})
	}
}

func TestValidate_Venue(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	venue := &model.Venue{
		Name:    "Complejo Norte",
		Address: "Av. Siempre Viva 742",
		OwnerID: "owner-1",
		Phone:   "+541143211234",
	}
	if err := v.Validate(venue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	venue.Phone = "11 4321-1234"
	err := v.Validate(venue)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Field != "Phone" {
		t.Fatalf("expected a Phone error, got %v", err)
	}
}
