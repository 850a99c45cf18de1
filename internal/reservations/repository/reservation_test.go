package repository

import (
	"canchas/pkg/conflict"
	"canchas/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOverlapFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	got := overlapFilter(conflict.Interval{Start: start, End: end})

	// Existing bookings overlap when they start before our end and end after our start.
	assert.Equal(t, bson.M{
		"active":     true,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}, got)
}

func TestListFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter model.ReservationFilter
		want   bson.M
	}{
		{"empty", model.ReservationFilter{}, bson.M{}},
		{"court only", model.ReservationFilter{CourtID: "c1"}, bson.M{"court_id": "c1"}},
		{
			"court and day",
			model.ReservationFilter{CourtID: "c1", From: from, To: to},
			bson.M{"court_id": "c1", "start_time": bson.M{"$gte": from, "$lt": to}},
		},
		{"open ended", model.ReservationFilter{From: from}, bson.M{"start_time": bson.M{"$gte": from}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listFilter(tt.filter))
		})
	}
}

func TestStampNew_ClearsID(t *testing.T) {
	now := time.Date(2024, 1, 1, 18, 0, 0, 123456789, time.FixedZone("ART", -3*3600))
	reservation := &model.Reservation{ID: "65a1b2c3d4e5f60718290001"}

	stampNew(reservation, now)

	// A retried insert must not send the previous attempt's hex id as a string _id.
	assert.Empty(t, reservation.ID)
	assert.Equal(t, now.UTC().Truncate(time.Millisecond), reservation.CreatedAt)
	assert.Equal(t, reservation.CreatedAt, reservation.UpdatedAt)
}

func TestInactiveIDsFilter(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	assert.Equal(t, bson.M{
		"_id":    bson.M{"$in": ids},
		"active": false,
	}, inactiveIDsFilter(ids))
}
