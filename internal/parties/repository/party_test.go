package repository

import (
	"canchas/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVenueFilter(t *testing.T) {
	from := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	assert.Equal(t, bson.M{"venue_id": "v1"}, venueFilter("v1", time.Time{}, time.Time{}))
	assert.Equal(t,
		bson.M{"venue_id": "v1", "start_time": bson.M{"$gte": from, "$lt": to}},
		venueFilter("v1", from, to),
	)
}

func TestStampNew_ClearsID(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	party := &model.PartyReservation{ID: "65a1b2c3d4e5f60718291101"}

	stampNew(party, now)

	assert.Empty(t, party.ID)
	assert.Equal(t, now, party.CreatedAt)
	assert.Equal(t, now, party.UpdatedAt)
}

func TestInactiveIDsFilter(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID()}

	assert.Equal(t, bson.M{"_id": bson.M{"$in": ids}, "active": false}, inactiveIDsFilter(ids))
}
