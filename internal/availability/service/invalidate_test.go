package service

import (
	"canchas/internal/events"
	"canchas/pkg/cache"
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forwardedEvents struct {
	types []string
}

func (f *forwardedEvents) Publish(_ context.Context, event events.Event) {
	f.types = append(f.types, event.Type)
}

func TestInvalidatingPublisher_BookingRefreshesSearch(t *testing.T) {
	c := newCatalog()
	cal := &calendar{}
	searchCache := cache.NewSearchCacheWithStore(&memoryStore{data: map[string][]byte{}}, time.Minute, logger.Discard())
	svc := newService(c, cal, searchCache, false)
	forwarded := &forwardedEvents{}
	publisher := InvalidatingPublisher(forwarded, searchCache)
	date := eightPM

	venues, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)
	assert.Equal(t, []string{"norte", "sur"}, ids(venues))

	// The only court of "sur" gets booked and the write is announced.
	cal.reservations = append(cal.reservations, booked("s1", "sur", eightPM, time.Hour))
	publisher.Publish(context.Background(), events.Event{Type: events.ReservationBooked, Key: "s1"})

	venues, err = svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)
	assert.Equal(t, []string{"norte"}, ids(venues))
	assert.Equal(t, 2, c.listCalls)
	assert.Equal(t, []string{events.ReservationBooked}, forwarded.types)
}

func TestInvalidatingPublisher_WithoutCache(t *testing.T) {
	forwarded := &forwardedEvents{}

	publisher := InvalidatingPublisher(forwarded, nil)
	publisher.Publish(context.Background(), events.Event{Type: events.PartyCancelled})

	assert.Same(t, forwarded, publisher)
	assert.Equal(t, []string{events.PartyCancelled}, forwarded.types)
}
