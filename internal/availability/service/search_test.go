package service

import (
	"canchas/pkg/cache"
	"canchas/pkg/config"
	"canchas/pkg/conflict"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eightPM = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

type catalog struct {
	venues    []*model.Venue
	courts    map[string][]*model.Court
	listErr   error
	listCalls int
}

func (c *catalog) ListAll(ctx context.Context) ([]*model.Venue, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]*model.Venue, 0, len(c.venues))
	for _, v := range c.venues {
		copied := *v
		out = append(out, &copied)
	}
	return out, nil
}

func (c *catalog) FindByVenue(ctx context.Context, venueID string) ([]*model.Court, error) {
	return c.courts[venueID], nil
}

type calendar struct {
	mu           sync.Mutex
	reservations []*model.Reservation
	parties      []*model.PartyReservation
	courtChecks  []string
}

func (c *calendar) FindOverlapping(ctx context.Context, courtID string, interval conflict.Interval) ([]*model.Reservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courtChecks = append(c.courtChecks, courtID)

	var out []*model.Reservation
	for _, r := range c.reservations {
		if r.CourtID == courtID && r.Active && conflict.Overlaps(r.Interval(), interval) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *calendar) FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error) {
	var out []*model.PartyReservation
	for _, p := range c.parties {
		if p.VenueID == venueID && p.Active && conflict.Overlaps(p.Interval(), interval) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			deleted++
		}
	}
	return deleted, nil
}

// Two venues: "norte" with courts n1 and n2, "sur" with court s1, and an
// empty "centro" without courts.
func newCatalog() *catalog {
	return &catalog{
		venues: []*model.Venue{{ID: "norte"}, {ID: "centro"}, {ID: "sur"}},
		courts: map[string][]*model.Court{
			"norte": {{ID: "n1", VenueID: "norte"}, {ID: "n2", VenueID: "norte"}},
			"sur":   {{ID: "s1", VenueID: "sur"}},
		},
	}
}

func booked(courtID, venueID string, start time.Time, d time.Duration) *model.Reservation {
	return &model.Reservation{ID: "r-" + courtID, CourtID: courtID, VenueID: venueID, Start: start, End: start.Add(d), Active: true}
}

func newService(c *catalog, cal *calendar, searchCache *cache.SearchCache, partyBlocksCourts bool) SearchService {
	cfg := &config.Config{
		Log:                        logger.Discard(),
		DefaultReservationDuration: time.Hour,
		PartyBlocksCourts:          partyBlocksCourts,
	}
	return NewSearchService(c, c, cal, cal, searchCache, cfg)
}

func ids(venues []*model.Venue) []string {
	out := make([]string, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.ID)
	}
	return out
}

func TestSearch_Availability(t *testing.T) {
	tests := []struct {
		name         string
		reservations []*model.Reservation
		want         []string
	}{
		{"all free, empty venue excluded", nil, []string{"norte", "sur"}},
		{
			"one court taken keeps the venue",
			[]*model.Reservation{booked("n1", "norte", eightPM, time.Hour)},
			[]string{"norte", "sur"},
		},
		{
			"every court taken drops the venue",
			[]*model.Reservation{booked("s1", "sur", eightPM.Add(-30*time.Minute), time.Hour)},
			[]string{"norte"},
		},
		{
			"booking ending at the start does not block",
			[]*model.Reservation{booked("s1", "sur", eightPM.Add(-time.Hour), time.Hour)},
			[]string{"norte", "sur"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(newCatalog(), &calendar{reservations: tt.reservations}, nil, false)
			date := eightPM

			venues, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(venues))
		})
	}
}

func TestSearch_ShortCircuitsOnFirstFreeCourt(t *testing.T) {
	cal := &calendar{}
	svc := newService(newCatalog(), cal, nil, false)
	date := eightPM

	_, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)

	assert.NotContains(t, cal.courtChecks, "n2")
	assert.ElementsMatch(t, []string{"n1", "s1"}, cal.courtChecks)
}

func TestSearch_PopulatesCourts(t *testing.T) {
	svc := newService(newCatalog(), &calendar{}, nil, false)
	date := eightPM

	venues, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Len(t, venues[0].Courts, 2)
}

func TestSearch_PartyBlocksCourts(t *testing.T) {
	party := &model.PartyReservation{ID: "p1", VenueID: "sur", Start: eightPM, End: eightPM.Add(3 * time.Hour), Active: true}
	start, end := eightPM.Add(time.Hour), eightPM.Add(2*time.Hour)

	for _, enabled := range []bool{false, true} {
		svc := newService(newCatalog(), &calendar{parties: []*model.PartyReservation{party}}, nil, enabled)

		venues, err := svc.Search(context.Background(), &model.SearchRequest{Start: &start, End: &end})
		require.NoError(t, err)
		if enabled {
			assert.Equal(t, []string{"norte"}, ids(venues))
		} else {
			assert.Equal(t, []string{"norte", "sur"}, ids(venues))
		}
	}
}

func TestSearch_InvalidInterval(t *testing.T) {
	start := eightPM
	before := eightPM.Add(-time.Hour)

	tests := []struct {
		name string
		req  *model.SearchRequest
	}{
		{"nil request", nil},
		{"nothing set", &model.SearchRequest{}},
		{"start without end", &model.SearchRequest{Start: &start}},
		{"end before start", &model.SearchRequest{Start: &start, End: &before}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog()
			_, err := newService(c, &calendar{}, nil, false).Search(context.Background(), tt.req)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInterval), "got %v", err)
			assert.Zero(t, c.listCalls)
		})
	}
}

func TestSearch_UsesCache(t *testing.T) {
	c := newCatalog()
	searchCache := cache.NewSearchCacheWithStore(&memoryStore{data: map[string][]byte{}}, time.Minute, logger.Discard())
	svc := newService(c, &calendar{}, searchCache, false)
	date := eightPM

	first, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), &model.SearchRequest{Date: &date})
	require.NoError(t, err)

	assert.Equal(t, 1, c.listCalls)
	assert.Equal(t, ids(first), ids(second))
}

func TestSearch_StoreFailure(t *testing.T) {
	c := newCatalog()
	c.listErr = errors.New("connection reset")
	date := eightPM

	_, err := newService(c, &calendar{}, nil, false).Search(context.Background(), &model.SearchRequest{Date: &date})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
}
