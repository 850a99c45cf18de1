package service

import (
	"canchas/internal/events"
	partieserrors "canchas/internal/parties/errors"
	"canchas/internal/reservations/validator"
	venueserrors "canchas/internal/venues/errors"
	"canchas/pkg/auth"
	"canchas/pkg/config"
	"canchas/pkg/conflict"
	mongotx "canchas/pkg/db/mongo"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

const venueID = "65a1b2c3d4e5f60718293a4b"

var (
	host      = auth.Actor{ID: "parent-1", Role: auth.RoleUser}
	owner     = auth.Actor{ID: "owner-1", Role: auth.RoleClient}
	superuser = auth.Actor{ID: "root", Role: auth.RoleSuperuser}

	saturday = time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
)

type memoryPartyRepository struct {
	items       map[string]*model.PartyReservation
	nextID      int
	deleted     []string
	txCalls     int
	txAttempts  int
	incomingIDs []string
}

func newMemoryPartyRepository(existing ...*model.PartyReservation) *memoryPartyRepository {
	m := &memoryPartyRepository{items: make(map[string]*model.PartyReservation)}
	for _, p := range existing {
		m.items[p.ID] = p
	}
	return m
}

func (m *memoryPartyRepository) Create(ctx context.Context, party *model.PartyReservation) error {
	m.incomingIDs = append(m.incomingIDs, party.ID)
	m.nextID++
	party.ID = fmt.Sprintf("65a1b2c3d4e5f607182911%02d", m.nextID)
	copied := *party
	m.items[party.ID] = &copied
	return nil
}

func (m *memoryPartyRepository) FindByID(ctx context.Context, id string) (*model.PartyReservation, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
	}
	copied := *p
	return &copied, nil
}

func (m *memoryPartyRepository) ListByVenue(ctx context.Context, venueID string, from, to time.Time) ([]*model.PartyReservation, error) {
	var out []*model.PartyReservation
	for _, p := range m.items {
		if p.VenueID == venueID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPartyRepository) FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error) {
	var out []*model.PartyReservation
	for _, p := range m.items {
		if p.VenueID == venueID && p.Active && conflict.Overlaps(p.Interval(), interval) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryPartyRepository) SetActive(ctx context.Context, id string, active bool) error {
	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
	}
	p.Active = active
	return nil
}

func (m *memoryPartyRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryPartyRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	return 0, nil
}

func (m *memoryPartyRepository) FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.PartyReservation, error) {
	return nil, nil
}

func (m *memoryPartyRepository) DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error) {
	return 0, nil
}

// ExecuteTransaction reruns fn txAttempts-1 times with rollback first, like
// the driver retrying a transient transaction error.
func (m *memoryPartyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txCalls++
	sessCtx := mongo.NewSessionContext(ctx, nil)
	for attempt := 1; attempt < m.txAttempts; attempt++ {
		snapshot := make(map[string]*model.PartyReservation, len(m.items))
		for id, p := range m.items {
			snapshot[id] = p
		}
		_ = fn(sessCtx)
		m.items = snapshot
	}
	return fn(sessCtx)
}

type mockVenueStore struct {
	venue   *model.Venue
	pushErr error
	pushed  []string
	pulled  []string
}

func (m *mockVenueStore) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	if m.venue == nil || m.venue.ID != id {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrVenueNotFound, id)
	}
	return m.venue, nil
}

func (m *mockVenueStore) PushParty(ctx context.Context, venueID, partyID string) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.pushed = append(m.pushed, partyID)
	return nil
}

func (m *mockVenueStore) PullParty(ctx context.Context, venueID, partyID string) error {
	m.pulled = append(m.pulled, partyID)
	return nil
}

type mockCourtCalendar struct {
	reservations []*model.Reservation
	calls        int
}

func (m *mockCourtCalendar) FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.Reservation, error) {
	m.calls++
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.VenueID == venueID && r.Active && conflict.Overlaps(r.Interval(), interval) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockLocker struct {
	keys []string
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	m.keys = append(m.keys, key)
	return func() {}, nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.types = append(p.types, event.Type)
}

type fixture struct {
	repo      *memoryPartyRepository
	venues    *mockVenueStore
	courts    *mockCourtCalendar
	locker    *mockLocker
	publisher *recordingPublisher
	cfg       *config.Config
}

func newFixture(existing ...*model.PartyReservation) *fixture {
	return &fixture{
		repo:      newMemoryPartyRepository(existing...),
		venues:    &mockVenueStore{venue: &model.Venue{ID: venueID, OwnerID: owner.ID}},
		courts:    &mockCourtCalendar{},
		locker:    &mockLocker{},
		publisher: &recordingPublisher{},
		cfg: &config.Config{
			Log:                        logger.Discard(),
			DefaultReservationDuration: time.Hour,
			ReservationConsistency:     config.ConsistencyRelaxed,
			TimeZone:                   "UTC",
		},
	}
}

func (f *fixture) service() PartyService {
	return NewPartyService(f.repo, f.venues, f.courts, f.locker,
		validator.NewReservationValidator(f.cfg.Log), f.publisher, f.cfg)
}

func partyRequest(start time.Time, d time.Duration) *model.PartyRequest {
	return &model.PartyRequest{
		VenueID:     venueID,
		Holder:      "  Cumple de Tomi ",
		Start:       start,
		End:         start.Add(d),
		GuestCount:  25,
		Services:    []string{"Catering", "catering ", "Catering"},
		Decorations: []string{"Globos"},
	}
}

func existingParty(id string, start time.Time, d time.Duration, active bool) *model.PartyReservation {
	return &model.PartyReservation{
		ID:         id,
		VenueID:    venueID,
		Holder:     "Cumple",
		Start:      start,
		End:        start.Add(d),
		GuestCount: 10,
		Active:     active,
		BookedBy:   host.ID,
	}
}

func TestBook_Success(t *testing.T) {
	f := newFixture()

	party, err := f.service().Book(context.Background(), host, partyRequest(saturday, 3*time.Hour))
	require.NoError(t, err)

	assert.True(t, party.Active)
	assert.Equal(t, host.ID, party.BookedBy)
	assert.Equal(t, "Cumple de Tomi", party.Holder)
	assert.Equal(t, []string{"Catering", "catering"}, party.Services)
	assert.Equal(t, []string{party.ID}, f.venues.pushed)
	assert.Equal(t, []string{events.PartyBooked}, f.publisher.types)
}

func TestBook_RequiresEnd(t *testing.T) {
	f := newFixture()
	req := partyRequest(saturday, 0)
	req.End = time.Time{}

	_, err := f.service().Book(context.Background(), host, req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInterval), "got %v", err)
}

func TestBook_UnknownVenue(t *testing.T) {
	f := newFixture()
	req := partyRequest(saturday, time.Hour)
	req.VenueID = "65a1b2c3d4e5f60718293fff"

	_, err := f.service().Book(context.Background(), host, req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
}

func TestBook_ValidationFailure(t *testing.T) {
	f := newFixture()
	req := partyRequest(saturday, time.Hour)
	req.GuestCount = 0

	_, err := f.service().Book(context.Background(), host, req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
	assert.Empty(t, f.repo.items)
}

func TestBook_OverlappingParty(t *testing.T) {
	f := newFixture(existingParty("p1", saturday, 3*time.Hour, true))

	_, err := f.service().Book(context.Background(), host, partyRequest(saturday.Add(2*time.Hour), 2*time.Hour))
	require.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "got %v", err)
	assert.Equal(t, []string{"p1"}, apperrors.AsAppError(err).Details[apperrors.DetailConflictingIDs])

	_, err = f.service().Book(context.Background(), host, partyRequest(saturday.Add(3*time.Hour), 2*time.Hour))
	assert.NoError(t, err, "a party starting when another ends is free")
}

func TestBook_PartyBlocksCourts(t *testing.T) {
	reservation := &model.Reservation{
		ID:      "r1",
		VenueID: venueID,
		CourtID: "65a1b2c3d4e5f60718293a4c",
		Start:   saturday.Add(time.Hour),
		End:     saturday.Add(2 * time.Hour),
		Active:  true,
	}

	tests := []struct {
		name      string
		enabled   bool
		wantErr   bool
		wantCalls int
	}{
		{"disabled books over court reservations", false, false, 0},
		{"enabled rejects court overlap", true, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.cfg.PartyBlocksCourts = tt.enabled
			f.courts.reservations = []*model.Reservation{reservation}

			_, err := f.service().Book(context.Background(), host, partyRequest(saturday, 3*time.Hour))
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, f.courts.calls)
		})
	}
}

func TestBook_RelaxedCompensatesFailedVenuePush(t *testing.T) {
	f := newFixture()
	f.venues.pushErr = errors.New("venue write failed")

	_, err := f.service().Book(context.Background(), host, partyRequest(saturday, time.Hour))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
	assert.Len(t, f.repo.deleted, 1)
	assert.Empty(t, f.repo.items)
}

func TestBook_StrictLocksVenue(t *testing.T) {
	f := newFixture()
	f.cfg.ReservationConsistency = config.ConsistencyStrict

	_, err := f.service().Book(context.Background(), host, partyRequest(saturday, time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"venue:" + venueID}, f.locker.keys)
	assert.Equal(t, 1, f.repo.txCalls)
}

func TestBook_StrictRetriedTransactionInsertsFresh(t *testing.T) {
	f := newFixture()
	f.cfg.ReservationConsistency = config.ConsistencyStrict
	f.repo.txAttempts = 2

	party, err := f.service().Book(context.Background(), host, partyRequest(saturday, time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"", ""}, f.repo.incomingIDs)
	require.NotEmpty(t, party.ID)
	assert.Len(t, f.repo.items, 1)
	assert.Contains(t, f.repo.items, party.ID)
}

func TestToggle_RebookExcludesSelf(t *testing.T) {
	id := "65a1b2c3d4e5f60718291101"
	f := newFixture(existingParty(id, saturday, 3*time.Hour, true))
	svc := f.service()

	party, err := svc.Toggle(context.Background(), host, id)
	require.NoError(t, err)
	assert.False(t, party.Active)

	party, err = svc.Toggle(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, party.Active)

	assert.Equal(t, []string{events.PartyCancelled, events.PartyRebooked}, f.publisher.types)
}

func TestCancel_Idempotent(t *testing.T) {
	id := "65a1b2c3d4e5f60718291101"
	f := newFixture(existingParty(id, saturday, time.Hour, false))

	party, err := f.service().Cancel(context.Background(), host, id)
	require.NoError(t, err)
	assert.False(t, party.Active)
	assert.Empty(t, f.publisher.types)
}

func TestCancel_Stranger(t *testing.T) {
	id := "65a1b2c3d4e5f60718291101"
	f := newFixture(existingParty(id, saturday, time.Hour, true))

	_, err := f.service().Cancel(context.Background(), auth.Actor{ID: "someone", Role: auth.RoleUser}, id)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "got %v", err)
}

func TestDelete(t *testing.T) {
	id := "65a1b2c3d4e5f60718291101"
	f := newFixture(existingParty(id, saturday, time.Hour, true))
	svc := f.service()

	err := svc.Delete(context.Background(), owner, id)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "got %v", err)

	require.NoError(t, svc.Delete(context.Background(), superuser, id))
	assert.Equal(t, []string{id}, f.venues.pulled)
	assert.Equal(t, 1, f.repo.txCalls)
	assert.Equal(t, []string{events.PartyDeleted}, f.publisher.types)
}

func TestListByVenue(t *testing.T) {
	f := newFixture(existingParty("p1", saturday, time.Hour, true))

	parties, err := f.service().ListByVenue(context.Background(), venueID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, parties, 1)

	_, err = f.service().ListByVenue(context.Background(), "", time.Time{}, time.Time{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
