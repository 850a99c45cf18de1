package service

import (
	"canchas/internal/events"
	partieserrors "canchas/internal/parties/errors"
	"canchas/internal/parties/repository"
	"canchas/internal/reservations/validator"
	"canchas/internal/slotlock"
	venueserrors "canchas/internal/venues/errors"
	"canchas/pkg/auth"
	"canchas/pkg/config"
	"canchas/pkg/conflict"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/model"
	"canchas/pkg/sanitizer"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type VenueStore interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	PushParty(ctx context.Context, venueID, partyID string) error
	PullParty(ctx context.Context, venueID, partyID string) error
}

// CourtCalendar exposes court bookings across a whole venue. Consulted only
// when parties block courts.
type CourtCalendar interface {
	FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.Reservation, error)
}

type PartyService interface {
	Book(ctx context.Context, actor auth.Actor, req *model.PartyRequest) (*model.PartyReservation, error)
	GetByID(ctx context.Context, id string) (*model.PartyReservation, error)
	ListByVenue(ctx context.Context, venueID string, from, to time.Time) ([]*model.PartyReservation, error)
	Toggle(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error)
	Cancel(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error)
	Rebook(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type partyService struct {
	repo      repository.PartyRepository
	venues    VenueStore
	courts    CourtCalendar
	locker    slotlock.Locker
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewPartyService(
	repo repository.PartyRepository,
	venues VenueStore,
	courts CourtCalendar,
	locker slotlock.Locker,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) PartyService {
	return &partyService{
		repo:      repo,
		venues:    venues,
		courts:    courts,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *partyService) Book(ctx context.Context, actor auth.Actor, req *model.PartyRequest) (*model.PartyReservation, error) {
	interval := conflict.Interval{Start: req.Start, End: req.End}
	if err := interval.Validate(); err != nil {
		return nil, apperrors.InvalidInterval("start_time and end_time are required and end_time must be after start_time")
	}

	if req.VenueID == "" {
		return nil, apperrors.InvalidInput("venue_id is required")
	}
	venue, err := s.venues.FindByID(ctx, req.VenueID)
	if err != nil {
		return nil, s.mapError(err, req.VenueID, "Failed to resolve venue")
	}

	party := &model.PartyReservation{
		VenueID:     venue.ID,
		Holder:      sanitizer.NormalizeName(req.Holder),
		Start:       interval.Start.UTC(),
		End:         interval.End.UTC(),
		GuestCount:  req.GuestCount,
		Services:    sanitizer.NormalizeList(req.Services),
		Decorations: sanitizer.NormalizeList(req.Decorations),
		Active:      true,
		BookedBy:    actor.ID,
	}
	if req.Price != nil {
		party.Price = *req.Price
	}
	if err := s.validator.ValidateParty(party); err != nil {
		s.cfg.Log.Warn("Party reservation validation failed",
			"venue_id", party.VenueID,
			"error", err,
		)
		return nil, apperrors.Validation("Party reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if s.cfg.StrictConsistency() {
		err = s.bookStrict(ctx, party)
	} else {
		err = s.bookRelaxed(ctx, party)
	}
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
			s.cfg.Log.Error("Failed to book party reservation",
				"venue_id", party.VenueID,
				"start_time", party.Start,
				"error", err,
			)
		}
		return nil, s.mapError(err, req.VenueID, "Failed to book party reservation")
	}

	s.cfg.Log.Info("Party reservation booked successfully",
		"id", party.ID,
		"venue_id", party.VenueID,
		"start_time", party.Start,
		"end_time", party.End,
		"guest_count", party.GuestCount,
	)
	s.publish(ctx, events.PartyBooked, party)
	return party, nil
}

func (s *partyService) bookRelaxed(ctx context.Context, party *model.PartyReservation) error {
	if err := s.checkConflicts(ctx, party, ""); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, party); err != nil {
		return err
	}

	if err := s.venues.PushParty(ctx, party.VenueID, party.ID); err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), party.ID); delErr != nil {
			s.cfg.Log.Error("Failed to roll back party reservation after venue update failure",
				"id", party.ID,
				"venue_id", party.VenueID,
				"error", delErr,
			)
		}
		return err
	}
	return nil
}

func (s *partyService) bookStrict(ctx context.Context, party *model.PartyReservation) error {
	release, err := s.locker.Acquire(ctx, slotlock.VenueKey(party.VenueID))
	if err != nil {
		return err
	}
	defer release()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		party.ID = ""
		if err := s.checkConflicts(sessCtx, party, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, party); err != nil {
			return err
		}
		return s.venues.PushParty(sessCtx, party.VenueID, party.ID)
	})
}

// checkConflicts runs the detector against active parties on the venue and,
// when parties block courts, every active court reservation of the venue.
func (s *partyService) checkConflicts(ctx context.Context, party *model.PartyReservation, excludeID string) error {
	interval := party.Interval()

	existing, err := s.repo.FindOverlappingByVenue(ctx, party.VenueID, interval)
	if err != nil {
		return err
	}
	slots := model.PartySlots(existing)

	if s.cfg.PartyBlocksCourts && s.courts != nil {
		reservations, err := s.courts.FindOverlappingByVenue(ctx, party.VenueID, interval)
		if err != nil {
			return err
		}
		slots = append(slots, model.ReservationSlots(reservations)...)
	}

	if excludeID != "" {
		slots = conflict.Exclude(slots, excludeID)
	}

	result, err := conflict.Check(interval, slots)
	if err != nil {
		return apperrors.InvalidInterval("end_time must be after start_time")
	}
	if !result.Free {
		return apperrors.SlotUnavailable("The venue is already booked for that time", result.Conflicts)
	}
	return nil
}

func (s *partyService) GetByID(ctx context.Context, id string) (*model.PartyReservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Party reservation ID cannot be empty")
	}

	party, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve party reservation")
	}
	return party, nil
}

func (s *partyService) ListByVenue(ctx context.Context, venueID string, from, to time.Time) ([]*model.PartyReservation, error) {
	if venueID == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	parties, err := s.repo.ListByVenue(ctx, venueID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to list party reservations", "venue_id", venueID, "error", err)
		return nil, s.mapError(err, venueID, "Failed to retrieve party reservations")
	}
	return parties, nil
}

func (s *partyService) Toggle(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error) {
	party, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if party.Active {
		return s.cancel(ctx, party)
	}
	return s.rebook(ctx, party)
}

func (s *partyService) Cancel(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error) {
	party, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, party)
}

func (s *partyService) Rebook(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error) {
	party, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.rebook(ctx, party)
}

func (s *partyService) cancel(ctx context.Context, party *model.PartyReservation) (*model.PartyReservation, error) {
	if !party.Active {
		return party, nil
	}

	if err := s.repo.SetActive(ctx, party.ID, false); err != nil {
		s.cfg.Log.Error("Failed to cancel party reservation", "id", party.ID, "error", err)
		return nil, s.mapError(err, party.ID, "Failed to cancel party reservation")
	}
	party.Active = false

	s.cfg.Log.Info("Party reservation cancelled successfully",
		"id", party.ID,
		"venue_id", party.VenueID,
	)
	s.publish(ctx, events.PartyCancelled, party)
	return party, nil
}

func (s *partyService) rebook(ctx context.Context, party *model.PartyReservation) (*model.PartyReservation, error) {
	if party.Active {
		return party, nil
	}

	activate := func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, party, party.ID); err != nil {
			return err
		}
		return s.repo.SetActive(ctx, party.ID, true)
	}

	var err error
	if s.cfg.StrictConsistency() {
		var release func()
		release, err = s.locker.Acquire(ctx, slotlock.VenueKey(party.VenueID))
		if err == nil {
			err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
				return activate(sessCtx)
			})
			release()
		}
	} else {
		err = activate(ctx)
	}
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
			s.cfg.Log.Error("Failed to rebook party reservation", "id", party.ID, "error", err)
		}
		return nil, s.mapError(err, party.ID, "Failed to rebook party reservation")
	}
	party.Active = true

	s.cfg.Log.Info("Party reservation rebooked successfully",
		"id", party.ID,
		"venue_id", party.VenueID,
	)
	s.publish(ctx, events.PartyRebooked, party)
	return party, nil
}

func (s *partyService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if !actor.IsSuperuser() {
		return apperrors.Forbidden("Only superusers can delete party reservations")
	}

	party, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return err
		}
		err := s.venues.PullParty(sessCtx, party.VenueID, id)
		if errors.Is(err, venueserrors.ErrVenueNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete party reservation", "id", id, "error", err)
		return s.mapError(err, id, "Failed to delete party reservation")
	}

	s.cfg.Log.Info("Party reservation deleted successfully",
		"id", id,
		"venue_id", party.VenueID,
	)
	s.publish(ctx, events.PartyDeleted, party)
	return nil
}

// authorized allows the booker, the venue owner and superusers.
func (s *partyService) authorized(ctx context.Context, actor auth.Actor, id string) (*model.PartyReservation, error) {
	party, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsSuperuser() || (actor.ID != "" && actor.ID == party.BookedBy) {
		return party, nil
	}

	venue, err := s.venues.FindByID(ctx, party.VenueID)
	if err != nil && !errors.Is(err, venueserrors.ErrVenueNotFound) {
		return nil, apperrors.Internal("Failed to check venue ownership", err)
	}
	if venue != nil && actor.CanManage(venue.OwnerID) {
		return party, nil
	}
	return nil, apperrors.Forbidden("You cannot modify this party reservation")
}

func (s *partyService) publish(ctx context.Context, eventType string, party *model.PartyReservation) {
	s.publisher.Publish(ctx, events.Event{
		Type:    eventType,
		Key:     party.VenueID,
		Payload: party,
	})
}

func (s *partyService) mapError(err error, id, internalMsg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, partieserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Party reservation", id)
	case errors.Is(err, venueserrors.ErrVenueNotFound):
		return apperrors.NotFoundWithID("Venue", id)
	case errors.Is(err, partieserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid party reservation ID format")
	case errors.Is(err, venueserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid venue ID format")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("The booking store did not answer in time")
	}
	return apperrors.Internal(internalMsg, err)
}
