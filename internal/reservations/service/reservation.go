package service

import (
	"canchas/internal/events"
	reservationserrors "canchas/internal/reservations/errors"
	"canchas/internal/reservations/repository"
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
	"golang.org/x/sync/errgroup"
)

// CourtStore is the part of the catalog a booking touches.
type CourtStore interface {
	FindByID(ctx context.Context, id string) (*model.Court, error)
	PushReservation(ctx context.Context, courtID, reservationID string) error
	PullReservation(ctx context.Context, courtID, reservationID string) error
}

type VenueStore interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

// PartyCalendar exposes venue wide bookings, consulted only when parties
// block courts.
type PartyCalendar interface {
	FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error)
}

type ReservationService interface {
	Book(ctx context.Context, actor auth.Actor, req *model.ReservationRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, int64, error)
	Toggle(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error)
	Cancel(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error)
	Rebook(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	courts    CourtStore
	venues    VenueStore
	parties   PartyCalendar
	locker    slotlock.Locker
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	courts CourtStore,
	venues VenueStore,
	parties PartyCalendar,
	locker slotlock.Locker,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		courts:    courts,
		venues:    venues,
		parties:   parties,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *reservationService) Book(ctx context.Context, actor auth.Actor, req *model.ReservationRequest) (*model.Reservation, error) {
	var end time.Time
	if req.End != nil {
		end = *req.End
	}
	interval, err := conflict.NewInterval(req.Start, end, s.cfg.DefaultReservationDuration)
	if err != nil {
		return nil, apperrors.InvalidInterval("start_time is required and end_time must be after start_time")
	}

	if req.CourtID == "" {
		return nil, apperrors.InvalidInput("court_id is required")
	}
	court, err := s.courts.FindByID(ctx, req.CourtID)
	if err != nil {
		return nil, s.mapError(err, req.CourtID, "Failed to resolve court")
	}

	price := court.PriceAt(interval.Start, s.cfg.Location())
	if req.Price != nil {
		price = *req.Price
	}

	reservation := &model.Reservation{
		CourtID:  court.ID,
		VenueID:  court.VenueID,
		Start:    interval.Start.UTC(),
		End:      interval.End.UTC(),
		Price:    price,
		Holder:   sanitizer.NormalizeName(req.Holder),
		Active:   true,
		BookedBy: actor.ID,
	}
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"court_id", reservation.CourtID,
			"error", err,
		)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if s.cfg.StrictConsistency() {
		err = s.bookStrict(ctx, reservation)
	} else {
		err = s.bookRelaxed(ctx, reservation)
	}
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
			s.cfg.Log.Error("Failed to book reservation",
				"court_id", reservation.CourtID,
				"start_time", reservation.Start,
				"error", err,
			)
		}
		return nil, s.mapError(err, req.CourtID, "Failed to book reservation")
	}

	s.cfg.Log.Info("Reservation booked successfully",
		"id", reservation.ID,
		"court_id", reservation.CourtID,
		"start_time", reservation.Start,
		"end_time", reservation.End,
		"price", reservation.Price,
	)
	s.publish(ctx, events.ReservationBooked, reservation)
	return reservation, nil
}

// bookRelaxed checks then writes without isolation. If the court push fails
// the new reservation is deleted again so no orphan remains.
func (s *reservationService) bookRelaxed(ctx context.Context, reservation *model.Reservation) error {
	if err := s.checkConflicts(ctx, reservation, ""); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return err
	}

	if err := s.courts.PushReservation(ctx, reservation.CourtID, reservation.ID); err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), reservation.ID); delErr != nil {
			s.cfg.Log.Error("Failed to roll back reservation after court update failure",
				"id", reservation.ID,
				"court_id", reservation.CourtID,
				"error", delErr,
			)
		}
		return err
	}
	return nil
}

func (s *reservationService) bookStrict(ctx context.Context, reservation *model.Reservation) error {
	release, err := s.locker.Acquire(ctx, s.lockKey(reservation))
	if err != nil {
		return err
	}
	defer release()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The callback reruns on transient errors; a retry must insert afresh.
		reservation.ID = ""
		if err := s.checkConflicts(sessCtx, reservation, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return err
		}
		return s.courts.PushReservation(sessCtx, reservation.CourtID, reservation.ID)
	})
}

// checkConflicts runs the detector against active reservations on the court
// and, when parties block courts, active parties on the venue.
func (s *reservationService) checkConflicts(ctx context.Context, reservation *model.Reservation, excludeID string) error {
	interval := reservation.Interval()

	existing, err := s.repo.FindOverlapping(ctx, reservation.CourtID, interval)
	if err != nil {
		return err
	}
	slots := model.ReservationSlots(existing)

	if s.cfg.PartyBlocksCourts && s.parties != nil {
		parties, err := s.parties.FindOverlappingByVenue(ctx, reservation.VenueID, interval)
		if err != nil {
			return err
		}
		slots = append(slots, model.PartySlots(parties)...)
	}

	if excludeID != "" {
		slots = conflict.Exclude(slots, excludeID)
	}

	result, err := conflict.Check(interval, slots)
	if err != nil {
		return apperrors.InvalidInterval("end_time must be after start_time")
	}
	if !result.Free {
		return apperrors.SlotUnavailable("The requested slot is already booked", result.Conflicts)
	}
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve reservation")
	}
	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)

	var count int64
	var reservations []*model.Reservation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count reservations", "court_id", filter.CourtID, "error", err)
			return apperrors.Internal("Failed to count reservations", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reservations, err = s.repo.Find(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to list reservations",
				"court_id", filter.CourtID,
				"limit", filter.Limit,
				"offset", filter.Offset,
				"error", err,
			)
			return apperrors.Internal("Failed to retrieve reservations", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return reservations, count, nil
}

func (s *reservationService) Toggle(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if reservation.Active {
		return s.cancel(ctx, reservation)
	}
	return s.rebook(ctx, reservation)
}

func (s *reservationService) Cancel(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, reservation)
}

func (s *reservationService) Rebook(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.rebook(ctx, reservation)
}

func (s *reservationService) cancel(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	if !reservation.Active {
		return reservation, nil
	}

	if err := s.repo.SetActive(ctx, reservation.ID, false); err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", reservation.ID, "error", err)
		return nil, s.mapError(err, reservation.ID, "Failed to cancel reservation")
	}
	reservation.Active = false

	s.cfg.Log.Info("Reservation cancelled successfully",
		"id", reservation.ID,
		"court_id", reservation.CourtID,
	)
	s.publish(ctx, events.ReservationCancelled, reservation)
	return reservation, nil
}

// rebook re-activates a cancelled reservation. The slot may have been taken
// meanwhile, so the detector runs again with the reservation itself excluded.
func (s *reservationService) rebook(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	if reservation.Active {
		return reservation, nil
	}

	activate := func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, reservation, reservation.ID); err != nil {
			return err
		}
		return s.repo.SetActive(ctx, reservation.ID, true)
	}

	var err error
	if s.cfg.StrictConsistency() {
		var release func()
		release, err = s.locker.Acquire(ctx, s.lockKey(reservation))
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
			s.cfg.Log.Error("Failed to rebook reservation", "id", reservation.ID, "error", err)
		}
		return nil, s.mapError(err, reservation.ID, "Failed to rebook reservation")
	}
	reservation.Active = true

	s.cfg.Log.Info("Reservation rebooked successfully",
		"id", reservation.ID,
		"court_id", reservation.CourtID,
	)
	s.publish(ctx, events.ReservationRebooked, reservation)
	return reservation, nil
}

// Delete hard-deletes a reservation. Cancelling is the normal path; this is
// reserved for superusers.
func (s *reservationService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if !actor.IsSuperuser() {
		return apperrors.Forbidden("Only superusers can delete reservations")
	}

	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return err
		}
		err := s.courts.PullReservation(sessCtx, reservation.CourtID, id)
		if errors.Is(err, venueserrors.ErrCourtNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete reservation", "id", id, "error", err)
		return s.mapError(err, id, "Failed to delete reservation")
	}

	s.cfg.Log.Info("Reservation deleted successfully",
		"id", id,
		"court_id", reservation.CourtID,
	)
	s.publish(ctx, events.ReservationDeleted, reservation)
	return nil
}

// authorized loads the reservation and checks that the actor booked it,
// manages its venue or is a superuser.
func (s *reservationService) authorized(ctx context.Context, actor auth.Actor, id string) (*model.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsSuperuser() || (actor.ID != "" && actor.ID == reservation.BookedBy) {
		return reservation, nil
	}

	venue, err := s.venues.FindByID(ctx, reservation.VenueID)
	if err != nil && !errors.Is(err, venueserrors.ErrVenueNotFound) {
		return nil, apperrors.Internal("Failed to check venue ownership", err)
	}
	if venue != nil && actor.CanManage(venue.OwnerID) {
		return reservation, nil
	}
	return nil, apperrors.Forbidden("You cannot modify this reservation")
}

func (s *reservationService) lockKey(reservation *model.Reservation) string {
	if s.cfg.PartyBlocksCourts {
		return slotlock.VenueKey(reservation.VenueID)
	}
	return slotlock.CourtKey(reservation.CourtID)
}

func (s *reservationService) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	s.publisher.Publish(ctx, events.Event{
		Type:    eventType,
		Key:     reservation.CourtID,
		Payload: reservation,
	})
}

func (s *reservationService) mapError(err error, id, internalMsg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, venueserrors.ErrCourtNotFound):
		return apperrors.NotFoundWithID("Court", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	case errors.Is(err, venueserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid court ID format")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("The booking store did not answer in time")
	}
	return apperrors.Internal(internalMsg, err)
}
