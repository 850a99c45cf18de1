package service

import (
	"canchas/internal/events"
	venueserrors "canchas/internal/venues/errors"
	"canchas/internal/venues/repository"
	"canchas/internal/venues/validator"
	"canchas/pkg/auth"
	"canchas/pkg/config"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/model"
	"canchas/pkg/sanitizer"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// ReservationPurger removes the reservations of courts being deleted.
type ReservationPurger interface {
	DeleteByCourts(ctx context.Context, courtIDs []string) (int64, error)
}

// PartyPurger removes the party reservations of a venue being deleted.
type PartyPurger interface {
	DeleteByVenue(ctx context.Context, venueID string) (int64, error)
}

type VenueService interface {
	Create(ctx context.Context, actor auth.Actor, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error)
	Update(ctx context.Context, actor auth.Actor, id string, updates *model.VenueUpdate) (*model.Venue, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	DeleteByOwner(ctx context.Context, actor auth.Actor, ownerID string) (int, error)

	CreateCourt(ctx context.Context, actor auth.Actor, court *model.Court) error
	GetCourt(ctx context.Context, id string) (*model.Court, error)
	ListCourts(ctx context.Context, venueID string) ([]*model.Court, error)
	UpdateCourt(ctx context.Context, actor auth.Actor, id string, updates *model.CourtUpdate) (*model.Court, error)
	DeleteCourt(ctx context.Context, actor auth.Actor, id string) error
}

type venueService struct {
	venues       repository.VenueRepository
	courts       repository.CourtRepository
	reservations ReservationPurger
	parties      PartyPurger
	validator    *validator.VenueValidator
	publisher    events.Publisher
	cfg          *config.Config
}

func NewVenueService(
	venues repository.VenueRepository,
	courts repository.CourtRepository,
	reservations ReservationPurger,
	parties PartyPurger,
	validator *validator.VenueValidator,
	publisher events.Publisher,
	cfg *config.Config,
) VenueService {
	return &venueService{
		venues:       venues,
		courts:       courts,
		reservations: reservations,
		parties:      parties,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
	}
}

func (s *venueService) Create(ctx context.Context, actor auth.Actor, venue *model.Venue) error {
	if actor.Role != auth.RoleClient && !actor.IsSuperuser() {
		return apperrors.Forbidden("Only venue owners can register venues")
	}
	if !actor.IsSuperuser() || venue.OwnerID == "" {
		venue.OwnerID = actor.ID
	}

	s.sanitize(venue)
	venue.ID = ""
	venue.CourtIDs = []string{}
	venue.PartyIDs = []string{}
	venue.Courts = nil

	if err := s.validator.Validate(venue); err != nil {
		s.cfg.Log.Warn("Venue validation failed",
			"name", venue.Name,
			"owner_id", venue.OwnerID,
			"error", err,
		)
		return apperrors.Validation("Venue validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.venues.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue",
			"name", venue.Name,
			"owner_id", venue.OwnerID,
			"error", err,
		)
		return apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully",
		"id", venue.ID,
		"name", venue.Name,
		"owner_id", venue.OwnerID,
	)
	return nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "Venue", id, "Failed to retrieve venue")
	}

	courts, err := s.courts.FindByVenue(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load venue courts", "venue_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venue courts", err)
	}
	venue.Courts = courts

	return venue, nil
}

func (s *venueService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var venues []*model.Venue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.venues.Count(gctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count venues", "error", err)
			return apperrors.Internal("Failed to count venues", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		venues, err = s.venues.FindAll(gctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all venues",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			return apperrors.Internal("Failed to retrieve venues", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return venues, count, nil
}

func (s *venueService) Update(ctx context.Context, actor auth.Actor, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	existing, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "Venue", id, "Failed to check venue existence")
	}
	if !actor.CanManage(existing.OwnerID) {
		return nil, apperrors.Forbidden("You do not manage this venue")
	}

	merged := s.mergeVenueUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Venue validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Venue validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.venues.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update venue", "id", id, "error", err)
		return nil, s.mapError(err, "Venue", id, "Failed to update venue")
	}

	s.cfg.Log.Info("Venue updated successfully",
		"id", id,
		"name", merged.Name,
	)
	return merged, nil
}

func (s *venueService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err, "Venue", id, "Failed to check venue existence")
	}
	if !actor.CanManage(venue.OwnerID) {
		return apperrors.Forbidden("You do not manage this venue")
	}

	err = s.venues.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return s.deleteVenueCascade(sessCtx, venue)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete venue", "id", id, "error", err)
		return s.mapError(err, "Venue", id, "Failed to delete venue")
	}

	s.cfg.Log.Info("Venue deleted successfully",
		"id", id,
		"courts", len(venue.CourtIDs),
	)
	s.publisher.Publish(ctx, events.Event{
		Type:    events.VenueDeleted,
		Key:     id,
		Payload: map[string]any{"id": id, "owner_id": venue.OwnerID, "court_ids": venue.CourtIDs},
	})
	return nil
}

// DeleteByOwner removes every venue the owner has, with all their courts,
// reservations and parties, in one transaction.
func (s *venueService) DeleteByOwner(ctx context.Context, actor auth.Actor, ownerID string) (int, error) {
	if !actor.IsSuperuser() {
		return 0, apperrors.Forbidden("Only superusers can remove owners")
	}
	if ownerID == "" {
		return 0, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	owned, err := s.venues.FindByOwner(ctx, ownerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list owner venues", "owner_id", ownerID, "error", err)
		return 0, apperrors.Internal("Failed to list owner venues", err)
	}
	if len(owned) == 0 {
		return 0, apperrors.NotFound(fmt.Sprintf("Venues of owner '%s'", ownerID))
	}

	err = s.venues.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, venue := range owned {
			if err := s.deleteVenueCascade(sessCtx, venue); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete owner venues", "owner_id", ownerID, "error", err)
		return 0, apperrors.Internal("Failed to delete owner venues", err)
	}

	s.cfg.Log.Info("Owner venues deleted successfully",
		"owner_id", ownerID,
		"venues", len(owned),
	)
	for _, venue := range owned {
		s.publisher.Publish(ctx, events.Event{
			Type:    events.VenueDeleted,
			Key:     venue.ID,
			Payload: map[string]any{"id": venue.ID, "owner_id": ownerID, "court_ids": venue.CourtIDs},
		})
	}
	return len(owned), nil
}

func (s *venueService) deleteVenueCascade(ctx context.Context, venue *model.Venue) error {
	courts, err := s.courts.FindByVenue(ctx, venue.ID)
	if err != nil {
		return err
	}
	courtIDs := make([]string, 0, len(courts))
	for _, c := range courts {
		courtIDs = append(courtIDs, c.ID)
	}

	if len(courtIDs) > 0 {
		if _, err := s.reservations.DeleteByCourts(ctx, courtIDs); err != nil {
			return fmt.Errorf("failed to delete reservations: %w", err)
		}
		if _, err := s.courts.DeleteByVenue(ctx, venue.ID); err != nil {
			return err
		}
	}
	if _, err := s.parties.DeleteByVenue(ctx, venue.ID); err != nil {
		return fmt.Errorf("failed to delete party reservations: %w", err)
	}
	return s.venues.Delete(ctx, venue.ID)
}

func (s *venueService) sanitize(venue *model.Venue) {
	venue.Name = sanitizer.NormalizeName(venue.Name)
	venue.Address = sanitizer.TrimAndNormalize(venue.Address)
	venue.Phone = sanitizer.NormalizePhone(venue.Phone)
	venue.WhatsApp = sanitizer.NormalizePhone(venue.WhatsApp)
	venue.Instagram = sanitizer.NormalizeInstagram(venue.Instagram)
	venue.ImageURL = sanitizer.NormalizeURL(venue.ImageURL)
	venue.Amenities = sanitizer.NormalizeAmenities(venue.Amenities)
	venue.Description = sanitizer.TrimAndNormalize(venue.Description)
}

func (s *venueService) mergeVenueUpdates(existing *model.Venue, updates *model.VenueUpdate) *model.Venue {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.WhatsApp != nil {
		merged.WhatsApp = *updates.WhatsApp
	}
	if updates.Instagram != nil {
		merged.Instagram = *updates.Instagram
	}
	if updates.ImageURL != nil {
		merged.ImageURL = *updates.ImageURL
	}
	if updates.Amenities != nil {
		merged.Amenities = *updates.Amenities
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}

	return &merged
}

func (s *venueService) mapError(err error, resource, id, internalMsg string) error {
	switch {
	case errors.Is(err, venueserrors.ErrVenueNotFound):
		return apperrors.NotFoundWithID("Venue", id)
	case errors.Is(err, venueserrors.ErrCourtNotFound):
		return apperrors.NotFoundWithID("Court", id)
	case errors.Is(err, venueserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", resource))
	case apperrors.IsAppError(err):
		return err
	}
	return apperrors.Internal(internalMsg, err)
}
