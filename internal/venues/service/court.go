package service

import (
	"canchas/internal/events"
	"canchas/pkg/auth"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/model"
	"canchas/pkg/sanitizer"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

func (s *venueService) CreateCourt(ctx context.Context, actor auth.Actor, court *model.Court) error {
	if court.VenueID == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.venues.FindByID(ctx, court.VenueID)
	if err != nil {
		return s.mapError(err, "Venue", court.VenueID, "Failed to check venue existence")
	}
	if !actor.CanManage(venue.OwnerID) {
		return apperrors.Forbidden("You do not manage this venue")
	}

	s.sanitizeCourt(court)
	court.ID = ""
	court.ReservationIDs = []string{}

	if err := s.validator.ValidateCourt(court); err != nil {
		s.cfg.Log.Warn("Court validation failed",
			"venue_id", court.VenueID,
			"name", court.Name,
			"error", err,
		)
		return apperrors.Validation("Court validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err = s.venues.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.courts.Create(sessCtx, court); err != nil {
			return err
		}
		return s.venues.PushCourt(sessCtx, court.VenueID, court.ID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create court",
			"venue_id", court.VenueID,
			"name", court.Name,
			"error", err,
		)
		return s.mapError(err, "Venue", court.VenueID, "Failed to create court")
	}

	s.cfg.Log.Info("Court created successfully",
		"id", court.ID,
		"venue_id", court.VenueID,
		"name", court.Name,
	)
	s.publisher.Publish(ctx, events.Event{
		Type:    events.CourtCreated,
		Key:     court.ID,
		Payload: court,
	})
	return nil
}

func (s *venueService) GetCourt(ctx context.Context, id string) (*model.Court, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}

	court, err := s.courts.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "Court", id, "Failed to retrieve court")
	}
	return court, nil
}

func (s *venueService) ListCourts(ctx context.Context, venueID string) ([]*model.Court, error) {
	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		return nil, s.mapError(err, "Venue", venueID, "Failed to check venue existence")
	}

	courts, err := s.courts.FindByVenue(ctx, venueID)
	if err != nil {
		s.cfg.Log.Error("Failed to list courts", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve courts", err)
	}
	return courts, nil
}

func (s *venueService) UpdateCourt(ctx context.Context, actor auth.Actor, id string, updates *model.CourtUpdate) (*model.Court, error) {
	court, venue, err := s.managedCourt(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	merged := mergeCourtUpdates(court, updates)
	s.sanitizeCourt(merged)
	if err := s.validator.ValidateCourt(merged); err != nil {
		s.cfg.Log.Warn("Court validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Court validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.courts.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update court", "id", id, "error", err)
		return nil, s.mapError(err, "Court", id, "Failed to update court")
	}

	s.cfg.Log.Info("Court updated successfully",
		"id", id,
		"venue_id", venue.ID,
	)
	return merged, nil
}

// DeleteCourt removes the court, its reservations and its entry on the venue.
func (s *venueService) DeleteCourt(ctx context.Context, actor auth.Actor, id string) error {
	court, venue, err := s.managedCourt(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.venues.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.reservations.DeleteByCourts(sessCtx, []string{id}); err != nil {
			return fmt.Errorf("failed to delete reservations: %w", err)
		}
		if err := s.courts.Delete(sessCtx, id); err != nil {
			return err
		}
		return s.venues.PullCourt(sessCtx, venue.ID, id)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete court", "id", id, "error", err)
		return s.mapError(err, "Court", id, "Failed to delete court")
	}

	s.cfg.Log.Info("Court deleted successfully",
		"id", id,
		"venue_id", venue.ID,
		"reservations", len(court.ReservationIDs),
	)
	s.publisher.Publish(ctx, events.Event{
		Type:    events.CourtDeleted,
		Key:     id,
		Payload: map[string]any{"id": id, "venue_id": venue.ID},
	})
	return nil
}

func (s *venueService) managedCourt(ctx context.Context, actor auth.Actor, id string) (*model.Court, *model.Venue, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Court ID cannot be empty")
	}

	court, err := s.courts.FindByID(ctx, id)
	if err != nil {
		return nil, nil, s.mapError(err, "Court", id, "Failed to check court existence")
	}
	venue, err := s.venues.FindByID(ctx, court.VenueID)
	if err != nil {
		return nil, nil, s.mapError(err, "Venue", court.VenueID, "Failed to check venue existence")
	}
	if !actor.CanManage(venue.OwnerID) {
		return nil, nil, apperrors.Forbidden("You do not manage this venue")
	}
	return court, venue, nil
}

func (s *venueService) sanitizeCourt(court *model.Court) {
	court.Name = sanitizer.NormalizeName(court.Name)
	court.Surface = sanitizer.NormalizeLabel(court.Surface)
	court.ImageURL = sanitizer.NormalizeURL(court.ImageURL)
}

func mergeCourtUpdates(existing *model.Court, updates *model.CourtUpdate) *model.Court {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.PlayersPerSide != nil {
		merged.PlayersPerSide = *updates.PlayersPerSide
	}
	if updates.Outdoor != nil {
		merged.Outdoor = *updates.Outdoor
	}
	if updates.Surface != nil {
		merged.Surface = *updates.Surface
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.PriceStepHour != nil {
		merged.PriceStepHour = updates.PriceStepHour
	}
	if updates.PriceStepPrice != nil {
		merged.PriceStepPrice = updates.PriceStepPrice
	}
	if updates.ImageURL != nil {
		merged.ImageURL = *updates.ImageURL
	}

	return &merged
}
