package service

import (
	"canchas/pkg/cache"
	"canchas/pkg/config"
	"canchas/pkg/conflict"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/model"
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// venueWorkers bounds how many venues are checked at once.
const venueWorkers = 4

type VenueLister interface {
	ListAll(ctx context.Context) ([]*model.Venue, error)
}

type CourtLister interface {
	FindByVenue(ctx context.Context, venueID string) ([]*model.Court, error)
}

type ReservationCalendar interface {
	FindOverlapping(ctx context.Context, courtID string, interval conflict.Interval) ([]*model.Reservation, error)
}

type PartyCalendar interface {
	FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error)
}

type SearchService interface {
	// Search returns, in catalog order, the venues with at least one court
	// free for the whole requested interval.
	Search(ctx context.Context, req *model.SearchRequest) ([]*model.Venue, error)
}

type searchService struct {
	venues       VenueLister
	courts       CourtLister
	reservations ReservationCalendar
	parties      PartyCalendar
	cache        *cache.SearchCache
	cfg          *config.Config
}

func NewSearchService(
	venues VenueLister,
	courts CourtLister,
	reservations ReservationCalendar,
	parties PartyCalendar,
	searchCache *cache.SearchCache,
	cfg *config.Config,
) SearchService {
	return &searchService{
		venues:       venues,
		courts:       courts,
		reservations: reservations,
		parties:      parties,
		cache:        searchCache,
		cfg:          cfg,
	}
}

func (s *searchService) Search(ctx context.Context, req *model.SearchRequest) ([]*model.Venue, error) {
	interval, err := s.interval(req)
	if err != nil {
		return nil, err
	}

	var cached []*model.Venue
	if s.cache.Get(ctx, interval, &cached) {
		s.cfg.Log.Debug("Search served from cache", "start_time", interval.Start, "end_time", interval.End)
		return cached, nil
	}

	venues, err := s.venues.ListAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list venues for search", "error", err)
		return nil, s.mapError(err)
	}

	free := make([]bool, len(venues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(venueWorkers)
	for i, venue := range venues {
		i, venue := i, venue
		g.Go(func() error {
			ok, err := s.hasFreeCourt(gctx, venue, interval)
			if err != nil {
				return err
			}
			free[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to search venues",
			"start_time", interval.Start,
			"end_time", interval.End,
			"error", err,
		)
		return nil, s.mapError(err)
	}

	result := make([]*model.Venue, 0, len(venues))
	for i, venue := range venues {
		if free[i] {
			result = append(result, venue)
		}
	}

	s.cfg.Log.Info("Search completed",
		"start_time", interval.Start,
		"end_time", interval.End,
		"venues_checked", len(venues),
		"venues_available", len(result),
	)
	s.cache.Set(ctx, interval, result)
	return result, nil
}

// interval accepts a single instant in Date, or explicit Start and End.
func (s *searchService) interval(req *model.SearchRequest) (conflict.Interval, error) {
	if req == nil {
		return conflict.Interval{}, apperrors.InvalidInterval("date or start_time and end_time are required")
	}

	var iv conflict.Interval
	var err error
	switch {
	case req.Date != nil:
		iv, err = conflict.NewInterval(*req.Date, time.Time{}, s.cfg.DefaultReservationDuration)
	case req.Start != nil && req.End != nil:
		iv, err = conflict.NewInterval(*req.Start, *req.End, 0)
	default:
		return conflict.Interval{}, apperrors.InvalidInterval("date or start_time and end_time are required")
	}
	if err != nil {
		return conflict.Interval{}, apperrors.InvalidInterval("end_time must be after start_time")
	}

	iv.Start, iv.End = iv.Start.UTC(), iv.End.UTC()
	return iv, nil
}

// hasFreeCourt populates venue.Courts and reports whether any of them is
// free. A venue without courts is never free.
func (s *searchService) hasFreeCourt(ctx context.Context, venue *model.Venue, interval conflict.Interval) (bool, error) {
	courts, err := s.courts.FindByVenue(ctx, venue.ID)
	if err != nil {
		return false, err
	}
	venue.Courts = courts
	if len(courts) == 0 {
		return false, nil
	}

	if s.cfg.PartyBlocksCourts && s.parties != nil {
		parties, err := s.parties.FindOverlappingByVenue(ctx, venue.ID, interval)
		if err != nil {
			return false, err
		}
		result, err := conflict.Check(interval, model.PartySlots(parties))
		if err != nil {
			return false, err
		}
		if !result.Free {
			return false, nil
		}
	}

	for _, court := range courts {
		reservations, err := s.reservations.FindOverlapping(ctx, court.ID, interval)
		if err != nil {
			return false, err
		}
		result, err := conflict.Check(interval, model.ReservationSlots(reservations))
		if err != nil {
			return false, err
		}
		if result.Free {
			return true, nil
		}
	}
	return false, nil
}

func (s *searchService) mapError(err error) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("The search did not finish in time")
	}
	return apperrors.Internal("Failed to search venues", err)
}
