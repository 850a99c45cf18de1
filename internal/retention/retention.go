// Package retention hard-deletes cancelled bookings once they are old enough
// that nobody will rebook them.
package retention

import (
	"canchas/pkg/config"
	mongotx "canchas/pkg/db/mongo"
	"canchas/pkg/model"
	"canchas/pkg/scheduler"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	JobName = "booking-retention"

	runTimeout = 5 * time.Minute
)

type ReservationStore interface {
	FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
	DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type PartyStore interface {
	FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.PartyReservation, error)
	DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error)
}

type CourtLists interface {
	PullReservations(ctx context.Context, reservationIDs []string) error
}

type VenueLists interface {
	PullParties(ctx context.Context, partyIDs []string) error
}

type Result struct {
	Cutoff              time.Time
	ReservationsDeleted int64
	PartiesDeleted      int64
}

type Purger struct {
	reservations ReservationStore
	parties      PartyStore
	courts       CourtLists
	venues       VenueLists
	cfg          *config.Config
	now          func() time.Time
}

func NewPurger(reservations ReservationStore, parties PartyStore, courts CourtLists, venues VenueLists, cfg *config.Config) *Purger {
	return &Purger{
		reservations: reservations,
		parties:      parties,
		courts:       courts,
		venues:       venues,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Run deletes inactive reservations and parties that ended before now minus
// RetentionAge. Selection, deletion and the list pulls share one transaction,
// and the delete itself skips anything active, so a booking rebooked while
// the job runs is never purged.
func (p *Purger) Run(ctx context.Context) (Result, error) {
	cutoff := p.now().UTC().Add(-p.cfg.RetentionAge)
	result := Result{Cutoff: cutoff}

	err := p.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result = Result{Cutoff: cutoff}

		reservations, err := p.reservations.FindInactiveEndedBefore(sessCtx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to find expired reservations: %w", err)
		}
		parties, err := p.parties.FindInactiveEndedBefore(sessCtx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to find expired party reservations: %w", err)
		}

		if len(reservations) > 0 {
			ids := make([]string, 0, len(reservations))
			for _, r := range reservations {
				ids = append(ids, r.ID)
			}
			if result.ReservationsDeleted, err = p.reservations.DeleteInactiveByIDs(sessCtx, ids); err != nil {
				return err
			}
			if err := p.courts.PullReservations(sessCtx, ids); err != nil {
				return err
			}
		}

		if len(parties) > 0 {
			ids := make([]string, 0, len(parties))
			for _, party := range parties {
				ids = append(ids, party.ID)
			}
			if result.PartiesDeleted, err = p.parties.DeleteInactiveByIDs(sessCtx, ids); err != nil {
				return err
			}
			return p.venues.PullParties(sessCtx, ids)
		}
		return nil
	})
	if err != nil {
		return Result{Cutoff: cutoff}, fmt.Errorf("failed to purge expired bookings: %w", err)
	}
	return result, nil
}

// Register schedules Run on RetentionCron.
func (p *Purger) Register(sched *scheduler.Service) error {
	_, err := sched.AddJob(JobName, p.cfg.RetentionCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		result, err := p.Run(ctx)
		if err != nil {
			p.cfg.Log.Error("Retention run failed", "cutoff", result.Cutoff, "error", err)
			return
		}
		p.cfg.Log.Info("Retention run completed",
			"cutoff", result.Cutoff,
			"reservations_deleted", result.ReservationsDeleted,
			"parties_deleted", result.PartiesDeleted,
		)
	})
	return err
}
