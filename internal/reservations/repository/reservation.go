package repository

import (
	reservationserrors "canchas/internal/reservations/errors"
	"canchas/pkg/config"
	"canchas/pkg/conflict"
	mongotx "canchas/pkg/db/mongo"
	"canchas/pkg/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "reservations"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Find(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error)
	Count(ctx context.Context, filter model.ReservationFilter) (int64, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// FindOverlapping returns active reservations on the court that share at
	// least one instant with interval.
	FindOverlapping(ctx context.Context, courtID string, interval conflict.Interval) ([]*model.Reservation, error)
	FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.Reservation, error)

	DeleteByCourts(ctx context.Context, courtIDs []string) (int64, error)
	FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
	DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	stampNew(reservation, time.Now())

	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	reservation.ID = mongotx.InsertedHex(result.InsertedID)

	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) Find(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)

	return r.find(ctx, listFilter(filter), opts)
}

func (r *mongoReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"active":     active,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoReservationRepository) FindOverlapping(ctx context.Context, courtID string, interval conflict.Interval) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := overlapFilter(interval)
	filter["court_id"] = courtID
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoReservationRepository) FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := overlapFilter(interval)
	filter["venue_id"] = venueID
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoReservationRepository) DeleteByCourts(ctx context.Context, courtIDs []string) (int64, error) {
	if len(courtIDs) == 0 {
		return 0, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"court_id": bson.M{"$in": courtIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete reservations by court: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoReservationRepository) FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"active": false, "end_time": bson.M{"$lt": cutoff}}
	return r.find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1, "court_id": 1}))
}

func (r *mongoReservationRepository) DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", reservationserrors.ErrInvalidID, err)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, inactiveIDsFilter(objectIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete reservations: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// overlapFilter matches active bookings intersecting [Start, End).
func overlapFilter(interval conflict.Interval) bson.M {
	return bson.M{
		"active":     true,
		"start_time": bson.M{"$lt": interval.End},
		"end_time":   bson.M{"$gt": interval.Start},
	}
}

func listFilter(filter model.ReservationFilter) bson.M {
	query := bson.M{}
	if filter.CourtID != "" {
		query["court_id"] = filter.CourtID
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		bounds := bson.M{}
		if !filter.From.IsZero() {
			bounds["$gte"] = filter.From
		}
		if !filter.To.IsZero() {
			bounds["$lt"] = filter.To
		}
		query["start_time"] = bounds
	}
	return query
}

// stampNew prepares reservation for insertion. The id is cleared so the store
// assigns a fresh ObjectID even when the write is retried.
func stampNew(reservation *model.Reservation, now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	reservation.ID = ""
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
}

// inactiveIDsFilter never matches an active booking, so a booking rebooked
// after it was selected for purging survives.
func inactiveIDsFilter(ids []primitive.ObjectID) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}, "active": false}
}
