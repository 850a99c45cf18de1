package repository

import (
	partieserrors "canchas/internal/parties/errors"
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
	CollectionName = "party_reservations"

	// ListLimit caps how many parties a venue listing returns.
	ListLimit = 50
)

type PartyRepository interface {
	Create(ctx context.Context, party *model.PartyReservation) error
	FindByID(ctx context.Context, id string) (*model.PartyReservation, error)
	ListByVenue(ctx context.Context, venueID string, from, to time.Time) ([]*model.PartyReservation, error)
	FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	DeleteByVenue(ctx context.Context, venueID string) (int64, error)
	FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.PartyReservation, error)
	DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPartyRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPartyRepository(cfg *config.Config) PartyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPartyRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoPartyRepository) Create(ctx context.Context, party *model.PartyReservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	stampNew(party, time.Now())

	result, err := r.collection.InsertOne(ctx, party)
	if err != nil {
		return fmt.Errorf("failed to create party reservation: %w", err)
	}
	party.ID = mongotx.InsertedHex(result.InsertedID)

	return nil
}

func (r *mongoPartyRepository) FindByID(ctx context.Context, id string) (*model.PartyReservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", partieserrors.ErrInvalidID, id)
	}

	var party model.PartyReservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&party)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find party reservation: %w", err)
	}
	return &party, nil
}

func (r *mongoPartyRepository) ListByVenue(ctx context.Context, venueID string, from, to time.Time) ([]*model.PartyReservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(ListLimit)

	return r.find(ctx, venueFilter(venueID, from, to), opts)
}

func (r *mongoPartyRepository) FindOverlappingByVenue(ctx context.Context, venueID string, interval conflict.Interval) ([]*model.PartyReservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"venue_id":   venueID,
		"active":     true,
		"start_time": bson.M{"$lt": interval.End},
		"end_time":   bson.M{"$gt": interval.Start},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoPartyRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", partieserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"active":     active,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update party reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoPartyRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", partieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete party reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", partieserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoPartyRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"venue_id": venueID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete party reservations by venue: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoPartyRepository) FindInactiveEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.PartyReservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"active": false, "end_time": bson.M{"$lt": cutoff}}
	return r.find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1, "venue_id": 1}))
}

func (r *mongoPartyRepository) DeleteInactiveByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", partieserrors.ErrInvalidID, err)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, inactiveIDsFilter(objectIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete party reservations: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoPartyRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.PartyReservation, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query party reservations: %w", err)
	}
	defer cursor.Close(ctx)

	parties := []*model.PartyReservation{}
	if err = cursor.All(ctx, &parties); err != nil {
		return nil, fmt.Errorf("failed to decode party reservations: %w", err)
	}
	return parties, nil
}

func (r *mongoPartyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func venueFilter(venueID string, from, to time.Time) bson.M {
	query := bson.M{"venue_id": venueID}
	if !from.IsZero() && !to.IsZero() {
		query["start_time"] = bson.M{"$gte": from, "$lt": to}
	}
	return query
}

// stampNew prepares party for insertion. The id is cleared so the store
// assigns a fresh ObjectID even when the write is retried.
func stampNew(party *model.PartyReservation, now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	party.ID = ""
	party.CreatedAt = now
	party.UpdatedAt = now
}

// inactiveIDsFilter never matches an active booking, so a booking rebooked
// after it was selected for purging survives.
func inactiveIDsFilter(ids []primitive.ObjectID) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}, "active": false}
}
