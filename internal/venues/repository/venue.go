package repository

import (
	venueserrors "canchas/internal/venues/errors"
	"canchas/pkg/config"
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
	VenueCollectionName = "venues"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, error)
	ListAll(ctx context.Context) ([]*model.Venue, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Venue, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, venue *model.Venue) error
	Delete(ctx context.Context, id string) error

	PushCourt(ctx context.Context, venueID, courtID string) error
	PullCourt(ctx context.Context, venueID, courtID string) error
	PushParty(ctx context.Context, venueID, partyID string) error
	PullParty(ctx context.Context, venueID, partyID string) error
	PullParties(ctx context.Context, partyIDs []string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(VenueCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	venue.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}
	venue.ID = mongotx.InsertedHex(result.InsertedID)

	return nil
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	var venue model.Venue
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", venueserrors.ErrVenueNotFound, id)
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}
	return &venue, nil
}

func (r *mongoVenueRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := catalogOrder().
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{}, opts)
}

// ListAll returns every venue in catalog order. Availability search walks
// this list, so its order is the order of the search results.
func (r *mongoVenueRepository) ListAll(ctx context.Context) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{}, catalogOrder())
}

func (r *mongoVenueRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"owner_id": ownerID}, catalogOrder())
}

func (r *mongoVenueRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

func (r *mongoVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":        venue.Name,
			"address":     venue.Address,
			"phone":       venue.Phone,
			"whatsapp":    venue.WhatsApp,
			"instagram":   venue.Instagram,
			"image_url":   venue.ImageURL,
			"amenities":   venue.Amenities,
			"description": venue.Description,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrVenueNotFound, id)
	}

	return nil
}

func (r *mongoVenueRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrVenueNotFound, id)
	}

	return nil
}

func (r *mongoVenueRepository) PushCourt(ctx context.Context, venueID, courtID string) error {
	return r.modifyList(ctx, venueID, "$addToSet", "court_ids", courtID)
}

func (r *mongoVenueRepository) PullCourt(ctx context.Context, venueID, courtID string) error {
	return r.modifyList(ctx, venueID, "$pull", "court_ids", courtID)
}

func (r *mongoVenueRepository) PushParty(ctx context.Context, venueID, partyID string) error {
	return r.modifyList(ctx, venueID, "$addToSet", "party_ids", partyID)
}

func (r *mongoVenueRepository) PullParty(ctx context.Context, venueID, partyID string) error {
	return r.modifyList(ctx, venueID, "$pull", "party_ids", partyID)
}

// PullParties removes the ids from whichever venue lists them.
func (r *mongoVenueRepository) PullParties(ctx context.Context, partyIDs []string) error {
	if len(partyIDs) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"party_ids": bson.M{"$in": partyIDs}}
	update := bson.M{"$pull": bson.M{"party_ids": bson.M{"$in": partyIDs}}}
	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to pull parties from venues: %w", err)
	}
	return nil
}

func (r *mongoVenueRepository) modifyList(ctx context.Context, venueID, operator, field, value string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(venueID)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, venueID)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{operator: bson.M{field: value}})
	if err != nil {
		return fmt.Errorf("failed to update venue %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrVenueNotFound, venueID)
	}
	return nil
}

func (r *mongoVenueRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Venue, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := []*model.Venue{}
	if err = cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}

func (r *mongoVenueRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func catalogOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
}
