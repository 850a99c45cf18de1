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
	CourtCollectionName = "courts"
)

type CourtRepository interface {
	Create(ctx context.Context, court *model.Court) error
	FindByID(ctx context.Context, id string) (*model.Court, error)
	FindByVenue(ctx context.Context, venueID string) ([]*model.Court, error)
	Update(ctx context.Context, id string, court *model.Court) error
	Delete(ctx context.Context, id string) error
	DeleteByVenue(ctx context.Context, venueID string) (int64, error)

	PushReservation(ctx context.Context, courtID, reservationID string) error
	PullReservation(ctx context.Context, courtID, reservationID string) error
	PullReservations(ctx context.Context, reservationIDs []string) error
}

type mongoCourtRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCourtRepository(cfg *config.Config) CourtRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCourtRepository{
		cfg:        cfg,
		collection: db.Collection(CourtCollectionName),
	}
}

func (r *mongoCourtRepository) Create(ctx context.Context, court *model.Court) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	court.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, court)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	court.ID = mongotx.InsertedHex(result.InsertedID)

	return nil
}

func (r *mongoCourtRepository) FindByID(ctx context.Context, id string) (*model.Court, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	var court model.Court
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&court)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", venueserrors.ErrCourtNotFound, id)
		}
		return nil, fmt.Errorf("failed to find court: %w", err)
	}
	return &court, nil
}

func (r *mongoCourtRepository) FindByVenue(ctx context.Context, venueID string) ([]*model.Court, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"venue_id": venueID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer cursor.Close(ctx)

	courts := []*model.Court{}
	if err = cursor.All(ctx, &courts); err != nil {
		return nil, fmt.Errorf("failed to decode courts: %w", err)
	}
	return courts, nil
}

func (r *mongoCourtRepository) Update(ctx context.Context, id string, court *model.Court) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"name":             court.Name,
		"players_per_side": court.PlayersPerSide,
		"outdoor":          court.Outdoor,
		"surface":          court.Surface,
		"price":            court.Price,
		"image_url":        court.ImageURL,
	}
	update := bson.M{"$set": set}

	// A cleared step is removed rather than stored as null.
	if court.PriceStepHour != nil && court.PriceStepPrice != nil {
		set["price_step_hour"] = *court.PriceStepHour
		set["price_step_price"] = *court.PriceStepPrice
	} else {
		update["$unset"] = bson.M{"price_step_hour": "", "price_step_price": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update court: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrCourtNotFound, id)
	}
	return nil
}

func (r *mongoCourtRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete court: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrCourtNotFound, id)
	}
	return nil
}

func (r *mongoCourtRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"venue_id": venueID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete courts of venue %s: %w", venueID, err)
	}
	return result.DeletedCount, nil
}

func (r *mongoCourtRepository) PushReservation(ctx context.Context, courtID, reservationID string) error {
	return r.modifyReservations(ctx, courtID, "$addToSet", reservationID)
}

func (r *mongoCourtRepository) PullReservation(ctx context.Context, courtID, reservationID string) error {
	return r.modifyReservations(ctx, courtID, "$pull", reservationID)
}

// PullReservations removes the ids from whichever courts list them.
func (r *mongoCourtRepository) PullReservations(ctx context.Context, reservationIDs []string) error {
	if len(reservationIDs) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"reservation_ids": bson.M{"$in": reservationIDs}}
	update := bson.M{"$pull": bson.M{"reservation_ids": bson.M{"$in": reservationIDs}}}
	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to pull reservations from courts: %w", err)
	}
	return nil
}

func (r *mongoCourtRepository) modifyReservations(ctx context.Context, courtID, operator, reservationID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(courtID)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, courtID)
	}

	update := bson.M{operator: bson.M{"reservation_ids": reservationID}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update court reservations: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrCourtNotFound, courtID)
	}
	return nil
}
