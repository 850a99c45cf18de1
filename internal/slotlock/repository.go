package slotlock

import (
	"canchas/pkg/config"
	"canchas/pkg/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "reservation_locks"

// ErrLocked is returned by Insert when another owner holds the key.
var ErrLocked = errors.New("slot lock already held")

type Repository interface {
	Insert(ctx context.Context, lock *model.SlotLock) error
	DeleteOwned(ctx context.Context, id, owner string) error
	DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error)
}

type mongoRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.Config) Repository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRepository) Insert(ctx context.Context, lock *model.SlotLock) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrLocked, lock.ID)
		}
		return fmt.Errorf("failed to insert slot lock: %w", err)
	}
	return nil
}

func (r *mongoRepository) DeleteOwned(ctx context.Context, id, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}

// DeleteExpired removes a lock whose holder died before releasing it. The
// TTL index does the same eventually, but its sweep runs only once a minute.
func (r *mongoRepository) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$lte": now}})
	if err != nil {
		return false, fmt.Errorf("failed to clear expired slot lock: %w", err)
	}
	return result.DeletedCount > 0, nil
}
