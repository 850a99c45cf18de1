package mongo

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"canchas/internal/migrations/mongo/validators"
	partiesrepo "canchas/internal/parties/repository"
	reservationsrepo "canchas/internal/reservations/repository"
	"canchas/internal/slotlock"
	venuesrepo "canchas/internal/venues/repository"
	"canchas/pkg/logger"
)

var (
	VenuesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "party_ids", Value: 1}}},
	}

	CourtsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "venue_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "reservation_ids", Value: 1}}},
	}

	// The overlap query is an equality on court_id or venue_id plus range
	// predicates on start_time and end_time.
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "court_id", Value: 1},
			{Key: "active", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "venue_id", Value: 1},
			{Key: "active", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "end_time", Value: 1}}},
	}

	PartyReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "venue_id", Value: 1},
			{Key: "active", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "end_time", Value: 1}}},
	}

	// Expired locks are also removed by the TTL monitor, so a crashed holder
	// never blocks a calendar for longer than the lock TTL plus one sweep.
	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		venuesrepo.VenueCollectionName: {
			Indexes:   VenuesIndexes,
			Validator: validators.VenueValidator,
		},
		venuesrepo.CourtCollectionName: {
			Indexes:   CourtsIndexes,
			Validator: validators.CourtValidator,
		},
		reservationsrepo.CollectionName: {
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		partiesrepo.CollectionName: {
			Indexes:   PartyReservationsIndexes,
			Validator: validators.PartyReservationValidator,
		},
		slotlock.CollectionName: {
			Indexes:   ReservationLocksIndexes,
			Validator: validators.SlotLockValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := Collections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := collections[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "collections", len(names))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", len(models))
	return nil
}
