package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	freezesrepo "tripfare/internal/freezes/repository"
	inventoryrepo "tripfare/internal/inventory/repository"
	"tripfare/internal/migrations/mongo/validators"
	quotesrepo "tripfare/internal/quotes/repository"
	"tripfare/pkg/logger"
)

const ActiveFreezeIndexName = "uniq_active_freeze_per_user_item"

var (
	InventoryItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_kind", Value: 1}, {Key: "item_id", Value: 1}}},
	}

	PriceRecordsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "item_kind", Value: 1},
			{Key: "item_id", Value: 1},
			{Key: "date_key", Value: 1},
		}},
		{Keys: bson.D{{Key: "current_price", Value: -1}}},
	}

	// At most one active freeze per user and item. Non-active freezes are outside the
	// partial filter and never collide.
	PriceFreezesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "item_kind", Value: 1},
				{Key: "item_id", Value: 1},
			},
			Options: options.Index().
				SetName(ActiveFreezeIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"state": "active"}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// RunMigration creates the collections with their JSON-schema validators and indexes.
// It is idempotent: existing collections get their validator refreshed.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	collections := map[string]collectionDef{
		inventoryrepo.CollectionName: {
			Indexes:   InventoryItemsIndexes,
			Validator: validators.InventoryItemValidator,
		},
		quotesrepo.CollectionName: {
			Indexes:   PriceRecordsIndexes,
			Validator: validators.PriceRecordValidator,
		},
		freezesrepo.CollectionName: {
			Indexes:   PriceFreezesIndexes,
			Validator: validators.PriceFreezeValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
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

	log.Info("Collection exists, updating validator", "collection", name)
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
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
