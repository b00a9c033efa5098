package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	inventoryerrors "tripfare/internal/inventory/errors"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	"tripfare/pkg/model"
)

const (
	CollectionName = "Inventory_items"
)

type InventoryRepository interface {
	Upsert(ctx context.Context, item *model.InventoryItem) error
	FindByKey(ctx context.Context, kind model.ItemKind, itemID string) (*model.InventoryItem, error)
}

type mongoInventoryRepository struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
	collection   *mongo.Collection
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	return NewMongoInventoryRepositoryWithDB(
		cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)
}

// NewMongoInventoryRepositoryWithDB is used by tests and tools that own their database handle.
func NewMongoInventoryRepositoryWithDB(db *mongo.Database, readTimeout, writeTimeout time.Duration) InventoryRepository {
	return &mongoInventoryRepository{
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		collection:   db.Collection(CollectionName),
	}
}

func (r *mongoInventoryRepository) Upsert(ctx context.Context, item *model.InventoryItem) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	item.ID = model.InventoryItemID(item.ItemKind, item.ItemID)
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": item.ID},
		item,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory item: %w", err)
	}
	return nil
}

func (r *mongoInventoryRepository) FindByKey(ctx context.Context, kind model.ItemKind, itemID string) (*model.InventoryItem, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	id := model.InventoryItemID(kind, itemID)
	var item model.InventoryItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}
	return &item, nil
}
