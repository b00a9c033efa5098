package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	quoteserrors "tripfare/internal/quotes/errors"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	"tripfare/pkg/model"
)

const (
	CollectionName = "Price_records"
)

type PriceRecordRepository interface {
	FindByID(ctx context.Context, id string) (*model.PriceRecord, error)
	FindByItem(ctx context.Context, kind model.ItemKind, itemID, dateKey string) ([]*model.PriceRecord, error)
	Insert(ctx context.Context, rec *model.PriceRecord) error
	CompareAndSwap(ctx context.Context, rec *model.PriceRecord, expectedVersion int64) error
}

type mongoPriceRecordRepository struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
	collection   *mongo.Collection
}

func NewMongoPriceRecordRepository(cfg *config.Config) PriceRecordRepository {
	return NewMongoPriceRecordRepositoryWithDB(
		cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)
}

func NewMongoPriceRecordRepositoryWithDB(db *mongo.Database, readTimeout, writeTimeout time.Duration) PriceRecordRepository {
	return &mongoPriceRecordRepository{
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		collection:   db.Collection(CollectionName),
	}
}

func (r *mongoPriceRecordRepository) FindByID(ctx context.Context, id string) (*model.PriceRecord, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	var rec model.PriceRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", quoteserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find price record: %w", err)
	}
	return &rec, nil
}

// FindByItem returns every date record of an item, or only dateKey's when it is set.
func (r *mongoPriceRecordRepository) FindByItem(ctx context.Context, kind model.ItemKind, itemID, dateKey string) ([]*model.PriceRecord, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	filter := bson.M{"item_kind": kind, "item_id": itemID}
	if dateKey != "" {
		filter["date_key"] = dateKey
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_key", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.PriceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode price records: %w", err)
	}
	return records, nil
}

// Insert creates the record. A concurrent creator of the same id yields ErrVersionConflict.
func (r *mongoPriceRecordRepository) Insert(ctx context.Context, rec *model.PriceRecord) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if rec.Version == 0 {
		rec.Version = 1
	}
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", quoteserrors.ErrVersionConflict, rec.ID)
		}
		return fmt.Errorf("failed to insert price record: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the stored record only if it is still at expectedVersion, and
// bumps rec.Version. The whole document is written in one operation.
func (r *mongoPriceRecordRepository) CompareAndSwap(ctx context.Context, rec *model.PriceRecord, expectedVersion int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	rec.Version = expectedVersion + 1
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID, "version": expectedVersion}, rec)
	if err != nil {
		rec.Version = expectedVersion
		return fmt.Errorf("failed to update price record: %w", err)
	}
	if result.MatchedCount == 0 {
		rec.Version = expectedVersion
		return fmt.Errorf("%w: %s at version %d", quoteserrors.ErrVersionConflict, rec.ID, expectedVersion)
	}
	return nil
}
