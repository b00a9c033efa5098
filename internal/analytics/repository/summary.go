package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	freezesrepo "tripfare/internal/freezes/repository"
	quotesrepo "tripfare/internal/quotes/repository"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	"tripfare/pkg/model"
)

// RecordSummary is the slice of a PriceRecord the rollup needs; history is reduced to its length.
type RecordSummary struct {
	ItemKind     model.ItemKind `bson:"item_kind"`
	ItemID       string         `bson:"item_id"`
	DateKey      string         `bson:"date_key"`
	BasePrice    int64          `bson:"base_price"`
	CurrentPrice int64          `bson:"current_price"`
	Snapshots    int            `bson:"snapshots"`
}

type FreezeSummary struct {
	State     model.FreezeState `bson:"state"`
	WindowEnd time.Time         `bson:"window_end"`
	Savings   int64             `bson:"savings"`
}

type SummaryRepository interface {
	RecordSummaries(ctx context.Context) ([]RecordSummary, error)
	FreezeSummaries(ctx context.Context) ([]FreezeSummary, error)
}

type mongoSummaryRepository struct {
	readTimeout time.Duration
	records     *mongo.Collection
	freezes     *mongo.Collection
}

func NewMongoSummaryRepository(cfg *config.Config) SummaryRepository {
	return NewMongoSummaryRepositoryWithDB(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.ReadTimeout)
}

func NewMongoSummaryRepositoryWithDB(db *mongo.Database, readTimeout time.Duration) SummaryRepository {
	return &mongoSummaryRepository{
		readTimeout: readTimeout,
		records:     db.Collection(quotesrepo.CollectionName),
		freezes:     db.Collection(freezesrepo.CollectionName),
	}
}

func (r *mongoSummaryRepository) RecordSummaries(ctx context.Context) ([]RecordSummary, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"item_kind":     1,
			"item_id":       1,
			"date_key":      1,
			"base_price":    1,
			"current_price": 1,
			"snapshots":     bson.M{"$size": bson.M{"$ifNull": bson.A{"$history", bson.A{}}}},
		}}},
	}

	cursor, err := r.records.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate price records: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []RecordSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode price record summaries: %w", err)
	}
	return out, nil
}

func (r *mongoSummaryRepository) FreezeSummaries(ctx context.Context) ([]FreezeSummary, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 0, "state": 1, "window_end": 1, "savings": 1})
	cursor, err := r.freezes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query price freezes: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []FreezeSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode price freeze summaries: %w", err)
	}
	return out, nil
}
