package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	freezeserrors "tripfare/internal/freezes/errors"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	"tripfare/pkg/model"
)

const (
	CollectionName = "Price_freezes"
	maxUserFreezes = 500
)

type FreezeRepository interface {
	Insert(ctx context.Context, f *model.PriceFreeze) error
	FindByID(ctx context.Context, id string) (*model.PriceFreeze, error)
	FindByUser(ctx context.Context, userID string) ([]*model.PriceFreeze, error)
	FindActive(ctx context.Context, userID string, kind model.ItemKind, itemID string) (*model.PriceFreeze, error)
	Transition(ctx context.Context, f *model.PriceFreeze, from model.FreezeState) error
}

type mongoFreezeRepository struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
	collection   *mongo.Collection
}

func NewMongoFreezeRepository(cfg *config.Config) FreezeRepository {
	return NewMongoFreezeRepositoryWithDB(
		cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)
}

func NewMongoFreezeRepositoryWithDB(db *mongo.Database, readTimeout, writeTimeout time.Duration) FreezeRepository {
	return &mongoFreezeRepository{
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		collection:   db.Collection(CollectionName),
	}
}

// Insert stores an active freeze. The unique partial index on active freezes turns a
// second active freeze for the same user and item into ErrAlreadyFrozen.
func (r *mongoFreezeRepository) Insert(ctx context.Context, f *model.PriceFreeze) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if f.State != model.FreezeActive {
		return fmt.Errorf("insert freeze %s in state %s: %w", f.ID, f.State, model.ErrInvalidTransition)
	}
	if _, err := r.collection.InsertOne(ctx, f); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: user %s item %s:%s", freezeserrors.ErrAlreadyFrozen, f.UserID, f.ItemKind, f.ItemID)
		}
		return fmt.Errorf("failed to insert price freeze: %w", err)
	}
	return nil
}

func (r *mongoFreezeRepository) FindByID(ctx context.Context, id string) (*model.PriceFreeze, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	var f model.PriceFreeze
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", freezeserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find price freeze: %w", err)
	}
	return &f, nil
}

// FindByUser returns the user's freezes, newest first.
func (r *mongoFreezeRepository) FindByUser(ctx context.Context, userID string) ([]*model.PriceFreeze, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(maxUserFreezes)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find price freezes: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var freezes []*model.PriceFreeze
	if err := cursor.All(ctx, &freezes); err != nil {
		return nil, fmt.Errorf("failed to decode price freezes: %w", err)
	}
	return freezes, nil
}

func (r *mongoFreezeRepository) FindActive(ctx context.Context, userID string, kind model.ItemKind, itemID string) (*model.PriceFreeze, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":   userID,
		"item_kind": kind,
		"item_id":   itemID,
		"state":     model.FreezeActive,
	}
	var f model.PriceFreeze
	if err := r.collection.FindOne(ctx, filter).Decode(&f); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, fmt.Errorf("%w: no active freeze for user %s item %s:%s", freezeserrors.ErrNotFound, userID, kind, itemID)
		}
		return nil, fmt.Errorf("failed to find active price freeze: %w", err)
	}
	return &f, nil
}

// Transition persists f's new state only if the stored freeze is still in state from.
func (r *mongoFreezeRepository) Transition(ctx context.Context, f *model.PriceFreeze, from model.FreezeState) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	set := bson.M{"state": f.State}
	if f.RedeemedAt != nil {
		set["redeemed_at"] = *f.RedeemedAt
	}
	if f.ExpiredAt != nil {
		set["expired_at"] = *f.ExpiredAt
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": f.ID, "state": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update price freeze: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s is no longer %s", freezeserrors.ErrStateChanged, f.ID, from)
	}
	return nil
}
