// Package testutil provisions throwaway Mongo databases for repository tests.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	migrations "tripfare/internal/migrations/mongo"
	"tripfare/pkg/logger"
)

const EnvTestMongoURI = "TEST_MONGO_URI"

// MongoDatabase returns a freshly migrated database that is dropped when the test ends.
// The test is skipped unless TEST_MONGO_URI is set.
func MongoDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(EnvTestMongoURI)
	if uri == "" {
		t.Skipf("%s not set, skipping Mongo integration test", EnvTestMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping mongo: %v", err)
	}

	name := "tripfare_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	db := client.Database(name)
	if err := migrations.RunMigration(ctx, db, logger.Discard()); err != nil {
		t.Fatalf("migrate %s: %v", name, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s: %v", name, err)
		}
		_ = client.Disconnect(ctx)
	})
	return db
}
