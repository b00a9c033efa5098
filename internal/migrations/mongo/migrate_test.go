package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestPriceFreezesIndexes_ActiveUniqueness(t *testing.T) {
	var found bool
	for _, model := range PriceFreezesIndexes {
		if model.Options == nil || model.Options.Name == nil || *model.Options.Name != ActiveFreezeIndexName {
			continue
		}
		found = true

		if model.Options.Unique == nil || !*model.Options.Unique {
			t.Error("active freeze index must be unique")
		}
		filter, ok := model.Options.PartialFilterExpression.(bson.M)
		if !ok || filter["state"] != "active" {
			t.Errorf("partial filter = %v, want state=active", model.Options.PartialFilterExpression)
		}
		keys := model.Keys.(bson.D)
		want := []string{"user_id", "item_kind", "item_id"}
		if len(keys) != len(want) {
			t.Fatalf("keys = %v", keys)
		}
		for i, k := range want {
			if keys[i].Key != k {
				t.Errorf("key %d = %s, want %s", i, keys[i].Key, k)
			}
		}
	}
	if !found {
		t.Fatalf("index %s not declared", ActiveFreezeIndexName)
	}
}
