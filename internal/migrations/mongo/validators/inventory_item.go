package validators

import "go.mongodb.org/mongo-driver/bson"

var InventoryItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"item_kind",
			"item_id",
			"base_price",
			"capacity",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"item_kind": bson.M{
				"enum": []string{"flight", "hotel"},
			},

			"item_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"base_price": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  100000,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
