package validators

import "go.mongodb.org/mongo-driver/bson"

var PriceFreezeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"item_kind",
			"item_id",
			"frozen_price",
			"reference_price",
			"savings",
			"window_start",
			"window_end",
			"state",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"item_kind": bson.M{
				"enum": []string{"flight", "hotel"},
			},

			"item_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"frozen_price": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"reference_price": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"savings": bson.M{
				"bsonType": "long",
			},

			"window_start": bson.M{
				"bsonType": "date",
			},

			"window_end": bson.M{
				"bsonType": "date",
			},

			// requested never reaches the store
			"state": bson.M{
				"enum": []string{"active", "used", "expired"},
			},

			"redeemed_at": bson.M{
				"bsonType": "date",
			},

			"expired_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
