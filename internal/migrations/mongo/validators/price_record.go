package validators

import "go.mongodb.org/mongo-driver/bson"

var priceSnapshotSchema = bson.M{
	"bsonType": "object",
	"required": []string{"taken_at", "base_price", "final_price", "demand_multiplier"},
	"properties": bson.M{
		"taken_at":          bson.M{"bsonType": "date"},
		"base_price":        bson.M{"bsonType": "long", "minimum": 1},
		"final_price":       bson.M{"bsonType": "long", "minimum": 1},
		"demand_multiplier": bson.M{"bsonType": "double", "minimum": 0.5, "maximum": 3.0},
		"occupancy_ratio":   bson.M{"bsonType": "double", "minimum": 0, "maximum": 1},
		"booked_units":      bson.M{"bsonType": "int", "minimum": 0},
	},
}

var PriceRecordValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"item_kind",
			"item_id",
			"date_key",
			"base_price",
			"current_price",
			"demand_multiplier",
			"capacity_total",
			"capacity_available",
			"last_computed_at",
			"version",
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

			"date_key": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}(_\d{4}-\d{2}-\d{2})?$`,
			},

			"base_price": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"current_price": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"demand_multiplier": bson.M{
				"bsonType": "double",
				"minimum":  0.5,
				"maximum":  3.0,
			},

			"occupancy_ratio": bson.M{
				"bsonType": "double",
				"minimum":  0,
				"maximum":  1,
			},

			"capacity_total": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"capacity_available": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"booking_trend": bson.M{
				"enum": []string{"increasing", "decreasing", "stable"},
			},

			"history": bson.M{
				"bsonType": "array",
				"maxItems": 100,
				"items":    priceSnapshotSchema,
			},

			"version": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},
		},
	},
}
