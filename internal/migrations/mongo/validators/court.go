package validators

import "go.mongodb.org/mongo-driver/bson"

var CourtValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"venue_id", "name", "players_per_side", "price", "reservation_ids", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"venue_id": hexID,

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"players_per_side": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  11,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"price_step_hour": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  23,
			},

			"price_step_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"reservation_ids": stringIDArray,

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
