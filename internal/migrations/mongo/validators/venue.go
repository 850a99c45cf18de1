package validators

import "go.mongodb.org/mongo-driver/bson"

var VenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "address", "owner_id", "court_ids", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 200,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},

			"whatsapp": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"maxItems": 30,
				"items":    bson.M{"bsonType": "string"},
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"court_ids": stringIDArray,
			"party_ids": stringIDArray,

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

// stringIDArray is a list of hex ObjectIDs stored as strings.
var stringIDArray = bson.M{
	"bsonType": "array",
	"items": bson.M{
		"bsonType":  "string",
		"minLength": 24,
		"maxLength": 24,
	},
}

var hexID = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}
