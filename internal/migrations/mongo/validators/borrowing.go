package validators

import "go.mongodb.org/mongo-driver/bson"

var BorrowingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"member_id",
			"book_id",
			"borrowed_at",
			"due_date",
			"status",
			"active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":       bson.M{"bsonType": "long", "minimum": 1},
			"member_id": bson.M{"bsonType": "long", "minimum": 1},
			"book_id":   bson.M{"bsonType": "long", "minimum": 1},

			"borrowed_at": bson.M{"bsonType": "date"},
			"due_date":    bson.M{"bsonType": "date"},
			"returned_at": bson.M{"bsonType": "date"},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"borrowed", "returned"},
			},

			"active": bson.M{"bsonType": "bool"},

			"librarian_id": bson.M{"bsonType": "long", "minimum": 1},
		},
	},
}

var BorrowLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var CartValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "member_id", "book_id", "added_at"},
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "string"},
			"member_id": bson.M{"bsonType": "long", "minimum": 1},
			"book_id":   bson.M{"bsonType": "long", "minimum": 1},
			"added_at":  bson.M{"bsonType": "date"},
		},
	},
}

var AuditValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "table", "action", "record_id", "actor", "timestamp"},
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "string"},
			"table":     bson.M{"bsonType": "string", "minLength": 1},
			"action":    bson.M{"bsonType": "string", "minLength": 1},
			"record_id": bson.M{"bsonType": "long"},
			"actor":     bson.M{"bsonType": "string"},
			"timestamp": bson.M{"bsonType": "date"},
		},
	},
}
