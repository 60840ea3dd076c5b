package validators

import "go.mongodb.org/mongo-driver/bson"

var BookValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"title",
			"publication_year",
			"copies_available",
			"copies_provisioned",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "long", "minimum": 1},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 255,
			},

			"isbn": bson.M{
				"bsonType":  "string",
				"minLength": 10,
				"maxLength": 17,
			},

			"publication_year": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			// negative counts are rejected by the store itself
			"copies_available": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"copies_provisioned": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var AuthorValidator = personValidator(false)

var MemberValidator = withPhone(personValidator(true))

var LibrarianValidator = personValidator(true)

var CategoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "name", "created_at"},
		"properties": bson.M{
			"_id": bson.M{"bsonType": "long", "minimum": 1},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"created_at": bson.M{"bsonType": "date"},
			"touched_at": bson.M{"bsonType": "date"},
		},
	},
}

func personValidator(withEmail bool) bson.M {
	required := []string{"_id", "first_name", "last_name", "created_at"}
	properties := bson.M{
		"_id": bson.M{"bsonType": "long", "minimum": 1},
		"first_name": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 100,
		},
		"last_name": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 100,
		},
		"created_at": bson.M{"bsonType": "date"},
		"touched_at": bson.M{"bsonType": "date"},
	}
	if withEmail {
		required = append(required, "email")
		properties["email"] = bson.M{
			"bsonType":  "string",
			"maxLength": 255,
			"pattern":   "^[^@\\s]+@[^@\\s]+$",
		}
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": properties,
		},
	}
}

func withPhone(v bson.M) bson.M {
	schema := v["$jsonSchema"].(bson.M)
	schema["properties"].(bson.M)["phone"] = bson.M{
		"bsonType": "string",
		"pattern":  "^\\+[1-9][0-9]{1,14}$",
	}
	return v
}

// LinkValidator covers Book_authors and Book_categories; targetField names
// the linked id.
func LinkValidator(targetField string) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"book_id", targetField},
			"properties": bson.M{
				"book_id":   bson.M{"bsonType": "long", "minimum": 1},
				targetField: bson.M{"bsonType": "long", "minimum": 1},
			},
		},
	}
}
