package mongograph

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// relationshipSchema is the validation schema for one relationship list:
// an array of target descriptors, each requiring a target entity ID.
func relationshipSchema() bson.M {
	return bson.M{
		"bsonType": "array",
		"items": bson.M{
			"bsonType": "object",
			"required": bson.A{"target"},
			"properties": bson.M{
				"target": bson.M{
					"bsonType":    "string",
					"description": "ID of the target entity",
				},
				"properties": bson.M{
					"bsonType":    "object",
					"description": "Metadata describing the relationship",
					"additionalProperties": bson.M{
						"bsonType": "array",
						"items":    bson.M{"bsonType": "string"},
					},
				},
			},
		},
	}
}

// entitySchema builds the $jsonSchema document enforced on the collection
// when validation is enabled.
//
// With no constraints, any entity type and relationship type key is allowed.
// When entityTypes is non-empty the "type" field becomes an enum; when
// relationshipTypes is non-empty the relationships object is closed to those
// keys.
func entitySchema(entityTypes, relationshipTypes []string) bson.M {
	typeSchema := bson.M{
		"bsonType":    "string",
		"description": "Type of the entity (e.g., 'Person', 'Organization')",
	}
	if len(entityTypes) > 0 {
		enum := make(bson.A, 0, len(entityTypes))
		for _, t := range entityTypes {
			enum = append(enum, t)
		}
		typeSchema["enum"] = enum
	}

	relationships := bson.M{
		"bsonType":    "object",
		"description": "Relationship lists keyed by relationship type",
	}
	if len(relationshipTypes) > 0 {
		perKey := bson.M{}
		for _, t := range relationshipTypes {
			perKey[t] = relationshipSchema()
		}
		relationships["properties"] = perKey
		relationships["additionalProperties"] = false
	} else {
		relationships["additionalProperties"] = relationshipSchema()
	}

	return bson.M{
		"bsonType": "object",
		"required": bson.A{"ID", "type"},
		"properties": bson.M{
			"ID": bson.M{
				"bsonType":    "string",
				"description": "Unique identifier for the entity",
			},
			"type": typeSchema,
			"properties": bson.M{
				"bsonType":    "object",
				"description": "Key-value pairs describing the entity",
				"additionalProperties": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "string"},
				},
			},
			"relationships": relationships,
			"targets": bson.M{
				"bsonType":    "array",
				"description": "Flattened relationship target IDs, used for traversal",
				"items":       bson.M{"bsonType": "string"},
			},
			"sources": bson.M{
				"bsonType":    "array",
				"description": "IDs of the source documents this entity was extracted from",
				"items":       bson.M{"bsonType": "string"},
			},
		},
	}
}
