package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDs converts hex ids for $in filters. The first malformed id fails
// the whole conversion.
func ObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", id, err)
		}
		out = append(out, oid)
	}
	return out, nil
}

// InsertedHex returns the hex form of an inserted ObjectID, or "" when the
// driver reported another id type.
func InsertedHex(insertedID any) string {
	if oid, ok := insertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
