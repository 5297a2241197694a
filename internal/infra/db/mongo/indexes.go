package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	roomsCollection    = "rooms"
	bookingsCollection = "bookings"
	usersCollection    = "users"
)

// EnsureIndexes creates the indexes the repositories rely on for
// uniqueness. The partial index on confirmed bookings is the storage-level
// guarantee that a room never holds two active bookings.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		roomsCollection: {
			{Keys: bson.D{{Key: "room_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "manager_id", Value: 1}}},
			{Keys: bson.D{{Key: "available", Value: 1}}},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys: bson.D{{Key: "room_id", Value: 1}},
				Options: options.Index().
					SetName("one_confirmed_booking_per_room").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "confirmed"}),
			},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create indexes on %s: %w", name, err)
		}
	}
	return nil
}
