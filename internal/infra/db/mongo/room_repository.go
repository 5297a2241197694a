package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/money"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection(roomsCollection)}
}

type roomDocument struct {
	ID        string      `bson:"_id"`
	Number    string      `bson:"room_number"`
	Category  string      `bson:"category"`
	Price     money.Money `bson:"price"`
	Available bool        `bson:"available"`
	ManagerID string      `bson:"manager_id"`
	PhotoURL  string      `bson:"photo_url,omitempty"`
	CreatedAt time.Time   `bson:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at"`
	Version   int64       `bson:"version"`
}

func newRoomDocument(r *domainroom.Room) roomDocument {
	return roomDocument{
		ID:        string(r.ID),
		Number:    r.Number,
		Category:  string(r.Category),
		Price:     r.Price,
		Available: r.Available,
		ManagerID: r.ManagerID,
		PhotoURL:  r.PhotoURL,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Version:   r.Version,
	}
}

func (d roomDocument) toAggregate() *domainroom.Room {
	return &domainroom.Room{
		ID:        domainroom.ID(d.ID),
		Number:    d.Number,
		Category:  domainroom.Category(d.Category),
		Price:     d.Price,
		Available: d.Available,
		ManagerID: d.ManagerID,
		PhotoURL:  d.PhotoURL,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainroom.ID) (*domainroom.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainroom.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RoomRepository) Create(ctx context.Context, room *domainroom.Room) error {
	doc := newRoomDocument(room)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return translate(err, domainroom.ErrDuplicateNumber, domainroom.ErrConcurrentUpdate)
	}
	room.Version = doc.Version
	return nil
}

// Save leaves the availability field alone; it belongs to the coordinator.
func (r *RoomRepository) Save(ctx context.Context, room *domainroom.Room) error {
	set := bson.M{
		"room_number": room.Number,
		"category":    string(room.Category),
		"price":       room.Price,
		"photo_url":   room.PhotoURL,
		"updated_at":  room.UpdatedAt.UTC(),
	}
	filter := bson.M{"_id": string(room.ID), "version": room.Version}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		return translate(err, domainroom.ErrDuplicateNumber, domainroom.ErrConcurrentUpdate)
	}
	if res.MatchedCount == 0 {
		if _, err := r.ByID(ctx, room.ID); err != nil {
			return err
		}
		return domainroom.ErrConcurrentUpdate
	}
	room.Version++
	return nil
}

func (r *RoomRepository) SetAvailability(ctx context.Context, id domainroom.ID, available bool) error {
	filter := bson.M{"_id": string(id), "available": !available}
	update := bson.M{"$set": bson.M{"available": available, "updated_at": time.Now().UTC()}, "$inc": bson.M{"version": 1}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, nil, domainroom.ErrConcurrentUpdate)
	}
	if res.MatchedCount == 0 {
		// Already at the requested value, or missing.
		_, err := r.ByID(ctx, id)
		return err
	}
	return nil
}

func (r *RoomRepository) ClaimAvailability(ctx context.Context, id domainroom.ID) error {
	filter := bson.M{"_id": string(id), "available": true}
	update := bson.M{"$set": bson.M{"available": false, "updated_at": time.Now().UTC()}, "$inc": bson.M{"version": 1}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, nil, domainroom.ErrUnavailable)
	}
	if res.MatchedCount == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return err
		}
		return domainroom.ErrUnavailable
	}
	return nil
}

func (r *RoomRepository) ListAvailable(ctx context.Context) ([]*domainroom.Room, error) {
	return r.find(ctx, bson.M{"available": true})
}

func (r *RoomRepository) ListByManager(ctx context.Context, managerID string) ([]*domainroom.Room, error) {
	return r.find(ctx, bson.M{"manager_id": managerID})
}

func (r *RoomRepository) List(ctx context.Context) ([]*domainroom.Room, error) {
	return r.find(ctx, bson.M{})
}

func (r *RoomRepository) find(ctx context.Context, filter bson.M) ([]*domainroom.Room, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "room_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainroom.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

var _ domainroom.Repository = (*RoomRepository)(nil)
