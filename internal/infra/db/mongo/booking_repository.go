package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/daterange"
	"hotelier/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

type bookingDocument struct {
	ID          string      `bson:"_id"`
	RequesterID string      `bson:"requester_id"`
	RoomID      string      `bson:"room_id"`
	CheckIn     time.Time   `bson:"check_in"`
	CheckOut    time.Time   `bson:"check_out"`
	Status      string      `bson:"status"`
	Total       money.Money `bson:"total"`
	CreatedAt   time.Time   `bson:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at"`
	Version     int64       `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		RequesterID: b.RequesterID,
		RoomID:      string(b.RoomID),
		CheckIn:     b.Stay.CheckIn.UTC(),
		CheckOut:    b.Stay.CheckOut.UTC(),
		Status:      string(b.Status),
		Total:       b.Total,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.ID(d.ID),
		RequesterID: d.RequesterID,
		RoomID:      domainroom.ID(d.RoomID),
		Stay:        daterange.DateRange{CheckIn: d.CheckIn.UTC(), CheckOut: d.CheckOut.UTC()},
		Status:      domainbooking.Status(d.Status),
		Total:       d.Total,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Create relies on the partial unique index: a second confirmed booking for
// the same room is a duplicate key and surfaces as a conflict.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return translate(err, domainroom.ErrUnavailable, domainroom.ErrUnavailable)
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	filter := bson.M{"_id": string(b.ID), "version": b.Version}
	update := bson.M{
		"$set": bson.M{"status": string(b.Status), "updated_at": b.UpdatedAt.UTC()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, domainroom.ErrUnavailable, domainbooking.ErrConcurrentUpdate)
	}
	if res.MatchedCount == 0 {
		if _, err := r.ByID(ctx, b.ID); err != nil {
			return err
		}
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"requester_id": requesterID})
}

func (r *BookingRepository) ListByRooms(ctx context.Context, roomIDs []domainroom.ID) ([]*domainbooking.Booking, error) {
	if len(roomIDs) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	ids := make(bson.A, 0, len(roomIDs))
	for _, id := range roomIDs {
		ids = append(ids, string(id))
	}
	return r.find(ctx, bson.M{"room_id": bson.M{"$in": ids}})
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
