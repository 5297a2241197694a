package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

// Factory wires Mongo multi-document transactions into the UnitOfWork port.
// Requires a replica set or sharded cluster.
type Factory struct {
	DB       *mongo.Database
	Rooms    *RoomRepository
	Bookings *BookingRepository
	Users    *UserRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory misconfigured")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:       db,
		Rooms:    NewRoomRepository(db),
		Bookings: NewBookingRepository(db),
		Users:    NewUserRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.Rooms == nil || f.Bookings == nil || f.Users == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, factory: f}, nil
}

type Unit struct {
	session mongo.Session
	factory Factory
}

func (u *Unit) Rooms() domainroom.Repository {
	return u.factory.Rooms
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.factory.Bookings
}

func (u *Unit) Users() domainuser.Repository {
	return u.factory.Users
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return translate(u.session.CommitTransaction(ctx), nil, domainroom.ErrConcurrentUpdate)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories called with the
// returned context.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.ContextInjector = (*Unit)(nil)
