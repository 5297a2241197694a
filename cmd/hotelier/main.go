package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	goredis "github.com/redis/go-redis/v9"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/handlers/admin"
	bookingapp "hotelier/internal/app/handlers/booking"
	"hotelier/internal/app/handlers/rooms"
	"hotelier/internal/app/locks"
	"hotelier/internal/app/middleware"
	appoutbox "hotelier/internal/app/outbox"
	"hotelier/internal/app/queries"
	authsvc "hotelier/internal/app/services/auth"
	"hotelier/internal/app/uow"
	domainuser "hotelier/internal/domain/user"
	"hotelier/internal/infra/broker/amqp"
	"hotelier/internal/infra/broker/kafka"
	"hotelier/internal/infra/config"
	mongostore "hotelier/internal/infra/db/mongo"
	"hotelier/internal/infra/fixtures"
	ginserver "hotelier/internal/infra/http/gin"
	redislock "hotelier/internal/infra/lock/redis"
	"hotelier/internal/infra/obs"
	infraoutbox "hotelier/internal/infra/outbox"
	"hotelier/internal/infra/security"
	"hotelier/internal/infra/storage/memory"
	"hotelier/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("hotelier stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	health := obs.Health{Checks: map[string]obs.Check{}, Timeout: 2 * time.Second}
	if st.ping != nil {
		health.Checks["mongo"] = st.ping
	}

	locker, closeLocker := buildLocker(cfg, logger, health.Checks)
	defer closeLocker()

	producer, closeProducer, err := buildProducer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeProducer()

	worker := infraoutbox.NewWorker(st.relay, producer)
	worker.Interval = cfg.OutboxPollInterval
	worker.TopicPrefix = cfg.KafkaTopicPrefix
	worker.Backoff = cfg.RetryBackoff
	worker.Logger = logger.With("component", "outbox")
	st.onFlush(worker.Wake)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("jwt issuer: %w", err)
	}
	authService := &authsvc.Service{
		Users:     st.users,
		Passwords: security.BcryptHasher{Cost: cfg.BcryptCost},
		Tokens:    tokens,
		Logger:    logger.With("component", "auth"),
	}
	if cfg.AdminEmail != "" {
		_, created, err := authService.EnsureAdmin(ctx, authsvc.RegisterParams{Email: cfg.AdminEmail, Name: cfg.AdminName, Password: cfg.AdminPassword})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		logger.Info("admin account ready", "email", cfg.AdminEmail, "created", created)
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	coordinator := &bookingapp.Coordinator{
		UoWFactory: st.factory,
		Locks:      locker,
		Outbox:     st.outbox,
		Encoder:    encoder,
		Logger:     logger.With("component", "booking"),
	}
	coordinator.Register(commandBus)
	roomHandlers := &rooms.Handlers{
		UoWFactory: st.factory,
		Outbox:     st.outbox,
		Encoder:    encoder,
		Uploader:   buildUploader(cfg, logger),
		Currency:   cfg.Currency,
		Logger:     logger.With("component", "rooms"),
	}
	roomHandlers.Register(commandBus)

	queryBus := queries.NewInMemoryBus()
	bookingapp.RegisterQueries(queryBus, st.factory, logger)
	(&rooms.Queries{UoWFactory: st.factory}).Register(queryBus)
	(&admin.Queries{UoWFactory: st.factory, Currency: cfg.Currency, Logger: logger}).Register(queryBus)

	cmds := middleware.ChainCommands(commandBus,
		middleware.Logging(logger),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(middleware.ShapeValidator{}),
		middleware.Idempotency(st.idempotency, nil),
		middleware.Transaction(st.factory, nil),
		middleware.OutboxFlush(st.outbox, logger),
	)
	qs := middleware.ChainQueries(queryBus,
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(middleware.ShapeValidator{}),
	)

	if cfg.RoomFixtures != "" {
		seedRooms(ctx, cfg.RoomFixtures, st.users, authService, cmds, logger)
	}

	server := ginserver.NewServer(cfg.HTTPAddr, cfg.Env, obs.Middleware{Logger: logger}, health, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Rooms:          ginserver.RoomHandler{Queries: qs, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
		Manager:        ginserver.ManagerHandler{Commands: cmds, Queries: qs, Logger: logger},
		Admin:          ginserver.AdminHandler{Queries: qs, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Resolver: authService, Logger: logger}.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "broker", cfg.Broker)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// relayOutbox is what both outbox backends provide: the write side used by
// handlers and the claim side drained by the worker.
type relayOutbox interface {
	appoutbox.Outbox
	infraoutbox.Store
}

type storage struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	outbox      appoutbox.Outbox
	relay       infraoutbox.Store
	idempotency middleware.IdempotencyStore
	onFlush     func(func())
	ping        obs.Check
	close       func()
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := mongostore.EnsureIndexes(ctx, client.DB); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewMongoStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		logger.Info("mongo storage ready", "database", cfg.MongoDB)
		return newStorage(mongostore.NewFactory(client.DB), mongostore.NewUserRepository(client.DB), box, idem,
			func(fn func()) { box.OnFlush = fn },
			client.Ping,
			func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Close(closeCtx); err != nil {
					logger.Warn("mongo disconnect failed", "error", err)
				}
			}), nil
	case config.StorageMemory:
		store := memory.NewStore()
		box := memory.NewOutbox()
		logger.Warn("in-memory storage selected, state is lost on restart")
		return newStorage(memory.Factory{Store: store}, store.Users(), box, memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			func(fn func()) { box.OnFlush = fn }, nil, func() {}), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func newStorage(factory uow.UoWFactory, users domainuser.Repository, box relayOutbox, idem middleware.IdempotencyStore, onFlush func(func()), ping obs.Check, closeFn func()) *storage {
	return &storage{
		factory:     factory,
		users:       users,
		outbox:      box,
		relay:       box,
		idempotency: idem,
		onFlush:     onFlush,
		ping:        ping,
		close:       closeFn,
	}
}

// buildLocker prefers Redis so several API replicas share room locks.
func buildLocker(cfg config.Config, logger *slog.Logger, checks map[string]obs.Check) (locks.Locker, func()) {
	if cfg.RedisAddr == "" {
		return memory.NewLocker(cfg.RoomLockWait), func() {}
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	locker := redislock.NewLocker(client, redislock.Options{TTL: cfg.RoomLockTTL, Wait: cfg.RoomLockWait, Logger: logger})
	return locker, func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
}

func buildProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, func(), error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		sc := sarama.NewConfig()
		sc.ClientID = "hotelier-api"
		p, err := kafka.NewProducer(cfg.KafkaBrokers, sc)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		return p, closer(p.Close, "kafka producer", logger), nil
	case config.BrokerAMQP:
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp publisher: %w", err)
		}
		return p, closer(p.Close, "amqp publisher", logger), nil
	default:
		return logProducer{logger: logger}, func() {}, nil
	}
}

func closer(fn func() error, what string, logger *slog.Logger) func() {
	return func() {
		if err := fn(); err != nil {
			logger.Warn("close failed", "component", what, "error", err)
		}
	}
}

// logProducer drains the outbox when no broker is configured.
type logProducer struct {
	logger *slog.Logger
}

func (p logProducer) Publish(_ context.Context, topic, key string, payload []byte, _ map[string]string) error {
	p.logger.Debug("event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}

func buildUploader(cfg config.Config, logger *slog.Logger) rooms.PhotoUploader {
	if cfg.S3Endpoint == "" {
		return s3.Disabled{}
	}
	store, err := s3.NewPhotoStore(s3.Options{
		Endpoint:       cfg.S3Endpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Bucket:         cfg.S3Bucket,
		UseSSL:         cfg.S3UseSSL,
	}, logger)
	if err != nil {
		logger.Warn("photo storage disabled", "error", err)
		return s3.Disabled{}
	}
	return store
}

func seedRooms(ctx context.Context, path string, users domainuser.Repository, managers fixtures.Managers, bus commands.Bus, logger *slog.Logger) {
	file, err := fixtures.Load(path)
	if err != nil {
		logger.Warn("room fixtures load failed", "error", err, "path", path)
		return
	}
	seeder := fixtures.Seeder{Users: users, Managers: managers, Bus: bus, Logger: logger}
	n, err := seeder.Apply(ctx, file)
	if err != nil {
		logger.Warn("room fixtures partially applied", "error", err, "rooms", n)
		return
	}
	logger.Info("room fixtures applied", "rooms", n, "path", path)
}
