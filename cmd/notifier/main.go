// Command notifier consumes booking events from Kafka or RabbitMQ and emits
// one notification per event id.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/spf13/pflag"

	"hotelier/internal/app/notifications"
	"hotelier/internal/infra/broker"
	"hotelier/internal/infra/broker/amqp"
	"hotelier/internal/infra/broker/kafka"
	"hotelier/internal/infra/config"
	mongostore "hotelier/internal/infra/db/mongo"
	"hotelier/internal/infra/inbox"
	"hotelier/internal/infra/obs"
	infraoutbox "hotelier/internal/infra/outbox"
)

const consumerName = "notifier"

func main() {
	brokerKind := pflag.String("broker", "", "kafka or amqp (defaults to BROKER)")
	group := pflag.String("group", "", "kafka consumer group (defaults to KAFKA_GROUP_ID)")
	queue := pflag.String("queue", "hotelier.notifications", "amqp queue name")
	topics := pflag.StringSlice("topics", nil, "topics to consume (defaults to the booking topic)")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env).With("component", consumerName)

	if *brokerKind == "" {
		*brokerKind = cfg.Broker
	}
	if *group == "" {
		*group = cfg.KafkaGroupID
	}
	if len(*topics) == 0 {
		*topics = []string{infraoutbox.TopicFor(cfg.KafkaTopicPrefix, "booking")}
	}

	dedupe, closeInbox, err := openInbox(ctx, cfg)
	if err != nil {
		logger.Error("inbox unavailable", "error", err)
		os.Exit(1)
	}
	defer closeInbox()

	notifier := &notifications.Notifier{Inbox: dedupe, Logger: logger}
	handler := broker.HandlerFunc(func(ctx context.Context, msg broker.Message) error {
		err := notifier.HandleEvent(ctx, msg.Payload)
		if errors.Is(err, notifications.ErrMalformedEvent) {
			logger.Warn("dropping malformed event", "topic", msg.Topic, "key", msg.Key, "error", err)
			return nil
		}
		return err
	})

	logger.Info("notifier starting", "broker", *brokerKind, "topics", strings.Join(*topics, ","))
	if err := consume(ctx, cfg, *brokerKind, *group, *queue, *topics, handler, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("notifier stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}

func consume(ctx context.Context, cfg config.Config, kind, group, queue string, topics []string, handler broker.Handler, logger *slog.Logger) error {
	switch kind {
	case config.BrokerKafka:
		sc := sarama.NewConfig()
		sc.ClientID = "hotelier-notifier"
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, group, sc, handler, logger)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }()
		return consumer.Run(ctx, topics)
	case config.BrokerAMQP:
		consumer := &amqp.Consumer{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    queue,
			Handler:  handler,
			Logger:   logger,
			Prefetch: 16,
		}
		return consumer.Run(ctx, topics)
	default:
		return fmt.Errorf("notifier needs --broker kafka or amqp, got %q", kind)
	}
}

func openInbox(ctx context.Context, cfg config.Config) (inbox.Deduplicator, func(), error) {
	if cfg.Storage != config.StorageMongo {
		return inbox.NewMemory(0), func() {}, nil
	}
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	store, err := inbox.NewStore(ctx, client.DB, consumerName)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, nil, err
	}
	return store, func() { _ = client.Close(context.Background()) }, nil
}
