package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hotelier/internal/infra/broker"
)

// Consumer binds a durable queue to the events exchange and hands every
// delivery to the handler, reconnecting with backoff when the broker drops.
type Consumer struct {
	URL      string
	Exchange string
	Queue    string
	Handler  broker.Handler
	Logger   *slog.Logger
	Prefetch int
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	if c.Handler == nil || c.URL == "" || c.Queue == "" {
		return errors.New("amqp: consumer misconfigured")
	}
	backoff := time.Second
	for {
		err := c.consume(ctx, topics)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger().Warn("amqp consume loop ended, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context, topics []string) error {
	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("amqp: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	exchange := c.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := declareExchange(ch, exchange); err != nil {
		return err
	}
	prefetch := c.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("amqp: qos: %w", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp: declare queue: %w", err)
	}
	for _, topic := range topics {
		if err := ch.QueueBind(c.Queue, topic, exchange, false, nil); err != nil {
			return fmt.Errorf("amqp: bind %s: %w", topic, err)
		}
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp: consume: %w", err)
	}

	for d := range deliveries {
		msg := toMessage(d)
		if err := c.Handler.Handle(ctx, msg); err != nil {
			c.logger().Warn("amqp delivery not handled", "routing_key", d.RoutingKey, "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("amqp: delivery channel closed")
}

func toMessage(d amqp.Delivery) broker.Message {
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	return broker.Message{Topic: d.RoutingKey, Key: headers["key"], Payload: d.Body, Headers: headers}
}

func (c *Consumer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
