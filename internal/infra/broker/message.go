// Package broker holds the transport-neutral view of a consumed event.
package broker

import "context"

type Message struct {
	Topic   string
	Key     string
	Payload []byte
	Headers map[string]string
}

// Handler processes one message. Returning an error leaves the message
// unacknowledged where the transport allows it.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
