package pubsub

import (
	"context"
)

// Message is one event on the in-process bus. Session changes are the main
// producer; the payload is JSON owned by the publishing package.
type Message struct {
	Topic string
	// UserID is the backend account the event concerns. Empty for anonymous
	// viewers.
	UserID   string
	Payload  []byte
	Metadata map[string]string
}

// Handler consumes one message. A returned error is logged; the message is
// not redelivered.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers messages on a topic to a handler in the background
// until ctx is done or the subscriber is closed.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
