package pubsub

import "context"

// Message is one payload received on a channel
type Message struct {
	Channel string
	Payload string
}

// Publisher fans notifications out to whoever listens. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, channel string, message string) error
	Close() error
}

// Subscriber delivers messages until ctx is canceled or Close is called, then
// closes the returned channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Close() error
}

// PubSub combines Publisher and Subscriber
type PubSub interface {
	Publisher
	Subscriber
}
