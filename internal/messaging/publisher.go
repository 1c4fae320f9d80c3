package messaging

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publish sends a typed event to its topic. Delivery is fire-and-forget
// from the caller's point of view: the returned error reports a publish
// failure, never the outcome of downstream processing.
type Publish[T any] func(event *T) error

// NewPublishFunc binds a typed publish function to a topic on the given
// watermill publisher. Events are serialized as JSON.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)

		return publisher.Publish(topic, msg)
	}
}

// NopPublish returns a publish function that discards every event. Used in
// tests and when telemetry is disabled.
func NopPublish[T any]() Publish[T] {
	return func(_ *T) error { return nil }
}

// PublisherGroup owns the underlying publisher lifecycle so the injector
// can shut it down once, regardless of how many typed functions were bound.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup creates a new publisher group.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the underlying message publisher.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
