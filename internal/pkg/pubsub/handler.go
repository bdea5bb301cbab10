package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
)

type SubscriptionHandler struct {
	SubscriptionId string
	Handler        func(ctx context.Context, message *pubsub.Message)
}

// Publishable is an event that knows the topic it belongs to.
type Publishable interface {
	GetEventTopicName() string
}

// Publisher is implemented by Client; handlers depend on it so they can be
// tested without a Pub/Sub emulator.
type Publisher interface {
	Publish(ctx context.Context, message Publishable)
}

type Subscriber interface {
	Subscribe(ctx context.Context, subscriptionHandler SubscriptionHandler)
}
