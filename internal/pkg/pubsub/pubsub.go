package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

type Client struct {
	client *pubsub.Client
}

func InitPubSub(ctx context.Context, projectID string) *Client {
	if projectID == "" {
		log.Fatal().Msg("Pub sub missing projectID to initialize")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pub sub connection")
	}
	log.Info().Msg(fmt.Sprintf("Successful pubsub init with projectID: %s", projectID))
	return &Client{client: client}
}

// Subscribe blocks receiving messages until ctx is done.
func (c *Client) Subscribe(ctx context.Context, subscriptionHandler SubscriptionHandler) {
	sub := c.client.Subscription(subscriptionHandler.SubscriptionId)
	err := sub.Receive(ctx, subscriptionHandler.Handler)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Subscriber error for sub id %s", subscriptionHandler.SubscriptionId))
	}
}

func (c *Client) Publish(ctx context.Context, message Publishable) {
	t, err := c.getTopic(ctx, message.GetEventTopicName())
	if err != nil {
		return
	}
	defer t.Stop()

	result := t.Publish(ctx, &pubsub.Message{Data: encodeMessage(message)})

	if _, err := result.Get(ctx); err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Failed to publish message for %s", message.GetEventTopicName()))
	}
}

func (c *Client) Close() {
	if err := c.client.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing pubsub client")
	}
}

func (c *Client) getTopic(ctx context.Context, topicName string) (*pubsub.Topic, error) {
	t := c.client.Topic(topicName)
	exists, err := t.Exists(ctx)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Cant check topic %s", topicName))
		return nil, err
	}
	if exists {
		return t, nil
	}

	log.Info().Msg(fmt.Sprintf("Topic %s does not exist. Creating new", topicName))
	nt, err := c.client.CreateTopic(ctx, topicName)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Cant create topic %s", topicName))
		return nil, err
	}
	return nt, nil
}

func encodeMessage(message any) []byte {
	switch m := message.(type) {
	case string:
		return []byte(m)
	default:
		return utils.JsonEncode(message)
	}
}
