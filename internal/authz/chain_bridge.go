package authz

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/utils"
	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
)

type chainBridge struct {
	authz *authzService
}

// handleAuthorizationSubmitted follows a submitted transaction until it is
// sealed. Messages that cannot be tracked yet are redelivered.
func (b *chainBridge) handleAuthorizationSubmitted(ctx context.Context, message *gcppubsub.Message) {
	log.Info().Msg("Received message payload " + string(message.Data))
	messagePayload, err := utils.JsonDecodeByteStream[AuthorizationSubmitted](message.Data)
	if err != nil {
		log.Warn().Err(err).Msg("Error while parsing AuthorizationSubmitted message")
		message.Ack()
		return
	}

	_, _, err = b.authz.trackSeal(ctx, messagePayload.SessionId, flow.HexToID(messagePayload.TransactionId))
	if err != nil {
		log.Warn().Err(err).Msg("Error while handling AuthorizationSubmitted")
		message.Nack()
		return
	}

	message.Ack()
}
